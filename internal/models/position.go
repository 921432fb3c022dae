// Package models defines data structures for Carteira
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// AssetClass is the kind of asset a position belongs to.
type AssetClass string

const (
	ClassStock AssetClass = "stock"
	ClassETF   AssetClass = "etf"
	ClassFII   AssetClass = "fii"
)

// AssetClasses lists every class the engine aggregates, in output order.
var AssetClasses = []AssetClass{ClassStock, ClassETF, ClassFII}

// ParseAssetClass normalizes s and reports whether it names a known class.
func ParseAssetClass(s string) (AssetClass, bool) {
	c := AssetClass(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ClassStock, ClassETF, ClassFII:
		return c, true
	}
	return c, false
}

// Purchase is one persisted buy of an asset (a row of asset_purchases).
type Purchase struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Ticker    string     `json:"ticker"`
	Name      string     `json:"name,omitempty"`
	Type      AssetClass `json:"type"`
	Quantity  float64    `json:"qty"`
	Price     float64    `json:"price"`
	TradeDate time.Time  `json:"trade_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type purchaseJSON struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Ticker    string     `json:"ticker"`
	Name      string     `json:"name,omitempty"`
	Type      AssetClass `json:"type"`
	Quantity  float64    `json:"qty"`
	Price     float64    `json:"price"`
	TradeDate string     `json:"trade_date"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// MarshalJSON renders trade_date as a calendar day.
func (p Purchase) MarshalJSON() ([]byte, error) {
	out := purchaseJSON{
		ID:        p.ID,
		UserID:    p.UserID,
		Ticker:    p.Ticker,
		Name:      p.Name,
		Type:      p.Type,
		Quantity:  p.Quantity,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if !p.TradeDate.IsZero() {
		out.TradeDate = FormatDate(p.TradeDate)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts trade_date as a calendar day or a timestamp.
// An unparseable date leaves TradeDate zero for validation to reject.
func (p *Purchase) UnmarshalJSON(data []byte) error {
	var in purchaseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Purchase{
		ID:        in.ID,
		UserID:    in.UserID,
		Ticker:    in.Ticker,
		Name:      in.Name,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Price:     in.Price,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	if d, err := ParseDate(in.TradeDate); err == nil {
		p.TradeDate = d
	}
	return nil
}

// Position converts a purchase into the engine's input shape.
func (p Purchase) Position() Position {
	return Position{
		Ticker:        p.Ticker,
		Name:          p.Name,
		Class:         p.Type,
		Quantity:      p.Quantity,
		PurchasePrice: p.Price,
		PurchaseDate:  Day(p.TradeDate),
	}
}

// Position is a holding fed to the performance engine. Positions are not
// mutated during a computation pass.
type Position struct {
	Ticker        string     `json:"ticker"`
	Name          string     `json:"name,omitempty"`
	Class         AssetClass `json:"type"`
	Quantity      float64    `json:"qty"`
	PurchasePrice float64    `json:"price"`
	PurchaseDate  time.Time  `json:"trade_date"`
}

// DisplayName returns the name when set, otherwise the ticker.
func (p Position) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Ticker
}
