package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// purchaseSelectFields lists the fields to select from purchase; the record id is
// a RecordID so the plain id is kept in purchase_id.
const purchaseSelectFields = `purchase_id, user_id, ticker, name, type, qty, price, trade_date, created_at, updated_at`

// purchaseRecord is the stored shape of a purchase.
type purchaseRecord struct {
	PurchaseID string    `json:"purchase_id"`
	UserID     string    `json:"user_id"`
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Qty        float64   `json:"qty"`
	Price      float64   `json:"price"`
	TradeDate  time.Time `json:"trade_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r purchaseRecord) toModel() models.Purchase {
	return models.Purchase{
		ID:        r.PurchaseID,
		UserID:    r.UserID,
		Ticker:    r.Ticker,
		Name:      r.Name,
		Type:      models.AssetClass(r.Type),
		Quantity:  r.Qty,
		Price:     r.Price,
		TradeDate: models.Day(r.TradeDate),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// PurchaseStore implements interfaces.PurchaseStore using SurrealDB.
type PurchaseStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewPurchaseStore creates a new PurchaseStore.
func NewPurchaseStore(db *surrealdb.DB, logger *common.Logger) *PurchaseStore {
	return &PurchaseStore{db: db, logger: logger}
}

func (s *PurchaseStore) ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error) {
	sql := "SELECT " + purchaseSelectFields + " FROM purchase WHERE user_id = $user_id ORDER BY trade_date ASC, created_at ASC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]purchaseRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	out := []models.Purchase{}
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			out = append(out, r.toModel())
		}
	}
	return out, nil
}

func (s *PurchaseStore) GetPurchase(ctx context.Context, userID, id string) (*models.Purchase, error) {
	sql := "SELECT " + purchaseSelectFields + " FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("purchase", id),
	}

	results, err := surrealdb.Query[[]purchaseRecord](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, models.ErrPurchaseNotFound
	}
	rec := (*results)[0].Result[0]
	if rec.UserID != userID {
		return nil, models.ErrPurchaseNotFound
	}
	p := rec.toModel()
	return &p, nil
}

func (s *PurchaseStore) SavePurchase(ctx context.Context, p *models.Purchase) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("purchase", p.ID),
		"data": purchaseRecord{
			PurchaseID: p.ID,
			UserID:     p.UserID,
			Ticker:     p.Ticker,
			Name:       p.Name,
			Type:       string(p.Type),
			Qty:        p.Quantity,
			Price:      p.Price,
			TradeDate:  models.Day(p.TradeDate),
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		},
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save purchase after retries: %w", lastErr)
}

func (s *PurchaseStore) DeletePurchase(ctx context.Context, userID, id string) error {
	if _, err := s.GetPurchase(ctx, userID, id); err != nil {
		return err
	}

	_, err := surrealdb.Delete[purchaseRecord](ctx, s.db, surrealmodels.NewRecordID("purchase", id))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	return nil
}

// Compile-time check
var _ interfaces.PurchaseStore = (*PurchaseStore)(nil)
