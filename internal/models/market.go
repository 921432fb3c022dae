package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PriceField tags which source field a record's price was taken from.
// Market-data collaborators do not agree on a column name, so the shape is
// resolved once at ingestion and downstream code only sees PriceRecord.
type PriceField int

const (
	PriceFieldNone PriceField = iota
	PriceFieldClose
	PriceFieldPriceClose
	PriceFieldCloseValue
	PriceFieldValue
	PriceFieldPurchasePrice
)

// priceFieldOrder is the lookup priority for heterogeneous records.
var priceFieldOrder = []struct {
	key   string
	field PriceField
}{
	{"close", PriceFieldClose},
	{"price_close", PriceFieldPriceClose},
	{"close_value", PriceFieldCloseValue},
	{"value", PriceFieldValue},
	{"purchase_price", PriceFieldPurchasePrice},
}

// String returns the source field name.
func (f PriceField) String() string {
	for _, p := range priceFieldOrder {
		if p.field == f {
			return p.key
		}
	}
	return "none"
}

// MarshalJSON renders the tag as its field name.
func (f PriceField) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// ExtractPrice searches rec for the first present, parseable, finite,
// non-negative price in priority order. Returns (0, PriceFieldNone) when
// nothing usable is found. Never panics.
func ExtractPrice(rec map[string]any) (float64, PriceField) {
	for _, p := range priceFieldOrder {
		raw, ok := rec[p.key]
		if !ok {
			continue
		}
		if v, ok := toFloat(raw); ok {
			return v, p.field
		}
	}
	return 0, PriceFieldNone
}

// toFloat coerces a decoded JSON value (or a typed column) into a usable
// price. Prices are never negative.
func toFloat(raw any) (float64, bool) {
	v, ok := toNumber(raw)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// toNumber coerces a decoded JSON value into a finite number of any sign.
// Benchmark rates can be negative.
func toNumber(raw any) (float64, bool) {
	var v float64
	switch x := raw.(type) {
	case nil:
		return 0, false
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// PriceRecord is one day of an asset's price history, normalized.
type PriceRecord struct {
	Date     time.Time  `json:"trade_date"`
	Price    float64    `json:"price"`
	Source   PriceField `json:"source"`
	Dividend float64    `json:"dividend_value,omitempty"`
}

// HasPrice reports whether the record carries a usable price. A zero price
// from a real source field is still a price; only a missing field is not.
func (r PriceRecord) HasPrice() bool {
	return r.Source != PriceFieldNone
}

// NewPriceRecord builds a record from a typed close column.
func NewPriceRecord(date time.Time, price, dividend float64) PriceRecord {
	rec := PriceRecord{Date: Day(date), Dividend: dividend}
	if v, ok := toFloat(price); ok {
		rec.Price = v
		rec.Source = PriceFieldClose
	}
	return rec
}

// UnmarshalJSON resolves the heterogeneous record shape into a PriceRecord.
func (r *PriceRecord) UnmarshalJSON(data []byte) error {
	raw, err := decodeRecord(data)
	if err != nil {
		return err
	}
	date, err := recordDate(raw)
	if err != nil {
		return err
	}
	price, field := ExtractPrice(raw)
	*r = PriceRecord{Date: date, Price: price, Source: field}
	if d, ok := toFloat(raw["dividend_value"]); ok {
		r.Dividend = d
	}
	return nil
}

// BenchmarkRecord is one observation of a benchmark: an index level, or a
// daily rate in percent for rate benchmarks.
type BenchmarkRecord struct {
	Date  time.Time `json:"trade_date"`
	Value float64   `json:"value"`
	Valid bool      `json:"valid"`
}

// NewBenchmarkRecord builds a record from a typed value column.
func NewBenchmarkRecord(date time.Time, value float64) BenchmarkRecord {
	v, ok := toNumber(value)
	return BenchmarkRecord{Date: Day(date), Value: v, Valid: ok}
}

// UnmarshalJSON accepts close_value (index tables), value (rate tables) or close.
func (r *BenchmarkRecord) UnmarshalJSON(data []byte) error {
	raw, err := decodeRecord(data)
	if err != nil {
		return err
	}
	date, err := recordDate(raw)
	if err != nil {
		return err
	}
	*r = BenchmarkRecord{Date: date}
	for _, key := range []string{"close_value", "value", "close"} {
		if v, ok := toNumber(raw[key]); ok {
			r.Value = v
			r.Valid = true
			break
		}
	}
	return nil
}

func decodeRecord(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func recordDate(raw map[string]any) (time.Time, error) {
	for _, key := range []string{"trade_date", "date"} {
		if s, ok := raw[key].(string); ok {
			return ParseDate(s)
		}
	}
	return time.Time{}, fmt.Errorf("record has no trade_date")
}

// Benchmark describes a reference series the portfolio is compared against.
type Benchmark struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Table  string `json:"table"`
	IsRate bool   `json:"is_rate"`
}

// Known benchmarks. Table names match the relational schema.
var (
	BenchmarkIBOV  = Benchmark{Code: "IBOV", Name: "Ibovespa", Table: "ibov_history"}
	BenchmarkIFIX  = Benchmark{Code: "IFIX", Name: "IFIX", Table: "ifix_history"}
	BenchmarkSP500 = Benchmark{Code: "SP500", Name: "S&P 500", Table: "sp500_history"}
	BenchmarkCDI   = Benchmark{Code: "CDI", Name: "CDI", Table: "cdi_history", IsRate: true}
)

// LookupBenchmark returns the benchmark for a code (case-insensitive).
func LookupBenchmark(code string) (Benchmark, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "IBOV":
		return BenchmarkIBOV, true
	case "IFIX":
		return BenchmarkIFIX, true
	case "SP500", "S&P500", "SPX":
		return BenchmarkSP500, true
	case "CDI":
		return BenchmarkCDI, true
	}
	return Benchmark{}, false
}

// CollectResult reports a market-data collection run.
type CollectResult struct {
	Tickers    int      `json:"tickers"`
	Benchmarks int      `json:"benchmarks"`
	Records    int      `json:"records"`
	Months     int      `json:"months"`
	Failures   []string `json:"failures"`
}
