package models

import (
	"encoding/json"
	"time"
)

// DailyPoint is one day of a performance curve.
// BenchmarkRaw is nil when no benchmark observation exists for the window.
type DailyPoint struct {
	Date           time.Time `json:"-"`
	PortfolioValue float64   `json:"portfolio_value"`
	InvestedAmount float64   `json:"invested_amount"`
	BenchmarkValue float64   `json:"benchmark_value"`
	BenchmarkRaw   *float64  `json:"benchmark_raw"`
}

// MarshalJSON renders the date as a calendar day.
func (p DailyPoint) MarshalJSON() ([]byte, error) {
	type alias DailyPoint
	return json.Marshal(struct {
		Date string `json:"date"`
		alias
	}{
		Date:  FormatDate(p.Date),
		alias: alias(p),
	})
}

// PerformanceHistory is the aggregate result for a user's whole portfolio.
type PerformanceHistory struct {
	Stock      []DailyPoint      `json:"stock"`
	ETF        []DailyPoint      `json:"etf"`
	FII        []DailyPoint      `json:"fii"`
	Total      []DailyPoint      `json:"total"`
	Benchmarks map[string]string `json:"benchmarks"`
	Warnings   []string          `json:"warnings"`
	Months     int               `json:"months"`
	Interval   string            `json:"interval"`
}

// Class returns the series for one asset class.
func (h *PerformanceHistory) Class(c AssetClass) []DailyPoint {
	switch c {
	case ClassStock:
		return h.Stock
	case ClassETF:
		return h.ETF
	case ClassFII:
		return h.FII
	}
	return nil
}

// SetClass stores the series for one asset class.
func (h *PerformanceHistory) SetClass(c AssetClass, points []DailyPoint) {
	switch c {
	case ClassStock:
		h.Stock = points
	case ClassETF:
		h.ETF = points
	case ClassFII:
		h.FII = points
	}
}

// AssetHistory is one holding's curve against its class benchmark.
type AssetHistory struct {
	Ticker    string       `json:"ticker"`
	Class     AssetClass   `json:"type"`
	Benchmark string       `json:"benchmark"`
	Points    []DailyPoint `json:"points"`
	Warnings  []string     `json:"warnings"`
	Months    int          `json:"months"`
}

// Sampling intervals for history output.
const (
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
)

// HistoryOptions tunes a performance history request.
// Months == 0 derives the window from the earliest purchase; any other
// value overrides it, clamped to at least one month.
type HistoryOptions struct {
	Months   int
	Interval string
}

// ImportResult reports a bulk purchase import.
type ImportResult struct {
	Count int `json:"count"`
}
