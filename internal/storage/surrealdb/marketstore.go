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

// priceRow is one stored day of a ticker's history. HasPrice distinguishes a
// missing close from a zero close.
type priceRow struct {
	Ticker    string    `json:"ticker"`
	TradeDate time.Time `json:"trade_date"`
	Close     float64   `json:"close"`
	HasPrice  bool      `json:"has_price"`
	Dividend  float64   `json:"dividend_value"`
}

type benchmarkRow struct {
	Code      string    `json:"code"`
	TradeDate time.Time `json:"trade_date"`
	Value     float64   `json:"value"`
	Valid     bool      `json:"valid"`
}

// MarketStore implements interfaces.MarketDataStore using SurrealDB.
type MarketStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(db *surrealdb.DB, logger *common.Logger) *MarketStore {
	return &MarketStore{db: db, logger: logger}
}

func dayKey(code string, d time.Time) string {
	return code + "_" + d.Format("20060102")
}

func (s *MarketStore) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceRecord, error) {
	sql := `SELECT ticker, trade_date, close, has_price, dividend_value FROM price_history
		WHERE ticker = $ticker AND trade_date >= $from AND trade_date <= $to ORDER BY trade_date ASC`
	vars := map[string]any{"ticker": ticker, "from": models.Day(from), "to": models.Day(to)}

	results, err := surrealdb.Query[[]priceRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history for %s: %w", ticker, err)
	}

	out := []models.PriceRecord{}
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			rec := models.PriceRecord{Date: models.Day(r.TradeDate), Dividend: r.Dividend}
			if r.HasPrice {
				rec = models.NewPriceRecord(r.TradeDate, r.Close, r.Dividend)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MarketStore) SavePriceHistory(ctx context.Context, ticker string, records []models.PriceRecord) error {
	sql := "UPSERT $rid CONTENT $data"
	for _, r := range records {
		d := models.Day(r.Date)
		vars := map[string]any{
			"rid": surrealmodels.NewRecordID("price_history", dayKey(ticker, d)),
			"data": priceRow{
				Ticker:    ticker,
				TradeDate: d,
				Close:     r.Price,
				HasPrice:  r.HasPrice(),
				Dividend:  r.Dividend,
			},
		}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to save price history for %s on %s: %w", ticker, models.FormatDate(d), err)
		}
	}

	s.logger.Debug().Str("ticker", ticker).Int("records", len(records)).Msg("Price history saved")
	return nil
}

func (s *MarketStore) GetBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, from, to time.Time) ([]models.BenchmarkRecord, error) {
	sql := `SELECT code, trade_date, value, valid FROM benchmark_history
		WHERE code = $code AND trade_date >= $from AND trade_date <= $to ORDER BY trade_date ASC`
	vars := map[string]any{"code": benchmark.Code, "from": models.Day(from), "to": models.Day(to)}

	results, err := surrealdb.Query[[]benchmarkRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s history: %w", benchmark.Code, err)
	}

	out := []models.BenchmarkRecord{}
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			rec := models.BenchmarkRecord{Date: models.Day(r.TradeDate)}
			if r.Valid {
				rec = models.NewBenchmarkRecord(r.TradeDate, r.Value)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MarketStore) SaveBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, records []models.BenchmarkRecord) error {
	sql := "UPSERT $rid CONTENT $data"
	for _, r := range records {
		d := models.Day(r.Date)
		vars := map[string]any{
			"rid": surrealmodels.NewRecordID("benchmark_history", dayKey(benchmark.Code, d)),
			"data": benchmarkRow{
				Code:      benchmark.Code,
				TradeDate: d,
				Value:     r.Value,
				Valid:     r.Valid,
			},
		}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to save %s history on %s: %w", benchmark.Code, models.FormatDate(d), err)
		}
	}

	s.logger.Debug().Str("benchmark", benchmark.Code).Int("records", len(records)).Msg("Benchmark history saved")
	return nil
}

// Compile-time check
var _ interfaces.MarketDataStore = (*MarketStore)(nil)
