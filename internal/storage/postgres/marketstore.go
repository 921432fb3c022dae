package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

// MarketStore implements interfaces.MarketDataStore on b3_prices and the
// per-benchmark history tables.
type MarketStore struct {
	db     *DB
	logger *common.Logger
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(db *DB, logger *common.Logger) *MarketStore {
	return &MarketStore{db: db, logger: logger}
}

// benchmarkColumn is close_value for index tables and value for rate tables.
func benchmarkColumn(b models.Benchmark) string {
	if b.IsRate {
		return "value"
	}
	return "close_value"
}

func (s *MarketStore) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_date, close, dividend_value
		FROM b3_prices
		WHERE ticker = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC
	`, ticker, models.FormatDate(from), models.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get price history for %s: %w", ticker, err)
	}
	defer rows.Close()

	out := []models.PriceRecord{}
	for rows.Next() {
		var (
			date       time.Time
			closePrice sql.NullFloat64
			dividend   float64
		)
		if err := rows.Scan(&date, &closePrice, &dividend); err != nil {
			return nil, fmt.Errorf("failed to scan price for %s: %w", ticker, err)
		}
		rec := models.PriceRecord{Date: models.Day(date), Dividend: dividend}
		if closePrice.Valid {
			rec = models.NewPriceRecord(date, closePrice.Float64, dividend)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get price history for %s: %w", ticker, err)
	}
	return out, nil
}

func (s *MarketStore) SavePriceHistory(ctx context.Context, ticker string, records []models.PriceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin price history save: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		var closePrice sql.NullFloat64
		if r.HasPrice() {
			closePrice = sql.NullFloat64{Float64: r.Price, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO b3_prices (ticker, trade_date, close, dividend_value)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (ticker, trade_date) DO UPDATE SET
				close = EXCLUDED.close,
				dividend_value = EXCLUDED.dividend_value
		`, ticker, models.FormatDate(r.Date), closePrice, r.Dividend); err != nil {
			return fmt.Errorf("failed to save price history for %s on %s: %w", ticker, models.FormatDate(r.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price history for %s: %w", ticker, err)
	}

	s.logger.Debug().Str("ticker", ticker).Int("records", len(records)).Msg("Price history saved")
	return nil
}

func (s *MarketStore) GetBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, from, to time.Time) ([]models.BenchmarkRecord, error) {
	query := fmt.Sprintf(`
		SELECT trade_date, %s
		FROM %s
		WHERE trade_date >= $1 AND trade_date <= $2
		ORDER BY trade_date ASC
	`, benchmarkColumn(benchmark), pq.QuoteIdentifier(benchmark.Table))

	rows, err := s.db.QueryContext(ctx, query, models.FormatDate(from), models.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s history: %w", benchmark.Code, err)
	}
	defer rows.Close()

	out := []models.BenchmarkRecord{}
	for rows.Next() {
		var (
			date  time.Time
			value sql.NullFloat64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s history: %w", benchmark.Code, err)
		}
		rec := models.BenchmarkRecord{Date: models.Day(date)}
		if value.Valid {
			rec = models.NewBenchmarkRecord(date, value.Float64)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get %s history: %w", benchmark.Code, err)
	}
	return out, nil
}

func (s *MarketStore) SaveBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, records []models.BenchmarkRecord) error {
	col := benchmarkColumn(benchmark)
	stmt := fmt.Sprintf(`
		INSERT INTO %s (trade_date, %s)
		VALUES ($1, $2)
		ON CONFLICT (trade_date) DO UPDATE SET %s = EXCLUDED.%s
	`, pq.QuoteIdentifier(benchmark.Table), col, col, col)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s history save: %w", benchmark.Code, err)
	}
	defer tx.Rollback()

	for _, r := range records {
		var value sql.NullFloat64
		if r.Valid {
			value = sql.NullFloat64{Float64: r.Value, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, stmt, models.FormatDate(r.Date), value); err != nil {
			return fmt.Errorf("failed to save %s history on %s: %w", benchmark.Code, models.FormatDate(r.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s history: %w", benchmark.Code, err)
	}

	s.logger.Debug().Str("benchmark", benchmark.Code).Int("records", len(records)).Msg("Benchmark history saved")
	return nil
}

// Compile-time check
var _ interfaces.MarketDataStore = (*MarketStore)(nil)
