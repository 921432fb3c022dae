package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/carteira/internal/models"
)

// MarketDataSource is the collaborator the performance engine reads histories from.
// Implemented by the HTTP market-data client and by the storage-backed source.
type MarketDataSource interface {
	// GetPriceHistory returns the daily history of a ticker for the last months, ascending
	GetPriceHistory(ctx context.Context, ticker string, months int) ([]models.PriceRecord, error)

	// GetBenchmarkHistory returns benchmark observations within [from, to], ascending
	GetBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, from, to time.Time) ([]models.BenchmarkRecord, error)
}
