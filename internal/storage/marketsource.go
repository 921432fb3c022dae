package storage

import (
	"context"
	"time"

	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

// StoreMarketSource serves price and benchmark history straight from storage.
type StoreMarketSource struct {
	store    interfaces.MarketDataStore
	location *time.Location
	now      func() time.Time
}

// NewStoreMarketSource wraps a MarketDataStore. Today is taken in location
// (UTC when nil); a nil clock uses time.Now.
func NewStoreMarketSource(store interfaces.MarketDataStore, location *time.Location, now func() time.Time) *StoreMarketSource {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &StoreMarketSource{store: store, location: location, now: now}
}

// GetPriceHistory returns the last months of history up to today.
func (s *StoreMarketSource) GetPriceHistory(ctx context.Context, ticker string, months int) ([]models.PriceRecord, error) {
	if months < 1 {
		months = 1
	}
	to := models.Day(s.now().In(s.location))
	from := to.AddDate(0, -months, 0)
	return s.store.GetPriceHistory(ctx, ticker, from, to)
}

func (s *StoreMarketSource) GetBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, from, to time.Time) ([]models.BenchmarkRecord, error) {
	return s.store.GetBenchmarkHistory(ctx, benchmark, from, to)
}

// Compile-time check
var _ interfaces.MarketDataSource = (*StoreMarketSource)(nil)
