// Package interfaces defines service contracts for Carteira
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/carteira/internal/models"
)

// StorageManager coordinates the storage backend
type StorageManager interface {
	// Storage accessors
	PurchaseStore() PurchaseStore
	MarketDataStore() MarketDataStore

	// Driver names the backend ("surrealdb" or "postgres")
	Driver() string

	// Lifecycle
	Close() error
}

// PurchaseStore persists raw purchase records, scoped by user.
type PurchaseStore interface {
	// ListPurchases returns every purchase of a user ordered by trade date
	ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error)

	// GetPurchase returns models.ErrPurchaseNotFound when id is unknown for the user
	GetPurchase(ctx context.Context, userID, id string) (*models.Purchase, error)

	// SavePurchase inserts or replaces a purchase by id
	SavePurchase(ctx context.Context, p *models.Purchase) error

	// DeletePurchase returns models.ErrPurchaseNotFound when id is unknown for the user
	DeletePurchase(ctx context.Context, userID, id string) error
}

// MarketDataStore holds daily price and benchmark histories.
type MarketDataStore interface {
	// GetPriceHistory returns records for ticker within [from, to], ascending
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceRecord, error)

	// SavePriceHistory upserts records keyed by (ticker, date)
	SavePriceHistory(ctx context.Context, ticker string, records []models.PriceRecord) error

	// GetBenchmarkHistory returns observations within [from, to], ascending
	GetBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, from, to time.Time) ([]models.BenchmarkRecord, error)

	// SaveBenchmarkHistory upserts observations keyed by (benchmark, date)
	SaveBenchmarkHistory(ctx context.Context, benchmark models.Benchmark, records []models.BenchmarkRecord) error
}
