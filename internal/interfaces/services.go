package interfaces

import (
	"context"

	"github.com/bobmcallan/carteira/internal/models"
)

// PerformanceService computes portfolio performance curves
type PerformanceService interface {
	// GetPerformanceHistory returns per-class and total curves with warnings
	GetPerformanceHistory(ctx context.Context, userID string, opts models.HistoryOptions) (*models.PerformanceHistory, error)

	// GetAssetHistory returns one holding's curve against its class benchmark
	GetAssetHistory(ctx context.Context, userID, ticker string, months int) (*models.AssetHistory, error)

	// RenderChart renders a PNG of one series ("total", "stock", "etf" or "fii")
	RenderChart(ctx context.Context, userID, series string, months int) ([]byte, error)
}

// PurchaseService manages purchase records and invalidates cached positions on change
type PurchaseService interface {
	ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error)
	CreatePurchase(ctx context.Context, userID string, p models.Purchase) (*models.Purchase, error)
	UpdatePurchase(ctx context.Context, userID, id string, p models.Purchase) (*models.Purchase, error)
	DeletePurchase(ctx context.Context, userID, id string) error
	ImportPurchases(ctx context.Context, userID string, items []models.Purchase) (*models.ImportResult, error)

	// ListPositions returns purchases consolidated by ticker
	ListPositions(ctx context.Context, userID string) ([]models.Position, error)
}

// MarketService copies price and benchmark history from the remote market-data
// source into storage
type MarketService interface {
	// Collect stores the history of every ticker the user holds plus all benchmarks
	Collect(ctx context.Context, userID string, months int) (*models.CollectResult, error)

	// CollectBenchmarks stores the configured benchmarks only
	CollectBenchmarks(ctx context.Context, months int) (*models.CollectResult, error)
}
