// Package app wires configuration, storage, market data and services into the
// shared core used by cmd/carteira-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/carteira/internal/clients/marketdata"
	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/services/market"
	"github.com/bobmcallan/carteira/internal/services/performance"
	"github.com/bobmcallan/carteira/internal/services/purchases"
	"github.com/bobmcallan/carteira/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Storage            interfaces.StorageManager
	MarketSource       interfaces.MarketDataSource
	PositionCache      *performance.PositionCache
	PerformanceService interfaces.PerformanceService
	PurchaseService    interfaces.PurchaseService
	MarketService      interfaces.MarketService
	StartupTime        time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the provided path, then CARTEIRA_CONFIG, then
// carteira.toml next to the binary, then config/carteira.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("CARTEIRA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "carteira.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/carteira.toml"
		}
	}
	return configPath
}

// NewApp loads configuration, connects storage and builds the services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	config, err := common.LoadConfig(resolveConfigPath(configPath, binDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(context.Background(), logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := newApp(config, logger, storageManager)
	a.StartupTime = startupStart

	logger.Info().
		Str("version", common.CurrentVersion().String()).
		Str("storage", storageManager.Driver()).
		Str("market_source", config.Market.Source).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// newApp builds the market source, shared position cache and services on top
// of an already connected storage manager.
func newApp(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager) *App {
	var remote *marketdata.Client
	if config.Market.BaseURL != "" {
		remote = marketdata.NewClient(config.Market.BaseURL,
			marketdata.WithAPIKey(config.Market.APIKey),
			marketdata.WithLogger(logger),
			marketdata.WithRateLimit(config.Market.RateLimit),
			marketdata.WithTimeout(config.Market.GetTimeout()),
		)
	}

	var source interfaces.MarketDataSource
	if config.Market.Source == "http" && remote != nil {
		source = remote
	} else {
		if config.Market.Source == "http" {
			logger.Warn().Msg("Market source is http but base_url is empty - reading history from storage")
		}
		source = storage.NewStoreMarketSource(storageManager.MarketDataStore(), config.Performance.GetLocation(), nil)
	}

	cache := performance.NewPositionCache()
	purchaseStore := storageManager.PurchaseStore()

	a := &App{
		Config:             config,
		Logger:             logger,
		Storage:            storageManager,
		MarketSource:       source,
		PositionCache:      cache,
		PerformanceService: performance.NewService(purchaseStore, source, cache, config.Performance, logger),
		PurchaseService:    purchases.NewService(purchaseStore, cache, logger),
		StartupTime:        time.Now(),
	}

	if remote != nil {
		a.MarketService = market.NewService(purchaseStore, remote, storageManager.MarketDataStore(),
			market.BenchmarksFromConfig(config.Performance.Benchmarks),
			config.Performance.GetLocation(),
			config.Performance.MaxConcurrentFetches, logger)
	}

	return a
}

// StartScheduler launches the periodic benchmark refresh when a collector and
// an interval are configured.
func (a *App) StartScheduler() {
	interval := a.Config.Market.GetCollectInterval()
	if a.MarketService == nil || interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go startBenchmarkScheduler(ctx, a.MarketService, a.Logger, interval)
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
