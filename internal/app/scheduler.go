package app

import (
	"context"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
)

// startBenchmarkScheduler refreshes stored benchmark history on a fixed interval.
// Tickers are user-scoped and collected on demand; benchmarks are shared.
func startBenchmarkScheduler(ctx context.Context, marketService interfaces.MarketService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Benchmark scheduler: stopped")
			return
		case <-ticker.C:
			refreshBenchmarks(ctx, marketService, logger)
		}
	}
}

func refreshBenchmarks(ctx context.Context, marketService interfaces.MarketService, logger *common.Logger) {
	start := time.Now()

	result, err := marketService.CollectBenchmarks(ctx, 1)
	if err != nil {
		logger.Warn().Err(err).Msg("Benchmark refresh failed")
		return
	}

	logger.Info().
		Int("benchmarks", result.Benchmarks).
		Int("records", result.Records).
		Strs("failures", result.Failures).
		Dur("elapsed", time.Since(start)).
		Msg("Benchmark refresh: complete")
}
