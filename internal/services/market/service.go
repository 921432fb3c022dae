// Package market copies price and benchmark history from the remote
// market-data service into storage so the performance engine can read it
// locally.
package market

import (
	"strings"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

// DefaultCollectMonths is the window used when nothing is held yet.
const DefaultCollectMonths = 6

// Service implements MarketService
type Service struct {
	purchases     interfaces.PurchaseStore
	remote        interfaces.MarketDataSource
	store         interfaces.MarketDataStore
	benchmarks    []models.Benchmark
	location      *time.Location
	maxConcurrent int
	now           func() time.Time
	logger        *common.Logger
}

// NewService creates a new market collection service
func NewService(
	purchases interfaces.PurchaseStore,
	remote interfaces.MarketDataSource,
	store interfaces.MarketDataStore,
	benchmarks []models.Benchmark,
	location *time.Location,
	maxConcurrent int,
	logger *common.Logger,
) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		purchases:     purchases,
		remote:        remote,
		store:         store,
		benchmarks:    benchmarks,
		location:      location,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
		logger:        logger,
	}
}

// BenchmarksFromConfig returns the distinct benchmarks named in the config,
// skipping unknown codes.
func BenchmarksFromConfig(cfg common.BenchmarksConfig) []models.Benchmark {
	var out []models.Benchmark
	seen := make(map[string]bool)
	for _, code := range []string{cfg.Stock, cfg.ETF, cfg.FII, cfg.Total} {
		b, ok := models.LookupBenchmark(strings.TrimSpace(code))
		if !ok || seen[b.Code] {
			continue
		}
		seen[b.Code] = true
		out = append(out, b)
	}
	return out
}

// today is the current calendar day in the configured timezone.
func (s *Service) today() time.Time {
	return models.Day(s.now().In(s.location))
}

// Compile-time check
var _ interfaces.MarketService = (*Service)(nil)
