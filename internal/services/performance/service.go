// Package performance reconciles price histories into portfolio performance curves
package performance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

// Service implements PerformanceService
type Service struct {
	store         interfaces.PurchaseStore
	market        interfaces.MarketDataSource
	cache         *PositionCache
	detector      *AnomalyDetector
	benchmarks    map[models.AssetClass]models.Benchmark
	overall       models.Benchmark
	minMonths     int
	maxConcurrent int
	fetchTimeout  time.Duration
	location      *time.Location
	now           func() time.Time
	logger        *common.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the wall clock used to determine "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new performance service
func NewService(
	store interfaces.PurchaseStore,
	market interfaces.MarketDataSource,
	cache *PositionCache,
	cfg common.PerformanceConfig,
	logger *common.Logger,
	opts ...Option,
) *Service {
	if cache == nil {
		cache = NewPositionCache()
	}
	s := &Service{
		store:         store,
		market:        market,
		cache:         cache,
		detector:      NewAnomalyDetector(cfg.JumpThreshold),
		minMonths:     cfg.MinMonths,
		maxConcurrent: cfg.MaxConcurrentFetches,
		fetchTimeout:  cfg.GetFetchTimeout(),
		location:      cfg.GetLocation(),
		now:           time.Now,
		logger:        logger,
	}
	if s.maxConcurrent <= 0 {
		s.maxConcurrent = 8
	}

	s.benchmarks = map[models.AssetClass]models.Benchmark{
		models.ClassStock: s.resolveBenchmark(cfg.Benchmarks.Stock, models.BenchmarkIBOV),
		models.ClassETF:   s.resolveBenchmark(cfg.Benchmarks.ETF, models.BenchmarkSP500),
		models.ClassFII:   s.resolveBenchmark(cfg.Benchmarks.FII, models.BenchmarkIFIX),
	}
	s.overall = s.resolveBenchmark(cfg.Benchmarks.Total, models.BenchmarkCDI)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) resolveBenchmark(code string, fallback models.Benchmark) models.Benchmark {
	if code == "" {
		return fallback
	}
	b, ok := models.LookupBenchmark(code)
	if !ok {
		s.logger.Warn().Str("code", code).Str("fallback", fallback.Code).Msg("Unknown benchmark code, using default")
		return fallback
	}
	return b
}

// BenchmarkFor returns the benchmark a class is compared against.
func (s *Service) BenchmarkFor(class models.AssetClass) models.Benchmark {
	return s.benchmarks[class]
}

// today is the current calendar day in the configured timezone.
func (s *Service) today() time.Time {
	return models.Day(s.now().In(s.location))
}

// loadPositions returns the user's positions, from cache when present. A
// load that overlaps a purchase mutation is returned but not cached.
func (s *Service) loadPositions(ctx context.Context, userID string) ([]models.Position, error) {
	positions, gen, ok := s.cache.Get(userID)
	if ok {
		return positions, nil
	}

	purchases, err := s.store.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}

	positions = make([]models.Position, 0, len(purchases))
	for _, p := range purchases {
		positions = append(positions, p.Position())
	}
	if !s.cache.Set(userID, gen, positions) {
		s.logger.Debug().Str("user", userID).Msg("Positions changed during load, not cached")
	}
	return positions, nil
}

// fetchSet is the result of one parallel fan-out. Warnings are stored per
// source and assembled in request order so output does not depend on
// goroutine scheduling.
type fetchSet struct {
	mu         sync.Mutex
	prices     map[string][]models.PriceRecord
	benchmarks map[string][]models.BenchmarkRecord
	warnings   map[string][]string
}

func (f *fetchSet) addWarnings(key string, w ...string) {
	if len(w) == 0 {
		return
	}
	f.mu.Lock()
	f.warnings[key] = append(f.warnings[key], w...)
	f.mu.Unlock()
}

type fetchRequest struct {
	tickers    []string
	names      map[string]string
	benchmarks []models.Benchmark
	months     int
	from       time.Time
	today      time.Time
}

// fetchAll loads every price and benchmark history concurrently. A failed
// source becomes a warning and an absent entry; it never fails the batch.
func (s *Service) fetchAll(ctx context.Context, req fetchRequest) *fetchSet {
	set := &fetchSet{
		prices:     make(map[string][]models.PriceRecord),
		benchmarks: make(map[string][]models.BenchmarkRecord),
		warnings:   make(map[string][]string),
	}

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)

	for _, ticker := range req.tickers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			records, err := s.market.GetPriceHistory(fctx, ticker, req.months)
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price history fetch failed")
				set.addWarnings("p:"+ticker, fmt.Sprintf("history unavailable for %s", req.names[ticker]))
				return nil
			}

			set.mu.Lock()
			set.prices[ticker] = records
			set.mu.Unlock()

			set.addWarnings("p:"+ticker, s.safeDetect(func() []string {
				return s.detector.DetectPrices(req.names[ticker], records, req.today)
			})...)
			return nil
		})
	}

	for _, b := range req.benchmarks {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			records, err := s.market.GetBenchmarkHistory(fctx, b, req.from, req.today)
			if err != nil {
				s.logger.Warn().Err(err).Str("benchmark", b.Code).Msg("Benchmark history fetch failed")
				set.addWarnings("b:"+b.Code, fmt.Sprintf("history unavailable for benchmark %s", b.Name))
				return nil
			}

			set.mu.Lock()
			set.benchmarks[b.Code] = records
			set.mu.Unlock()

			set.addWarnings("b:"+b.Code, s.safeDetect(func() []string {
				return s.detector.DetectBenchmark("Benchmark ("+b.Name+")", records, req.today)
			})...)
			return nil
		})
	}

	_ = g.Wait()
	return set
}

// safeDetect runs a detector and turns a panic into no findings.
func (s *Service) safeDetect(fn func() []string) (warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Anomaly detection failed")
			warnings = nil
		}
	}()
	return fn()
}

// collectWarnings returns warnings in request order with duplicates removed.
func (f *fetchSet) collectWarnings(req fetchRequest, extra []string) []string {
	var ordered []string
	ordered = append(ordered, extra...)
	for _, t := range req.tickers {
		ordered = append(ordered, f.warnings["p:"+t]...)
	}
	for _, b := range req.benchmarks {
		ordered = append(ordered, f.warnings["b:"+b.Code]...)
	}
	return dedupe(ordered)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func earliestPurchase(positions []models.Position) time.Time {
	var earliest time.Time
	for _, p := range positions {
		if earliest.IsZero() || p.PurchaseDate.Before(earliest) {
			earliest = p.PurchaseDate
		}
	}
	return earliest
}

// uniqueTickers returns sorted tickers and their display names.
func uniqueTickers(positions []models.Position) ([]string, map[string]string) {
	names := make(map[string]string)
	for _, p := range positions {
		if _, ok := names[p.Ticker]; !ok {
			names[p.Ticker] = p.DisplayName()
		}
	}
	tickers := make([]string, 0, len(names))
	for t := range names {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, names
}

// GetPerformanceHistory builds per-class curves against their class
// benchmarks and the combined curve against the overall benchmark.
func (s *Service) GetPerformanceHistory(ctx context.Context, userID string, opts models.HistoryOptions) (*models.PerformanceHistory, error) {
	start := time.Now()

	positions, err := s.loadPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	history := &models.PerformanceHistory{
		Stock:      []models.DailyPoint{},
		ETF:        []models.DailyPoint{},
		FII:        []models.DailyPoint{},
		Total:      []models.DailyPoint{},
		Benchmarks: make(map[string]string),
		Warnings:   []string{},
		Interval:   normalizeInterval(opts.Interval),
	}
	for _, c := range models.AssetClasses {
		history.Benchmarks[string(c)] = s.benchmarks[c].Code
	}
	history.Benchmarks["total"] = s.overall.Code

	if len(positions) == 0 {
		history.Months = resolveMonths(opts.Months, HistoryMonths(time.Time{}, today, s.minMonths))
		return history, nil
	}

	var unknown []string
	byClass := make(map[models.AssetClass][]models.Position)
	for _, p := range positions {
		class, ok := models.ParseAssetClass(string(p.Class))
		if !ok {
			unknown = append(unknown, fmt.Sprintf("unknown asset type %q for %s", p.Class, p.Ticker))
			continue
		}
		byClass[class] = append(byClass[class], p)
	}

	known := make([]models.Position, 0, len(positions))
	var benchmarks []models.Benchmark
	for _, c := range models.AssetClasses {
		if len(byClass[c]) == 0 {
			continue
		}
		known = append(known, byClass[c]...)
		benchmarks = appendBenchmark(benchmarks, s.benchmarks[c])
	}
	benchmarks = appendBenchmark(benchmarks, s.overall)

	months := resolveMonths(opts.Months, HistoryMonths(earliestPurchase(known), today, s.minMonths))
	history.Months = months

	tickers, names := uniqueTickers(known)
	req := fetchRequest{
		tickers:    tickers,
		names:      names,
		benchmarks: benchmarks,
		months:     months,
		from:       today.AddDate(0, -months, 0),
		today:      today,
	}
	set := s.fetchAll(ctx, req)

	s.logger.Debug().
		Int("tickers", len(tickers)).
		Int("benchmarks", len(benchmarks)).
		Dur("elapsed", time.Since(start)).
		Msg("Performance history: sources fetched")

	var classCurves [][]models.DailyPoint
	for _, c := range models.AssetClasses {
		if len(byClass[c]) == 0 {
			continue
		}
		curve := truncateAfter(BuildClassSeries(byClass[c], set.prices), today)
		classCurves = append(classCurves, curve)

		b := s.benchmarks[c]
		history.SetClass(c, roundMoney(Downsample(ComputeBenchmarkCurve(curve, set.benchmarks[b.Code], b.IsRate), history.Interval)))
	}

	total := CombineHistories(classCurves...)
	history.Total = roundMoney(Downsample(ComputeBenchmarkCurve(total, set.benchmarks[s.overall.Code], s.overall.IsRate), history.Interval))
	history.Warnings = set.collectWarnings(req, unknown)

	s.logger.Info().
		Str("user", userID).
		Int("positions", len(positions)).
		Int("months", months).
		Int("points", len(history.Total)).
		Int("warnings", len(history.Warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("Performance history computed")

	return history, nil
}

func appendBenchmark(list []models.Benchmark, b models.Benchmark) []models.Benchmark {
	for _, existing := range list {
		if existing.Code == b.Code {
			return list
		}
	}
	return append(list, b)
}

func normalizeInterval(interval string) string {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case models.IntervalWeekly:
		return models.IntervalWeekly
	case models.IntervalMonthly:
		return models.IntervalMonthly
	default:
		return models.IntervalDaily
	}
}

// GetAssetHistory returns the curve of one held ticker (all of its
// purchases) against its class benchmark.
func (s *Service) GetAssetHistory(ctx context.Context, userID, ticker string, months int) (*models.AssetHistory, error) {
	positions, err := s.loadPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	var held []models.Position
	for _, p := range positions {
		if strings.EqualFold(p.Ticker, ticker) {
			held = append(held, p)
		}
	}
	if len(held) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrPositionNotFound)
	}

	class, ok := models.ParseAssetClass(string(held[0].Class))
	if !ok {
		return nil, fmt.Errorf("%s has unknown asset type %q: %w", ticker, held[0].Class, models.ErrPositionNotFound)
	}
	b := s.benchmarks[class]

	today := s.today()
	resolved := resolveMonths(months, HistoryMonths(earliestPurchase(held), today, s.minMonths))

	tickers, names := uniqueTickers(held)
	req := fetchRequest{
		tickers:    tickers,
		names:      names,
		benchmarks: []models.Benchmark{b},
		months:     resolved,
		from:       today.AddDate(0, -resolved, 0),
		today:      today,
	}
	set := s.fetchAll(ctx, req)

	curve := truncateAfter(BuildClassSeries(held, set.prices), today)

	return &models.AssetHistory{
		Ticker:    held[0].Ticker,
		Class:     class,
		Benchmark: b.Code,
		Points:    roundMoney(ComputeBenchmarkCurve(curve, set.benchmarks[b.Code], b.IsRate)),
		Warnings:  set.collectWarnings(req, nil),
		Months:    resolved,
	}, nil
}

// RenderChart renders one series of the performance history as a PNG.
func (s *Service) RenderChart(ctx context.Context, userID, series string, months int) ([]byte, error) {
	positions, err := s.loadPositions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, models.ErrNoPositions
	}

	history, err := s.GetPerformanceHistory(ctx, userID, models.HistoryOptions{Months: months})
	if err != nil {
		return nil, err
	}

	series = strings.ToLower(strings.TrimSpace(series))
	var points []models.DailyPoint
	var bench models.Benchmark
	switch series {
	case "", "total":
		series = "total"
		points, bench = history.Total, s.overall
	default:
		class, ok := models.ParseAssetClass(series)
		if !ok {
			return nil, fmt.Errorf("%q: %w", series, models.ErrUnknownSeries)
		}
		points, bench = history.Class(class), s.benchmarks[class]
	}

	if len(points) < 2 {
		return nil, fmt.Errorf("%s series has %d points: %w", series, len(points), models.ErrNotEnoughData)
	}

	return RenderPerformanceChart(fmt.Sprintf("Performance (%s)", series), bench.Name, points)
}
