package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/carteira/internal/models"
)

// collectRun accumulates counts from concurrent fetches.
type collectRun struct {
	mu     sync.Mutex
	result *models.CollectResult
}

func (r *collectRun) fail(msg string) {
	r.mu.Lock()
	r.result.Failures = append(r.result.Failures, msg)
	r.mu.Unlock()
}

func (r *collectRun) stored(n int, benchmark bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Records += n
	if benchmark {
		r.result.Benchmarks++
	} else {
		r.result.Tickers++
	}
}

// monthsToCover returns the months between the earliest purchase and today,
// inclusive of both, never less than DefaultCollectMonths.
func monthsToCover(purchases []models.Purchase, today time.Time) int {
	var earliest time.Time
	for _, p := range purchases {
		if p.TradeDate.IsZero() {
			continue
		}
		if earliest.IsZero() || p.TradeDate.Before(earliest) {
			earliest = p.TradeDate
		}
	}
	if earliest.IsZero() || earliest.After(today) {
		return DefaultCollectMonths
	}
	diff := (today.Year()-earliest.Year())*12 + int(today.Month()) - int(earliest.Month())
	return max(DefaultCollectMonths, diff+1)
}

// Collect fetches and stores the price history of every ticker the user holds,
// then the benchmarks. A failing ticker or benchmark is reported in Failures
// and does not stop the others. months <= 0 derives the window from the
// earliest purchase.
func (s *Service) Collect(ctx context.Context, userID string, months int) (*models.CollectResult, error) {
	start := time.Now()

	purchases, err := s.purchases.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}

	today := s.today()
	if months <= 0 {
		months = monthsToCover(purchases, today)
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, p := range purchases {
		t := strings.ToUpper(strings.TrimSpace(p.Ticker))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	run := &collectRun{result: &models.CollectResult{Months: months, Failures: []string{}}}
	s.collect(ctx, run, tickers, s.benchmarks, months, today)

	s.logger.Info().
		Str("user", userID).
		Int("tickers", run.result.Tickers).
		Int("benchmarks", run.result.Benchmarks).
		Int("records", run.result.Records).
		Int("failures", len(run.result.Failures)).
		Dur("elapsed", time.Since(start)).
		Msg("Market data collection complete")

	return run.result, nil
}

// CollectBenchmarks fetches and stores the configured benchmarks only.
func (s *Service) CollectBenchmarks(ctx context.Context, months int) (*models.CollectResult, error) {
	if months <= 0 {
		months = 1
	}
	run := &collectRun{result: &models.CollectResult{Months: months, Failures: []string{}}}
	s.collect(ctx, run, nil, s.benchmarks, months, s.today())
	return run.result, nil
}

func (s *Service) collect(ctx context.Context, run *collectRun, tickers []string, benchmarks []models.Benchmark, months int, today time.Time) {
	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)

	for _, ticker := range tickers {
		g.Go(func() error {
			records, err := s.remote.GetPriceHistory(ctx, ticker, months)
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Collect: price fetch failed")
				run.fail(fmt.Sprintf("%s: fetch failed", ticker))
				return nil
			}
			if err := s.store.SavePriceHistory(ctx, ticker, records); err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Collect: price save failed")
				run.fail(fmt.Sprintf("%s: save failed", ticker))
				return nil
			}
			run.stored(len(records), false)
			return nil
		})
	}

	from := today.AddDate(0, -months, 0)
	for _, b := range benchmarks {
		g.Go(func() error {
			records, err := s.remote.GetBenchmarkHistory(ctx, b, from, today)
			if err != nil {
				s.logger.Warn().Err(err).Str("benchmark", b.Code).Msg("Collect: benchmark fetch failed")
				run.fail(fmt.Sprintf("%s: fetch failed", b.Code))
				return nil
			}
			if err := s.store.SaveBenchmarkHistory(ctx, b, records); err != nil {
				s.logger.Warn().Err(err).Str("benchmark", b.Code).Msg("Collect: benchmark save failed")
				run.fail(fmt.Sprintf("%s: save failed", b.Code))
				return nil
			}
			run.stored(len(records), true)
			return nil
		})
	}

	_ = g.Wait()
	sort.Strings(run.result.Failures)
}
