package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
)

type stubPurchases struct {
	items []models.Purchase
	err   error
}

func (s *stubPurchases) ListPurchases(context.Context, string) ([]models.Purchase, error) {
	return s.items, s.err
}

func (s *stubPurchases) GetPurchase(context.Context, string, string) (*models.Purchase, error) {
	return nil, models.ErrPurchaseNotFound
}

func (s *stubPurchases) SavePurchase(context.Context, *models.Purchase) error { return nil }

func (s *stubPurchases) DeletePurchase(context.Context, string, string) error { return nil }

type stubRemote struct {
	mu         sync.Mutex
	months     map[string]int
	failTicker string
	failBench  string
	benchFrom  time.Time
	benchTo    time.Time
}

func (r *stubRemote) GetPriceHistory(_ context.Context, ticker string, months int) ([]models.PriceRecord, error) {
	r.mu.Lock()
	r.months[ticker] = months
	r.mu.Unlock()
	if ticker == r.failTicker {
		return nil, errors.New("upstream 502")
	}
	return []models.PriceRecord{
		models.NewPriceRecord(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), 10, 0),
		models.NewPriceRecord(time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), 11, 0),
	}, nil
}

func (r *stubRemote) GetBenchmarkHistory(_ context.Context, b models.Benchmark, from, to time.Time) ([]models.BenchmarkRecord, error) {
	r.mu.Lock()
	r.benchFrom, r.benchTo = from, to
	r.mu.Unlock()
	if b.Code == r.failBench {
		return nil, errors.New("timeout")
	}
	return []models.BenchmarkRecord{models.NewBenchmarkRecord(to, 100)}, nil
}

type memMarketStore struct {
	mu         sync.Mutex
	prices     map[string][]models.PriceRecord
	benchmarks map[string][]models.BenchmarkRecord
}

func newMemMarketStore() *memMarketStore {
	return &memMarketStore{
		prices:     map[string][]models.PriceRecord{},
		benchmarks: map[string][]models.BenchmarkRecord{},
	}
}

func (m *memMarketStore) GetPriceHistory(_ context.Context, ticker string, _, _ time.Time) ([]models.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prices[ticker], nil
}

func (m *memMarketStore) SavePriceHistory(_ context.Context, ticker string, recs []models.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[ticker] = recs
	return nil
}

func (m *memMarketStore) GetBenchmarkHistory(_ context.Context, b models.Benchmark, _, _ time.Time) ([]models.BenchmarkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.benchmarks[b.Code], nil
}

func (m *memMarketStore) SaveBenchmarkHistory(_ context.Context, b models.Benchmark, recs []models.BenchmarkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.benchmarks[b.Code] = recs
	return nil
}

var testToday = time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

func newTestService(purchases *stubPurchases, remote *stubRemote, store *memMarketStore) *Service {
	svc := NewService(purchases, remote, store,
		[]models.Benchmark{models.BenchmarkIBOV, models.BenchmarkCDI}, nil, 2, common.NewSilentLogger())
	svc.now = func() time.Time { return testToday }
	return svc
}

func purchase(ticker string, y int, m time.Month, d int) models.Purchase {
	return models.Purchase{Ticker: ticker, Type: models.ClassStock, Quantity: 1, Price: 10, TradeDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestCollect_StoresTickersAndBenchmarks(t *testing.T) {
	purchases := &stubPurchases{items: []models.Purchase{
		purchase("petr4", 2023, 3, 1),
		purchase("PETR4", 2024, 1, 5),
		purchase("VALE3", 2024, 2, 1),
	}}
	remote := &stubRemote{months: map[string]int{}}
	store := newMemMarketStore()

	res, err := newTestService(purchases, remote, store).Collect(context.Background(), "alice", 0)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Tickers, "duplicates collapse after upper-casing")
	assert.Equal(t, 2, res.Benchmarks)
	assert.Equal(t, 2*2+2*1, res.Records)
	assert.Empty(t, res.Failures)

	// March 2023 through June 2024 is 16 calendar months
	assert.Equal(t, 16, res.Months)
	assert.Equal(t, 16, remote.months["PETR4"])

	assert.Len(t, store.prices["PETR4"], 2)
	assert.Len(t, store.benchmarks["CDI"], 1)
	assert.Equal(t, "2023-02-12", models.FormatDate(remote.benchFrom))
	assert.Equal(t, "2024-06-12", models.FormatDate(remote.benchTo))
}

func TestCollect_FailuresDoNotStopOthers(t *testing.T) {
	purchases := &stubPurchases{items: []models.Purchase{purchase("PETR4", 2024, 1, 5), purchase("VALE3", 2024, 2, 1)}}
	remote := &stubRemote{months: map[string]int{}, failTicker: "VALE3", failBench: "IBOV"}
	store := newMemMarketStore()

	res, err := newTestService(purchases, remote, store).Collect(context.Background(), "alice", 3)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Months)
	assert.Equal(t, 1, res.Tickers)
	assert.Equal(t, 1, res.Benchmarks)
	assert.Equal(t, []string{"IBOV: fetch failed", "VALE3: fetch failed"}, res.Failures)
	assert.Contains(t, store.prices, "PETR4")
	assert.NotContains(t, store.prices, "VALE3")
}

func TestCollect_PurchaseLoadError(t *testing.T) {
	purchases := &stubPurchases{err: errors.New("db down")}
	_, err := newTestService(purchases, &stubRemote{months: map[string]int{}}, newMemMarketStore()).Collect(context.Background(), "alice", 0)
	assert.Error(t, err)
}

func TestCollect_NoPurchasesUsesDefaultWindow(t *testing.T) {
	remote := &stubRemote{months: map[string]int{}}
	res, err := newTestService(&stubPurchases{}, remote, newMemMarketStore()).Collect(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollectMonths, res.Months)
	assert.Equal(t, 0, res.Tickers)
	assert.Equal(t, 2, res.Benchmarks)
}

func TestCollectBenchmarks(t *testing.T) {
	remote := &stubRemote{months: map[string]int{}}
	store := newMemMarketStore()

	res, err := newTestService(&stubPurchases{}, remote, store).CollectBenchmarks(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Months)
	assert.Equal(t, 2, res.Benchmarks)
	assert.Empty(t, remote.months, "no ticker fetched")
	assert.Equal(t, "2024-05-12", models.FormatDate(remote.benchFrom))
}

func TestBenchmarksFromConfig(t *testing.T) {
	got := BenchmarksFromConfig(common.BenchmarksConfig{Stock: "IBOV", ETF: "sp500", FII: "NASDAQ", Total: "ibov"})
	require.Len(t, got, 2)
	assert.Equal(t, "IBOV", got[0].Code)
	assert.Equal(t, "SP500", got[1].Code)
}

func TestCollectBenchmarks_WindowEndsTodayInLocation(t *testing.T) {
	remote := &stubRemote{months: map[string]int{}}
	svc := NewService(&stubPurchases{}, remote, newMemMarketStore(),
		[]models.Benchmark{models.BenchmarkIFIX}, time.FixedZone("BRT", -3*60*60), 1, common.NewSilentLogger())
	// 02:00 UTC on the 13th is the 12th in Sao Paulo
	svc.now = func() time.Time { return time.Date(2024, 6, 13, 2, 0, 0, 0, time.UTC) }

	_, err := svc.CollectBenchmarks(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", models.FormatDate(remote.benchTo))
	assert.Equal(t, "2024-05-12", models.FormatDate(remote.benchFrom))
}
