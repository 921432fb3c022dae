package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/carteira/internal/clients/marketdata"
	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/storage"
)

type memPurchaseStore struct {
	items map[string]models.Purchase
}

func (m *memPurchaseStore) ListPurchases(_ context.Context, userID string) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range m.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPurchaseStore) GetPurchase(_ context.Context, userID, id string) (*models.Purchase, error) {
	p, ok := m.items[id]
	if !ok || p.UserID != userID {
		return nil, models.ErrPurchaseNotFound
	}
	return &p, nil
}

func (m *memPurchaseStore) SavePurchase(_ context.Context, p *models.Purchase) error {
	m.items[p.ID] = *p
	return nil
}

func (m *memPurchaseStore) DeletePurchase(_ context.Context, userID, id string) error {
	if _, err := m.GetPurchase(context.Background(), userID, id); err != nil {
		return err
	}
	delete(m.items, id)
	return nil
}

type emptyMarketStore struct{}

func (emptyMarketStore) GetPriceHistory(context.Context, string, time.Time, time.Time) ([]models.PriceRecord, error) {
	return nil, nil
}

func (emptyMarketStore) SavePriceHistory(context.Context, string, []models.PriceRecord) error {
	return nil
}

func (emptyMarketStore) GetBenchmarkHistory(context.Context, models.Benchmark, time.Time, time.Time) ([]models.BenchmarkRecord, error) {
	return nil, nil
}

func (emptyMarketStore) SaveBenchmarkHistory(context.Context, models.Benchmark, []models.BenchmarkRecord) error {
	return nil
}

type fakeStorage struct {
	purchases *memPurchaseStore
	closed    bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{purchases: &memPurchaseStore{items: map[string]models.Purchase{}}}
}

func (f *fakeStorage) PurchaseStore() interfaces.PurchaseStore { return f.purchases }
func (f *fakeStorage) MarketDataStore() interfaces.MarketDataStore { return emptyMarketStore{} }
func (f *fakeStorage) Driver() string { return "fake" }
func (f *fakeStorage) Close() error {
	f.closed = true
	return nil
}

func TestNewApp_WiresServices(t *testing.T) {
	cfg := common.NewDefaultConfig()
	a := newApp(cfg, common.NewSilentLogger(), newFakeStorage())

	require.NotNil(t, a.PerformanceService)
	require.NotNil(t, a.PurchaseService)
	require.NotNil(t, a.PositionCache)
	assert.IsType(t, &storage.StoreMarketSource{}, a.MarketSource)
	assert.Nil(t, a.MarketService, "no collector without base_url")
	assert.False(t, a.StartupTime.IsZero())
}

func TestNewApp_HTTPMarketSource(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Market.Source = "http"
	cfg.Market.BaseURL = "http://localhost:9999"

	a := newApp(cfg, common.NewSilentLogger(), newFakeStorage())
	assert.IsType(t, &marketdata.Client{}, a.MarketSource)
	assert.NotNil(t, a.MarketService)
}

func TestNewApp_HTTPSourceWithoutURLFallsBack(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Market.Source = "http"

	a := newApp(cfg, common.NewSilentLogger(), newFakeStorage())
	assert.IsType(t, &storage.StoreMarketSource{}, a.MarketSource)
}

func TestNewApp_PurchaseInvalidatesSharedCache(t *testing.T) {
	cfg := common.NewDefaultConfig()
	a := newApp(cfg, common.NewSilentLogger(), newFakeStorage())
	ctx := context.Background()

	_, err := a.PerformanceService.GetPerformanceHistory(ctx, "alice", models.HistoryOptions{})
	require.NoError(t, err)

	_, gen, _ := a.PositionCache.Get("alice")
	require.True(t, a.PositionCache.Set("alice", gen, []models.Position{{Ticker: "STALE"}}))

	_, err = a.PurchaseService.CreatePurchase(ctx, "alice", models.Purchase{
		Ticker:    "petr4",
		Type:      models.ClassStock,
		Quantity:  10,
		Price:     30,
		TradeDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, _, ok := a.PositionCache.Get("alice")
	assert.False(t, ok, "create must drop the cached positions")
}

func TestClose_ClosesStorage(t *testing.T) {
	fs := newFakeStorage()
	a := newApp(common.NewDefaultConfig(), common.NewSilentLogger(), fs)

	a.Close()
	assert.True(t, fs.closed)
	assert.Nil(t, a.Storage)

	a.Close()
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CARTEIRA_CONFIG", "")

	assert.Equal(t, "explicit.toml", resolveConfigPath("explicit.toml", t.TempDir()))

	t.Setenv("CARTEIRA_CONFIG", "/etc/carteira.toml")
	assert.Equal(t, "/etc/carteira.toml", resolveConfigPath("", t.TempDir()))

	t.Setenv("CARTEIRA_CONFIG", "")
	dir := t.TempDir()
	assert.Equal(t, "config/carteira.toml", resolveConfigPath("", dir))

	local := filepath.Join(dir, "carteira.toml")
	require.NoError(t, os.WriteFile(local, []byte("[server]\nport = 9000\n"), 0644))
	assert.Equal(t, local, resolveConfigPath("", dir))
}
