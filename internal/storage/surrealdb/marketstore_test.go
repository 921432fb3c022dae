package surrealdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/carteira/internal/models"
)

func TestMarketStore_PriceHistoryRoundTrip(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger())
	ctx := context.Background()

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	records := []models.PriceRecord{
		models.NewPriceRecord(start, 10, 0),
		{Date: start.AddDate(0, 0, 1)},
		models.NewPriceRecord(start.AddDate(0, 0, 2), 11, 0.15),
		models.NewPriceRecord(start.AddDate(0, 0, 10), 12, 0),
	}
	require.NoError(t, store.SavePriceHistory(ctx, "MXRF11", records))
	require.NoError(t, store.SavePriceHistory(ctx, "OTHER11", records[:1]))

	got, err := store.GetPriceHistory(ctx, "MXRF11", start, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 10.0, got[0].Price)
	assert.True(t, got[0].HasPrice())
	assert.False(t, got[1].HasPrice(), "missing close must stay missing")
	assert.Equal(t, 0.15, got[2].Dividend)
}

func TestMarketStore_PriceHistoryUpsert(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger())
	ctx := context.Background()

	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SavePriceHistory(ctx, "PETR4", []models.PriceRecord{models.NewPriceRecord(d, 30, 0)}))
	require.NoError(t, store.SavePriceHistory(ctx, "PETR4", []models.PriceRecord{models.NewPriceRecord(d, 31, 0)}))

	got, err := store.GetPriceHistory(ctx, "PETR4", d, d)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 31.0, got[0].Price)
}

func TestMarketStore_BenchmarkHistory(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger())
	ctx := context.Background()

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveBenchmarkHistory(ctx, models.BenchmarkCDI, []models.BenchmarkRecord{
		models.NewBenchmarkRecord(start.AddDate(0, 0, 1), 0.0401),
		models.NewBenchmarkRecord(start, 0.04),
	}))
	require.NoError(t, store.SaveBenchmarkHistory(ctx, models.BenchmarkIFIX, []models.BenchmarkRecord{
		models.NewBenchmarkRecord(start, 3300),
	}))

	got, err := store.GetBenchmarkHistory(ctx, models.BenchmarkCDI, start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.04, got[0].Value)
	assert.Equal(t, 0.0401, got[1].Value)
	assert.True(t, got[1].Valid)
}

func TestManager_Accessors(t *testing.T) {
	db := testDB(t)
	m := newManager(db, testLogger())

	assert.Equal(t, "surrealdb", m.Driver())
	assert.NotNil(t, m.PurchaseStore())
	assert.NotNil(t, m.MarketDataStore())
}
