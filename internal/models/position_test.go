package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssetClass(t *testing.T) {
	c, ok := ParseAssetClass(" FII ")
	assert.True(t, ok)
	assert.Equal(t, ClassFII, c)

	_, ok = ParseAssetClass("crypto")
	assert.False(t, ok)
}

func TestPurchase_JSONDateOnly(t *testing.T) {
	p := Purchase{
		ID:        "p1",
		Ticker:    "PETR4",
		Type:      ClassStock,
		Quantity:  10,
		Price:     35.2,
		TradeDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trade_date":"2024-01-15"`)

	var back Purchase
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p.TradeDate, back.TradeDate)
	assert.Equal(t, p.Quantity, back.Quantity)
}

func TestPurchase_UnmarshalBadDate(t *testing.T) {
	var p Purchase
	require.NoError(t, json.Unmarshal([]byte(`{"ticker":"X","trade_date":"15/01/2024"}`), &p))
	assert.True(t, p.TradeDate.IsZero())
}

func TestDay_NormalizesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	late := time.Date(2024, 5, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), Day(late))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
}

func TestDailyPoint_MarshalJSON(t *testing.T) {
	raw := 3.5
	p := DailyPoint{
		Date:           time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		PortfolioValue: 100,
		InvestedAmount: 90,
		BenchmarkValue: 95,
		BenchmarkRaw:   &raw,
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-02","portfolio_value":100,"invested_amount":90,"benchmark_value":95,"benchmark_raw":3.5}`, string(data))
}
