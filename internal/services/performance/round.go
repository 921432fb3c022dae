package performance

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/carteira/internal/models"
)

// round2 rounds a money value to cents, half away from zero.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// roundMoney rounds the portfolio and invested values of an output curve to
// cents. Benchmark values are already rounded by ComputeBenchmarkCurve.
func roundMoney(points []models.DailyPoint) []models.DailyPoint {
	for i := range points {
		points[i].PortfolioValue = round2(points[i].PortfolioValue)
		points[i].InvestedAmount = round2(points[i].InvestedAmount)
	}
	return points
}
