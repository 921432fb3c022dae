package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/bobmcallan/carteira/internal/models"
)

// DefaultJumpThreshold is the relative day-over-day change above which a
// price move is reported as a probable data error.
const DefaultJumpThreshold = 0.30

// AnomalyDetector scans a single series for staleness and implausible jumps.
// It never fails; findings are returned as human-readable warnings.
type AnomalyDetector struct {
	jumpThreshold float64
}

// NewAnomalyDetector creates a detector; a non-positive threshold uses the default.
func NewAnomalyDetector(jumpThreshold float64) *AnomalyDetector {
	if jumpThreshold <= 0 {
		jumpThreshold = DefaultJumpThreshold
	}
	return &AnomalyDetector{jumpThreshold: jumpThreshold}
}

type observation struct {
	date  time.Time
	value float64
	valid bool
}

// DetectPrices checks an asset price history.
func (d *AnomalyDetector) DetectPrices(name string, records []models.PriceRecord, today time.Time) []string {
	obs := make([]observation, len(records))
	for i, r := range records {
		obs[i] = observation{date: r.Date, value: r.Price, valid: r.HasPrice()}
	}
	return d.detect(name, obs, today)
}

// DetectBenchmark checks a benchmark history. Rate series get the same jump
// check as index levels so unit errors in an import are reported.
func (d *AnomalyDetector) DetectBenchmark(name string, records []models.BenchmarkRecord, today time.Time) []string {
	obs := make([]observation, len(records))
	for i, r := range records {
		obs[i] = observation{date: r.Date, value: r.Value, valid: r.Valid}
	}
	return d.detect(name, obs, today)
}

func (d *AnomalyDetector) detect(name string, obs []observation, today time.Time) []string {
	if len(obs) == 0 {
		return []string{fmt.Sprintf("no history for %s", name)}
	}

	var warnings []string

	last := obs[len(obs)-1].date
	gap := models.DaysBetween(last, today)
	if gap > stalenessTolerance(today.Weekday()) {
		warnings = append(warnings, fmt.Sprintf("%s: stale data, %d days since last update on %s",
			name, gap, models.FormatDate(last)))
	}

	for i := 1; i < len(obs); i++ {
		prev, curr := obs[i-1], obs[i]
		if !usable(prev) || !usable(curr) {
			continue
		}
		change := math.Abs(curr.value-prev.value) / prev.value
		if change <= d.jumpThreshold {
			continue
		}
		tag := "ALTA"
		if curr.value < prev.value {
			tag = "QUEDA"
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s of %.1f%% on %s (%.2f -> %.2f)",
			name, tag, change*100, models.FormatDate(curr.date), prev.value, curr.value))
	}

	return warnings
}

func usable(o observation) bool {
	return o.valid && o.value > 0 && !math.IsNaN(o.value) && !math.IsInf(o.value, 0)
}

// stalenessTolerance is the number of calendar days a series may lag behind
// today. Exchanges do not publish on weekends.
func stalenessTolerance(today time.Weekday) int {
	switch today {
	case time.Monday:
		return 3
	case time.Sunday:
		return 2
	default:
		return 1
	}
}
