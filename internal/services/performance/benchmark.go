package performance

import (
	"sort"
	"time"

	"github.com/bobmcallan/carteira/internal/models"
)

// benchmarkLookup indexes the valid observations of a benchmark series.
type benchmarkLookup struct {
	values map[time.Time]float64
	dates  []time.Time
}

func newBenchmarkLookup(series []models.BenchmarkRecord) *benchmarkLookup {
	l := &benchmarkLookup{values: make(map[time.Time]float64, len(series))}
	for _, r := range series {
		if !r.Valid {
			continue
		}
		d := models.Day(r.Date)
		if _, seen := l.values[d]; !seen {
			l.dates = append(l.dates, d)
		}
		l.values[d] = r.Value
	}
	sort.Slice(l.dates, func(i, j int) bool { return l.dates[i].Before(l.dates[j]) })
	return l
}

// closestAtOrBefore returns the exact match, else the latest observation
// before date, else the earliest observation. ok is false only when the
// series has no valid observation at all.
func (l *benchmarkLookup) closestAtOrBefore(date time.Time) (float64, bool) {
	if len(l.dates) == 0 {
		return 0, false
	}
	if v, ok := l.values[date]; ok {
		return v, true
	}
	idx := sort.Search(len(l.dates), func(i int) bool { return l.dates[i].After(date) })
	if idx == 0 {
		return l.values[l.dates[0]], true
	}
	return l.values[l.dates[idx-1]], true
}

// compoundRates multiplies (1 + r/100) over every published rate in (from, to].
func (l *benchmarkLookup) compoundRates(from, to time.Time) float64 {
	factor := 1.0
	start := sort.Search(len(l.dates), func(i int) bool { return l.dates[i].After(from) })
	for i := start; i < len(l.dates) && !l.dates[i].After(to); i++ {
		factor *= 1 + l.values[l.dates[i]]/100
	}
	return factor
}

// ComputeBenchmarkCurve enriches a portfolio curve with the value the same
// cash flows would have reached tracking the benchmark instead.
//
// The synthetic capital starts at the first day's portfolio value. On every
// later day it grows by the benchmark factor and then absorbs that day's net
// deposit (change in invested amount), so same-day deposits earn nothing
// that day. For index benchmarks the factor is the ratio of levels against
// the last positive level seen; for rate benchmarks it is the compounded
// daily percentage over the rates published since the previous point.
func ComputeBenchmarkCurve(curve []models.DailyPoint, series []models.BenchmarkRecord, isRate bool) []models.DailyPoint {
	if len(curve) == 0 {
		return []models.DailyPoint{}
	}

	lookup := newBenchmarkLookup(series)
	out := make([]models.DailyPoint, len(curve))

	synthetic := curve[0].PortfolioValue
	lastIndex := 0.0
	if v, ok := lookup.closestAtOrBefore(curve[0].Date); ok && v > 0 {
		lastIndex = v
	}

	for i, p := range curve {
		if i > 0 {
			netDeposit := p.InvestedAmount - curve[i-1].InvestedAmount

			factor := 1.0
			if isRate {
				factor = lookup.compoundRates(curve[i-1].Date, p.Date)
			} else if v, ok := lookup.closestAtOrBefore(p.Date); ok && v > 0 {
				if lastIndex > 0 {
					factor = v / lastIndex
				}
				lastIndex = v
			}

			synthetic = synthetic*factor + netDeposit
		}

		p.BenchmarkValue = round2(synthetic)
		p.BenchmarkRaw = nil
		if v, ok := lookup.closestAtOrBefore(p.Date); ok {
			raw := v
			p.BenchmarkRaw = &raw
		}
		out[i] = p
	}

	return out
}
