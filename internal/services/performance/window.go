package performance

import "time"

// DefaultMinMonths is the shortest history window the dashboard shows.
const DefaultMinMonths = 6

// HistoryMonths returns the lookback window in months covering the earliest
// purchase, never less than minMonths.
func HistoryMonths(earliest, today time.Time, minMonths int) int {
	if minMonths <= 0 {
		minMonths = DefaultMinMonths
	}
	if earliest.IsZero() || earliest.After(today) {
		return minMonths
	}
	diff := (today.Year()-earliest.Year())*12 + int(today.Month()) - int(earliest.Month())
	return max(minMonths, diff+1)
}

// resolveMonths applies a caller override, clamped to at least one month.
func resolveMonths(override, computed int) int {
	if override == 0 {
		return computed
	}
	return max(1, override)
}
