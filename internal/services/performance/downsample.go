package performance

import (
	"github.com/bobmcallan/carteira/internal/models"
)

// Downsample reduces a daily curve to the requested interval. Unknown
// intervals return the curve unchanged.
func Downsample(points []models.DailyPoint, interval string) []models.DailyPoint {
	switch interval {
	case models.IntervalWeekly:
		return DownsampleToWeekly(points)
	case models.IntervalMonthly:
		return DownsampleToMonthly(points)
	default:
		return points
	}
}

// DownsampleToWeekly keeps the first data point, then the last point per ISO week.
func DownsampleToWeekly(points []models.DailyPoint) []models.DailyPoint {
	return keepBucketEnds(points, func(a, b models.DailyPoint) bool {
		y1, w1 := a.Date.ISOWeek()
		y2, w2 := b.Date.ISOWeek()
		return y1 == y2 && w1 == w2
	})
}

// DownsampleToMonthly keeps the first data point, then the last point per calendar month.
func DownsampleToMonthly(points []models.DailyPoint) []models.DailyPoint {
	return keepBucketEnds(points, func(a, b models.DailyPoint) bool {
		return a.Date.Year() == b.Date.Year() && a.Date.Month() == b.Date.Month()
	})
}

// keepBucketEnds keeps points[0], where the benchmark starts at the portfolio
// value, and the last point of every bucket.
func keepBucketEnds(points []models.DailyPoint, sameBucket func(a, b models.DailyPoint) bool) []models.DailyPoint {
	if len(points) == 0 {
		return points
	}

	out := []models.DailyPoint{points[0]}
	for i := 1; i < len(points); i++ {
		if i == len(points)-1 || !sameBucket(points[i], points[i+1]) {
			out = append(out, points[i])
		}
	}
	return out
}
