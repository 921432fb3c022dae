package performance

import (
	"testing"

	"github.com/bobmcallan/carteira/internal/models"
)

func TestDownsampleToWeekly(t *testing.T) {
	// 2024-03-04 is a Monday; 14 days span two ISO weeks
	points := curve(day(2024, 3, 4), make([]float64, 14), make([]float64, 14))
	for i := range points {
		points[i].PortfolioValue = float64(i)
	}

	weekly := DownsampleToWeekly(points)
	if len(weekly) != 3 {
		t.Fatalf("got %d weekly points, want 3", len(weekly))
	}
	if !weekly[0].Date.Equal(day(2024, 3, 4)) {
		t.Errorf("first point date = %s, want 2024-03-04", models.FormatDate(weekly[0].Date))
	}
	if !weekly[1].Date.Equal(day(2024, 3, 10)) {
		t.Errorf("first week date = %s, want 2024-03-10", models.FormatDate(weekly[1].Date))
	}
	if weekly[2].PortfolioValue != 13 {
		t.Errorf("last week value = %.0f, want 13", weekly[2].PortfolioValue)
	}
}

func TestDownsampleToMonthly(t *testing.T) {
	points := []models.DailyPoint{
		{Date: day(2024, 1, 15), PortfolioValue: 100},
		{Date: day(2024, 1, 31), PortfolioValue: 110},
		{Date: day(2024, 2, 10), PortfolioValue: 115},
		{Date: day(2024, 2, 28), PortfolioValue: 120},
		{Date: day(2024, 3, 5), PortfolioValue: 125},
	}

	monthly := DownsampleToMonthly(points)
	if len(monthly) != 4 {
		t.Fatalf("got %d monthly points, want 4", len(monthly))
	}
	want := []float64{100, 110, 120, 125}
	for i, w := range want {
		if monthly[i].PortfolioValue != w {
			t.Errorf("point %d value = %.0f, want %.0f", i, monthly[i].PortfolioValue, w)
		}
	}
}

func TestDownsample_Daily(t *testing.T) {
	points := curve(day(2024, 3, 1), []float64{1, 2, 3}, []float64{1, 1, 1})
	if got := Downsample(points, models.IntervalDaily); len(got) != 3 {
		t.Errorf("daily downsample changed length to %d", len(got))
	}
	if got := Downsample(nil, models.IntervalMonthly); len(got) != 0 {
		t.Errorf("empty input produced %d points", len(got))
	}
}

func TestDownsample_KeepsStartingPoint(t *testing.T) {
	start := day(2024, 1, 10)
	points := curve(start, []float64{100, 105, 103, 108}, []float64{100, 100, 100, 100})
	points = ComputeBenchmarkCurve(points, flatBenchmark(start, 4, 50), false)

	for _, interval := range []string{models.IntervalWeekly, models.IntervalMonthly} {
		got := Downsample(points, interval)
		if len(got) == 0 {
			t.Fatalf("%s: no points", interval)
		}
		if !got[0].Date.Equal(start) {
			t.Errorf("%s: first date = %s, want %s", interval, models.FormatDate(got[0].Date), models.FormatDate(start))
		}
		if got[0].BenchmarkValue != got[0].PortfolioValue {
			t.Errorf("%s: benchmark %.2f does not start at portfolio %.2f", interval, got[0].BenchmarkValue, got[0].PortfolioValue)
		}
	}
}

func TestDownsample_SinglePoint(t *testing.T) {
	points := curve(day(2024, 3, 1), []float64{1}, []float64{1})
	if got := DownsampleToWeekly(points); len(got) != 1 {
		t.Errorf("weekly single point produced %d points", len(got))
	}
}
