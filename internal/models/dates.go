package models

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for calendar days (trade_date columns, query params).
const DateFormat = "2006-01-02"

// Day truncates t to its calendar day in t's own location and returns it as
// midnight UTC. All series dates use this representation so they compare and
// key maps consistently regardless of where they were parsed.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar day. Accepts "2006-01-02", RFC3339 timestamps
// and "2006-01-02 15:04:05"; the time part is discarded.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(s) == len(DateFormat) {
		t, err := time.Parse(DateFormat, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatDate renders a calendar day as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
