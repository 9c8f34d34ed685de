package models

import (
	"fmt"
	"time"
)

// monthLayout is the wire format for snapshot months.
const monthLayout = "2006-01"

// MonthOf returns the YYYY-MM month key for a point in time.
func MonthOf(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseMonth parses a YYYY-MM month key and returns the first instant of
// that month in UTC.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", month, err)
	}
	return t, nil
}

// MonthBounds returns the half-open [start, end) interval covering a month.
func MonthBounds(month string) (time.Time, time.Time, error) {
	start, err := ParseMonth(month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// DaysInMonth returns the number of calendar days in a month key.
func DaysInMonth(month string) (int, error) {
	start, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	return start.AddDate(0, 1, -1).Day(), nil
}
