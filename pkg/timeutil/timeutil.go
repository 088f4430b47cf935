// Package timeutil provides time helpers for CTF Community Hub.
// All scoring timestamps are normalized to UTC because CTF competitions are
// scheduled globally; day-of-week and hour-of-day heuristics therefore use UTC.
// Handles month keys ("2024-03"), calendar-day math, and solve-time windows.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// MonthKeyLayout is the canonical month key format ("2006-01").
const MonthKeyLayout = "2006-01"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// FormatMonthKey returns the canonical "YYYY-MM" key for a time.
func FormatMonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// ParseMonthKey parses a "YYYY-MM" key into the first instant of that month (UTC).
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t.UTC(), nil
}

// MonthBounds returns the [start, end) interval of the month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// YearBounds returns the [start, end) interval of the year containing t.
func YearBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// StartOfDay returns the start of the UTC calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ua, ub := a.UTC(), b.UTC()
	return ua.Year() == ub.Year() && ua.YearDay() == ub.YearDay()
}

// DaysBetween returns the number of whole UTC calendar days from a to b.
// Returns 0 when both fall on the same day, 1 for adjacent days.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)) / (24 * time.Hour))
}

// MonthKeysBetween returns the ordered list of month keys from first to last
// inclusive. The zero-valued arguments yield an empty list.
func MonthKeysBetween(first, last time.Time) []string {
	if first.IsZero() || last.IsZero() || last.Before(first) {
		return nil
	}
	keys := make([]string, 0, 12)
	cur, _ := MonthBounds(first)
	end, _ := MonthBounds(last)
	for !cur.After(end) {
		keys = append(keys, FormatMonthKey(cur))
		cur = cur.AddDate(0, 1, 0)
	}
	return keys
}

// YearsBetween returns the ordered list of years from first to last inclusive.
func YearsBetween(first, last time.Time) []int {
	if first.IsZero() || last.IsZero() || last.Year() > first.Year()+200 {
		return nil
	}
	years := make([]int, 0, 8)
	for y := first.UTC().Year(); y <= last.UTC().Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Solve-time windows used by the achievement metrics. Boundaries are inclusive
// on the start and exclusive on the end, matching simple hour comparison.
const (
	nightStartHour   = 22
	nightEndHour     = 6
	morningStartHour = 5
	morningEndHour   = 8
)

// IsNight reports whether t falls in the night window (22:00-06:00 UTC).
func IsNight(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= nightStartHour || h < nightEndHour
}

// IsEarlyMorning reports whether t falls in the early-morning window (05:00-08:00 UTC).
func IsEarlyMorning(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= morningStartHour && h < morningEndHour
}

// IsWeekend reports whether t falls on a Saturday or Sunday (UTC).
func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FormatMonthTitle renders a month key for display ("March 2024").
// Invalid keys are returned unchanged.
func FormatMonthTitle(key string) string {
	t, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
