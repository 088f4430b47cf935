package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2026-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseMonthKey("2026-3")
	assert.Error(t, err)
	_, err = ParseMonthKey("march")
	assert.Error(t, err)
}

func TestMonthBounds(t *testing.T) {
	from, to := MonthBounds(time.Date(2026, 12, 15, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestDaysBetween(t *testing.T) {
	day := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	next := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)

	// Считаются календарные дни, не 24-часовые интервалы.
	assert.Equal(t, 1, DaysBetween(day, next))
	assert.Equal(t, 0, DaysBetween(day, day.Add(30*time.Minute)))
	assert.Equal(t, -1, DaysBetween(next, day))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 23, 55, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.Add(time.Hour)))
}

func TestMonthKeysBetween(t *testing.T) {
	first := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2025-11", "2025-12", "2026-01", "2026-02"}, MonthKeysBetween(first, last))
	assert.Equal(t, []string{"2026-02"}, MonthKeysBetween(last, last))
	assert.Nil(t, MonthKeysBetween(last, first))
	assert.Nil(t, MonthKeysBetween(time.Time{}, last))
}

func TestYearsBetween(t *testing.T) {
	first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []int{2024, 2025, 2026}, YearsBetween(first, last))
	assert.Nil(t, YearsBetween(time.Time{}, last))
}

func TestSolveTimeWindows(t *testing.T) {
	assert.True(t, IsNight(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, IsNight(time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)))
	assert.False(t, IsNight(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)))
	assert.False(t, IsNight(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))

	assert.True(t, IsEarlyMorning(time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)))
	assert.True(t, IsEarlyMorning(time.Date(2026, 3, 10, 7, 59, 0, 0, time.UTC)))
	assert.False(t, IsEarlyMorning(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)))

	// 2026-03-07 - суббота.
	assert.True(t, IsWeekend(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)))
}

func TestFormatMonthTitle(t *testing.T) {
	assert.Equal(t, "March 2026", FormatMonthTitle("2026-03"))
	assert.Equal(t, "bogus", FormatMonthTitle("bogus"))
}
