package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock lets tests advance cache time without sleeping.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestCache() (*ScoreCache, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New(Config{SweepInterval: 0, Clock: clock.Now})
	return c, clock
}

func TestScoreCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache()
	defer c.Close()

	require.NoError(t, c.Set(ScoresKey("abc"), "payload", TTLScores))

	got, ok := c.Get(ScoresKey("abc"))
	require.True(t, ok)
	assert.Equal(t, "payload", got)
}

func TestScoreCache_MissOnUnknownKey(t *testing.T) {
	c, _ := newTestCache()
	defer c.Close()

	_, ok := c.Get("scores:missing")
	assert.False(t, ok)

	_, ok = c.Get("")
	assert.False(t, ok)
}

func TestScoreCache_LazyExpiry(t *testing.T) {
	c, clock := newTestCache()
	defer c.Close()

	require.NoError(t, c.Set("scores:abc", "payload", TTLScores))

	clock.Advance(TTLScores - time.Second)
	_, ok := c.Get("scores:abc")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("scores:abc")
	assert.False(t, ok)
	// Просроченная запись вычищается при чтении.
	assert.Zero(t, c.Len())
}

func TestScoreCache_SetReplacesEntry(t *testing.T) {
	c, _ := newTestCache()
	defer c.Close()

	require.NoError(t, c.Set("scores:abc", "old", TTLScores))
	require.NoError(t, c.Set("scores:abc", "new", TTLScores))

	got, ok := c.Get("scores:abc")
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}

func TestScoreCache_SweepOnce(t *testing.T) {
	c, clock := newTestCache()
	defer c.Close()

	require.NoError(t, c.Set("scores:a", 1, TTLScores))
	require.NoError(t, c.Set("monthly:2026-05", 2, TTLMonthlyRanks))

	clock.Advance(TTLScores + time.Minute)

	assert.Equal(t, 1, c.SweepOnce())
	assert.Equal(t, 1, c.Len())

	// Месячная вселенная с длинным TTL переживает подметание.
	_, ok := c.Get(MonthlyKey("2026-05"))
	assert.True(t, ok)
}

func TestScoreCache_Delete(t *testing.T) {
	c, _ := newTestCache()
	defer c.Close()

	require.NoError(t, c.Set("scores:abc", "payload", TTLScores))
	c.Delete("scores:abc")

	_, ok := c.Get("scores:abc")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestScoreCache_SetValidation(t *testing.T) {
	c, _ := newTestCache()
	defer c.Close()

	assert.ErrorIs(t, c.Set("", "payload", TTLScores), ErrKeyEmpty)
	assert.ErrorIs(t, c.Set("scores:abc", nil, TTLScores), ErrNilPayload)
	assert.ErrorIs(t, c.Set("scores:abc", "payload", 0), ErrInvalidTTL)
	assert.ErrorIs(t, c.Set("scores:abc", "payload", -time.Second), ErrInvalidTTL)
}

func TestScoreCache_ClosedRejectsWrites(t *testing.T) {
	c, _ := newTestCache()
	require.NoError(t, c.Set("scores:abc", "payload", TTLScores))

	c.Close()

	assert.ErrorIs(t, c.Set("scores:abc", "payload", TTLScores), ErrClosed)
	_, ok := c.Get("scores:abc")
	assert.False(t, ok)

	// Повторное закрытие безопасно.
	c.Close()
}

func TestScoreCache_KeyNamespaces(t *testing.T) {
	assert.Equal(t, "scores:abc", ScoresKey("abc"))
	assert.Equal(t, "activity:all", ActivityKey())
	assert.Equal(t, "monthly:2026-05", MonthlyKey("2026-05"))
}
