// Package cache implements the in-process TTL memoization layer for score
// computations. Entries are keyed by a normalized filter fingerprint plus the
// extended-metrics flag; payloads are immutable snapshots and never mutated
// in place. The cache is memoization only, not mutual exclusion: concurrent
// misses for the same key may compute redundantly, but the computation is
// deterministic so results never diverge. Nothing here survives a restart.
package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/ctfhub/ctf-community-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrKeyEmpty is returned when an empty key is provided.
	ErrKeyEmpty = errors.New("scorecache: key cannot be empty")

	// ErrNilPayload is returned when attempting to cache a nil payload.
	ErrNilPayload = errors.New("scorecache: payload cannot be nil")

	// ErrInvalidTTL is returned when a non-positive TTL is provided.
	ErrInvalidTTL = errors.New("scorecache: ttl must be positive")

	// ErrClosed is returned after the cache has been shut down.
	ErrClosed = errors.New("scorecache: cache is closed")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY NAMESPACES AND DEFAULT TTLs
// ══════════════════════════════════════════════════════════════════════════════

// Key prefixes for namespacing cache entries.
const (
	// PrefixScores is the namespace for per-user score aggregate snapshots.
	PrefixScores = "scores:"

	// PrefixActivity is the namespace for competition participation aggregates.
	PrefixActivity = "activity:"

	// PrefixMonthly is the namespace for monthly ranking universes.
	PrefixMonthly = "monthly:"
)

// Default TTL values for different kinds of cached computations.
const (
	// TTLScores is the default TTL for plain aggregate snapshots.
	TTLScores = 10 * time.Minute

	// TTLScoresExtended is the TTL for snapshots with extended metrics.
	// The extended computation is costlier, so its results are kept longer
	// to amortize the cost.
	TTLScoresExtended = 30 * time.Minute

	// TTLActivity is the TTL for competition participation aggregates.
	TTLActivity = 10 * time.Minute

	// TTLMonthlyRanks is the TTL for monthly ranking universes. Fully past
	// months never change, so a long TTL is safe.
	TTLMonthlyRanks = 24 * time.Hour

	// DefaultSweepInterval is how often the background sweep reclaims
	// expired entries that nobody has read since expiry.
	DefaultSweepInterval = 5 * time.Minute
)

// ScoresKey builds a cache key for an aggregate snapshot.
// The fingerprint already encodes the extended-metrics flag.
func ScoresKey(fingerprint string) string {
	return PrefixScores + fingerprint
}

// ActivityKey builds the cache key for the competition activity listing.
func ActivityKey() string {
	return PrefixActivity + "all"
}

// MonthlyKey builds a cache key for one month's ranking universe.
func MonthlyKey(monthKey string) string {
	return PrefixMonthly + monthKey
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// entry is a single immutable cache entry. Expired entries are discarded and
// replaced by a fresh computation, never updated.
type entry struct {
	payload   any
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry is past its TTL at the given time.
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// Config configures the ScoreCache.
type Config struct {
	// SweepInterval is the period of the background sweep.
	// Zero disables the background sweep (expiry stays lazy on read).
	SweepInterval time.Duration

	// Logger for sweep reporting. Nil disables logging.
	Logger *logger.Logger

	// Clock overrides the time source (for tests).
	Clock func() time.Time
}

// DefaultConfig returns a configuration with the background sweep enabled.
func DefaultConfig() Config {
	return Config{
		SweepInterval: DefaultSweepInterval,
	}
}

// ScoreCache is an explicit service object with a construction/shutdown
// lifecycle; it is injected into callers rather than referenced as ambient
// global state. The only shared mutable state is the key->entry table,
// guarded for concurrent read/insert/evict.
type ScoreCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	now  func() time.Time
	log  *logger.Logger
	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a ScoreCache and starts its background sweep if configured.
func New(cfg Config) *ScoreCache {
	c := &ScoreCache{
		entries: make(map[string]*entry),
		now:     cfg.Clock,
		log:     cfg.Logger,
		stop:    make(chan struct{}),
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(cfg.SweepInterval)
	}
	return c
}

// Get returns the payload for a key if a fresh entry exists.
// Expiry is lazy: an expired entry found here is evicted and reported as a miss.
func (c *ScoreCache) Get(key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if e.expired(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock; a fresh entry may have replaced it.
		if cur, still := c.entries[key]; still && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.payload, true
}

// Set stores a payload under a key with the given TTL.
// A new computation always replaces the previous entry wholesale.
func (c *ScoreCache) Set(key string, payload any, ttl time.Duration) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if payload == nil {
		return ErrNilPayload
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.entries[key] = &entry{
		payload:   payload,
		createdAt: c.now(),
		ttl:       ttl,
	}
	return nil
}

// Delete removes a key.
func (c *ScoreCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, including not yet
// swept expired ones.
func (c *ScoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SweepOnce evicts every expired entry and returns how many were reclaimed.
func (c *ScoreCache) SweepOnce() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	reclaimed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			reclaimed++
		}
	}
	return reclaimed
}

// Close stops the background sweep and drops all entries.
func (c *ScoreCache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	close(c.stop)
	c.wg.Wait()
}

// sweepLoop runs the periodic sweep until Close.
func (c *ScoreCache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			reclaimed := c.SweepOnce()
			if reclaimed > 0 && c.log != nil {
				c.log.Debug("score cache sweep reclaimed expired entries",
					logger.Int("reclaimed", reclaimed),
					logger.Int("remaining", c.Len()),
				)
			}
		}
	}
}
