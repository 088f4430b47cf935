// Package redis implements the Redis hot-page cache for CTF Community Hub.
// The scoring core keeps its snapshots in process memory; Redis only holds
// fully rendered leaderboard pages and API payloads so that identical
// requests across bot instances skip rendering entirely. Everything here is
// best-effort: a Redis failure degrades to recomputation, never to an error
// surfaced to the user.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ctfhub/ctf-community-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("redis: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("redis: connection failed")

	// ErrCacheSerialization is returned when serialization fails.
	ErrCacheSerialization = errors.New("redis: serialization failed")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("redis: key cannot be empty")
)

// Key prefixes for namespacing Redis keys.
const (
	// PrefixPage is the prefix for rendered leaderboard page keys.
	PrefixPage = "page:"

	// PrefixAPI is the prefix for serialized API payload keys.
	PrefixAPI = "api:"
)

// Default TTL values.
const (
	// TTLPage is the TTL for rendered leaderboard pages.
	TTLPage = 5 * time.Minute

	// TTLAPIPayload is the TTL for serialized API payloads.
	TTLAPIPayload = 5 * time.Minute
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PAGE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache caches rendered leaderboard pages and API payloads.
type LeaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new cache instance and verifies the connection.
func NewLeaderboardCache(cfg Config) (*LeaderboardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &LeaderboardCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *LeaderboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// PageKey builds the key for a rendered page: scope fingerprint plus page number.
func PageKey(fingerprint string, page int) string {
	return fmt.Sprintf("%s%s:%d", PrefixPage, fingerprint, page)
}

// APIKey builds the key for a serialized API payload.
func APIKey(endpoint, fingerprint string) string {
	return fmt.Sprintf("%s%s:%s", PrefixAPI, endpoint, fingerprint)
}

// GetPage returns a rendered page, or ErrCacheMiss.
func (c *LeaderboardCache) GetPage(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrCacheKeyEmpty
	}

	return retry.DoWithData(ctx, func(ctx context.Context) (string, error) {
		val, err := c.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		if err != nil {
			return "", retry.Retryable(err)
		}
		return val, nil
	}, retry.RedisOptions()...)
}

// SetPage stores a rendered page with the default page TTL.
func (c *LeaderboardCache) SetPage(ctx context.Context, key, rendered string) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.Set(ctx, key, rendered, TTLPage).Err()
}

// GetJSON deserializes a cached API payload into dest, or returns ErrCacheMiss.
func (c *LeaderboardCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := retry.DoWithData(ctx, func(ctx context.Context) ([]byte, error) {
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		if err != nil {
			return nil, retry.Retryable(err)
		}
		return data, nil
	}, retry.RedisOptions()...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// SetJSON serializes and stores an API payload with the default payload TTL.
func (c *LeaderboardCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, data, TTLAPIPayload).Err()
}

// Invalidate removes all keys under a prefix. Used after data imports.
func (c *LeaderboardCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
