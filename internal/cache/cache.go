// Package cache provides the shared key/value store behind the enrichment clients.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrUnavailable is returned by stores that cannot reach their backend.
var ErrUnavailable = errors.New("cache unavailable")

// Store is a JSON value cache with per-key TTL. Implementations must be safe
// for concurrent use; concurrent writers of one key resolve last-writer-wins.
type Store interface {
	// Get decodes the value at key into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns a Redis store when redisURL is set and reachable, otherwise an
// in-process MemoryStore. The fallback is logged, not returned as an error.
func Open(ctx context.Context, redisURL string, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	if redisURL == "" {
		logger.Info("redis not configured, using in-memory cache")
		return NewMemoryStore()
	}

	store, err := NewRedisStore(ctx, redisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory cache", "error", err)
		return NewMemoryStore()
	}

	logger.Info("redis cache connected")
	return store
}
