// Package cache provides the byte-level caches and key scheme used to
// memoize derived catalog views.
//
// # Overview
//
// Derived views (forest, aggregations, connections, layouts, rendered
// artifacts) are pure functions of a catalog snapshot. Every key built by a
// [Keyer] embeds the snapshot's fingerprint, so a changed catalog produces
// new keys and stale entries are never read; they simply expire.
//
// # Backends
//
//   - [NullCache]: never stores anything (--no-cache)
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [MemoryCache]: process-local map with TTLs (serve)
//   - [RedisCache]: shared cache via github.com/redis/go-redis/v9
//
// # Retries
//
// Network backends wrap transient failures with [Retryable];
// [RetryWithBackoff] retries only those.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
//
// A miss is reported as (nil, false, nil); errors are reserved for backend
// failures. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
