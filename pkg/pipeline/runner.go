package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/musclegraph/pkg/aggregate"
	"github.com/matzehuels/musclegraph/pkg/cache"
	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/observability"
	"github.com/matzehuels/musclegraph/pkg/store"
)

// Runner computes derived views of the catalog in Store with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't
// store view results itself. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Store  store.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached views. Zero means DefaultCacheTTL.
	TTL time.Duration
}

// NewRunner creates a runner reading snapshots from s.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(s store.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  s,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultCacheTTL,
	}
}

// Snapshot loads the current catalog.
func (r *Runner) Snapshot(ctx context.Context) (*catalog.Catalog, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "no catalog store configured")
	}
	return r.Store.Snapshot(ctx)
}

// Validate loads the catalog and returns every integrity problem in it.
func (r *Runner) Validate(ctx context.Context) ([]catalog.Problem, error) {
	c, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return c.Problems(), nil
}

// Close releases resources held by the runner: the cache and the store.
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// =============================================================================
// Cache plumbing
// =============================================================================

// cached runs one view through the cache. keyType names the view for hooks
// and logs. A cached entry that fails to decode is recomputed.
func cached[T any](
	ctx context.Context,
	r *Runner,
	keyType, key string,
	refresh bool,
	nodeCount int,
	compute func() (T, error),
) (T, bool, error) {
	hooks := observability.Cache()

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				hooks.OnCacheHit(ctx, keyType)
				r.Logger.Debug("cache hit", "view", keyType)
				return v, true, nil
			}
			r.Logger.Debug("discarding undecodable cache entry", "view", keyType)
		} else if err != nil {
			r.Logger.Warn("cache read failed", "view", keyType, "err", err)
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	v, err := timed(ctx, r, keyType, nodeCount, compute)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
			r.Logger.Warn("cache write failed", "view", keyType, "err", err)
		} else {
			hooks.OnCacheSet(ctx, keyType, len(data))
		}
	}
	return v, false, nil
}

// timed wraps a computation with pipeline hooks and a debug timing line.
func timed[T any](ctx context.Context, r *Runner, view string, nodeCount int, compute func() (T, error)) (T, error) {
	hooks := observability.Pipeline()
	hooks.OnViewStart(ctx, view, nodeCount)
	start := time.Now()

	v, err := compute()

	d := time.Since(start)
	hooks.OnViewComplete(ctx, view, d, err)
	if err == nil {
		r.Logger.Debug("computed view", "view", view, "nodes", nodeCount, "duration", d)
	}
	return v, err
}

func (r *Runner) ttl() time.Duration {
	if r.TTL <= 0 {
		return DefaultCacheTTL
	}
	return r.TTL
}

// =============================================================================
// Exercises
// =============================================================================

// ExercisesWithCacheInfo aggregates the exercises of id and its descendants
// with caching and returns cache hit info.
func (r *Runner) ExercisesWithCacheInfo(ctx context.Context, id string, opts Options) (*aggregate.Result, bool, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, false, err
	}
	c, err := r.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	if _, ok := c.Node(id); !ok {
		return nil, false, errors.NotFound("node %q", id)
	}

	key := r.Keyer.ExercisesKey(c.Fingerprint(), id)
	return cached(ctx, r, "exercises", key, opts.Refresh, c.Len(), func() (*aggregate.Result, error) {
		return aggregate.Exercises(c, id)
	})
}

// Exercises is a convenience wrapper that calls ExercisesWithCacheInfo and discards the cache hit info.
func (r *Runner) Exercises(ctx context.Context, id string, opts Options) (*aggregate.Result, error) {
	res, _, err := r.ExercisesWithCacheInfo(ctx, id, opts)
	return res, err
}
