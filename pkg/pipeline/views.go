package pipeline

import (
	"context"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/connect"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/hierarchy"
)

// =============================================================================
// Forest
// =============================================================================

// ForestWithCacheInfo builds the annotated forest with caching and returns cache hit info.
func (r *Runner) ForestWithCacheInfo(ctx context.Context, opts Options) (graph.Forest, bool, error) {
	c, err := r.Snapshot(ctx)
	if err != nil {
		return graph.Forest{}, false, err
	}
	fp := c.Fingerprint()

	return cached(ctx, r, "forest", r.Keyer.ForestKey(fp), opts.Refresh, c.Len(), func() (graph.Forest, error) {
		roots, err := hierarchy.BuildForest(c)
		if err != nil {
			return graph.Forest{}, err
		}
		return graph.NewForest(fp, roots), nil
	})
}

// Forest is a convenience wrapper that calls ForestWithCacheInfo and discards the cache hit info.
func (r *Runner) Forest(ctx context.Context) (graph.Forest, error) {
	f, _, err := r.ForestWithCacheInfo(ctx, Options{})
	return f, err
}

// =============================================================================
// Ancestry
// =============================================================================

// Ancestry returns the chain from the region root down to id. The walk is
// bounded by the node count, so it is not cached.
func (r *Runner) Ancestry(ctx context.Context, id string) ([]*catalog.Node, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, err
	}
	c, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return timed(ctx, r, "ancestry", c.Len(), func() ([]*catalog.Node, error) {
		return hierarchy.AncestryOf(c, id)
	})
}

// =============================================================================
// Connections
// =============================================================================

// ConnectionsWithCacheInfo computes the cross-region connection map with
// caching and returns cache hit info.
func (r *Runner) ConnectionsWithCacheInfo(ctx context.Context, opts Options) (graph.Connections, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Connections{}, false, err
	}
	c, err := r.Snapshot(ctx)
	if err != nil {
		return graph.Connections{}, false, err
	}
	return r.connections(ctx, c, opts)
}

func (r *Runner) connections(ctx context.Context, c *catalog.Catalog, opts Options) (graph.Connections, bool, error) {
	fp := c.Fingerprint()
	strategy := opts.strategy()
	key := r.Keyer.ConnectionsKey(fp, opts.ConnectionsKeyOpts())

	return cached(ctx, r, "connections", key, opts.Refresh, c.Len(), func() (graph.Connections, error) {
		all, err := connect.Find(c, connect.WithStrategy(strategy))
		if err != nil {
			return graph.Connections{}, err
		}
		return graph.Connections{Fingerprint: fp, Strategy: strategy.String(), Connections: all}, nil
	})
}

// Connections is a convenience wrapper that calls ConnectionsWithCacheInfo and discards the cache hit info.
func (r *Runner) Connections(ctx context.Context, opts Options) (graph.Connections, error) {
	conns, _, err := r.ConnectionsWithCacheInfo(ctx, opts)
	return conns, err
}

// ConnectionsFor returns the ranked connections of one node, served from
// the cached connection map.
func (r *Runner) ConnectionsFor(ctx context.Context, id string, opts Options) ([]connect.Connection, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, err
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	c, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Node(id); !ok {
		return nil, errors.NotFound("node %q", id)
	}

	all, _, err := r.connections(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	conns, ok := all.Connections[id]
	if !ok {
		// Every node has an entry in a fresh map; a missing one means a
		// damaged cache entry, so compute directly.
		return connect.For(c, id, connect.WithStrategy(opts.strategy()))
	}
	if conns == nil {
		conns = []connect.Connection{}
	}
	return conns, nil
}
