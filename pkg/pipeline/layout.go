package pipeline

import (
	"context"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/layout"
)

// =============================================================================
// Layout Generation
// =============================================================================

// LayoutWithCacheInfo computes node positions with caching and returns cache hit info.
//
// With opts.NodeIDs set, only those nodes are laid out; a node whose parent
// is outside the subset becomes a root. Unknown IDs are NOT_FOUND.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	c, err := r.Snapshot(ctx)
	if err != nil {
		return graph.Layout{}, false, err
	}

	nodes, err := selectNodes(c, opts.NodeIDs)
	if err != nil {
		return graph.Layout{}, false, err
	}

	fp := c.Fingerprint()
	key := r.Keyer.LayoutKey(fp, opts.LayoutKeyOpts())

	return cached(ctx, r, "layout", key, opts.Refresh, len(nodes), func() (graph.Layout, error) {
		lopts := layout.Options{
			LevelWidth:       opts.LevelWidth,
			NodeHeight:       opts.NodeHeight,
			IncludeExercises: opts.IncludeExercises,
			Exercise:         c.Exercise,
		}
		if opts.Connections {
			conns, _, err := r.connections(ctx, c, opts)
			if err != nil {
				return graph.Layout{}, err
			}
			lopts.Connections = conns.Connections
		}

		l, err := layout.Build(nodes, lopts)
		if err != nil {
			return graph.Layout{}, err
		}
		return graph.NewLayout(fp, l), nil
	})
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, opts)
	return l, err
}

// selectNodes resolves a layout subset. An empty subset selects every node.
func selectNodes(c *catalog.Catalog, ids []string) ([]*catalog.Node, error) {
	if len(ids) == 0 {
		return c.Nodes(), nil
	}
	seen := make(map[string]bool, len(ids))
	nodes := make([]*catalog.Node, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := c.Node(id)
		if !ok {
			return nil, errors.NotFound("node %q", id)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
