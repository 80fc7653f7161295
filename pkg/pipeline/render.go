package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/musclegraph/pkg/cache"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/observability"
	"github.com/matzehuels/musclegraph/pkg/render"
	"github.com/matzehuels/musclegraph/pkg/render/nodelink"
)

// RenderWithCacheInfo renders a layout in opts.Format with caching and returns cache hit info.
// Artifacts are keyed by the hash of the serialized layout.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	key := r.Keyer.ArtifactKey(cache.Hash(layoutData), opts.ArtifactKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		hooks.OnCacheMiss(ctx, "artifact")
	}

	data, err := RenderLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
		r.Logger.Warn("cache write failed", "view", "artifact", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return data, err
}

// RenderLayout renders a layout without caching.
func RenderLayout(ctx context.Context, l graph.Layout, opts Options) ([]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()

	data, err := renderFormat(ctx, l, opts)

	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("rendered layout", "format", opts.Format, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func renderFormat(ctx context.Context, l graph.Layout, opts Options) ([]byte, error) {
	if opts.Format == FormatJSON {
		return graph.MarshalLayout(l)
	}

	dot := l.DOT
	if dot == "" {
		dot = nodelink.ToDOT(l.Computed(), nodelink.Options{Detailed: opts.Detailed})
	}
	if opts.Format == FormatDOT {
		return []byte(dot), nil
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}

	switch opts.Format {
	case FormatSVG:
		return svg, nil
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	case FormatPNG:
		return render.ToPNG(ctx, svg, opts.Scale)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", opts.Format)
}
