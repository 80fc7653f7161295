// Package pipeline computes and memoizes the derived views of a catalog.
//
// This package ties a [store.Store] to the stateless derived-data packages
// (hierarchy, aggregate, connect, layout) and the renderers, so the CLI and
// the HTTP API share one code path and one cache scheme.
//
// # Architecture
//
// Each view follows the same steps:
//
//  1. Snapshot: load a catalog from the store and take its fingerprint
//  2. Lookup: read the view from the cache under a fingerprint-scoped key
//  3. Compute: on a miss, run the derived-data operation and store the result
//
// A changed catalog has a new fingerprint, so it never reads entries
// computed from an older version.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, cache.NewMemoryCache(), nil, logger)
//	forest, err := runner.Forest(ctx)
//	conns, err := runner.ConnectionsFor(ctx, "pecs", pipeline.Options{})
//
//	l, err := runner.Layout(ctx, pipeline.Options{IncludeExercises: true})
//	svg, err := runner.Render(ctx, l, pipeline.Options{Format: pipeline.FormatSVG})
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/musclegraph/pkg/cache"
	"github.com/matzehuels/musclegraph/pkg/connect"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/layout"
	"github.com/matzehuels/musclegraph/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultLevelWidth is the horizontal distance between hierarchy levels.
	DefaultLevelWidth = layout.DefaultLevelWidth

	// DefaultNodeHeight is the vertical distance between adjacent leaves.
	DefaultNodeHeight = layout.DefaultNodeHeight

	// DefaultScale is the PNG zoom factor.
	DefaultScale = 2.0

	// DefaultCacheTTL is how long derived views stay cached.
	DefaultCacheTTL = 24 * time.Hour
)

// Format constants for rendered outputs.
const (
	FormatSVG  = render.FormatSVG
	FormatPNG  = render.FormatPNG
	FormatPDF  = render.FormatPDF
	FormatDOT  = render.FormatDOT
	FormatJSON = "json"
)

// DefaultFormat is the default render format.
const DefaultFormat = FormatSVG

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures layout, connection and render stages.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	NodeIDs          []string `json:"node_ids,omitempty"` // subset to lay out; empty means all
	LevelWidth       float64  `json:"level_width,omitempty"`
	NodeHeight       float64  `json:"node_height,omitempty"`
	IncludeExercises bool     `json:"include_exercises,omitempty"`
	Connections      bool     `json:"connections,omitempty"` // add cross-region edges

	// Connection options
	Strategy string `json:"strategy,omitempty"`

	// Render options
	Format   string  `json:"format,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateStrategy checks that a connection strategy name is valid.
func ValidateStrategy(strategy string) error {
	_, err := connect.ParseStrategy(strategy)
	return err
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.LevelWidth == 0 {
		o.LevelWidth = DefaultLevelWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.Strategy == "" {
		o.Strategy = connect.Indexed.String()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout and connections.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.LevelWidth < 0 || o.NodeHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "level width and node height must be positive")
	}
	for _, id := range o.NodeIDs {
		if err := errors.ValidateNodeID(id); err != nil {
			return err
		}
	}
	return ValidateStrategy(o.Strategy)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive")
	}
	return ValidateFormat(o.Format)
}

// strategy returns the parsed strategy. Call after ValidateForLayout.
func (o *Options) strategy() connect.Strategy {
	s, _ := connect.ParseStrategy(o.Strategy)
	return s
}

// ConnectionsKeyOpts returns cache key options for the connection map.
func (o *Options) ConnectionsKeyOpts() cache.ConnectionsKeyOpts {
	return cache.ConnectionsKeyOpts{Strategy: o.strategy().String()}
}

// LayoutKeyOpts returns cache key options for layout computation.
// The subset is sorted: layouts do not depend on the order it was given in.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	ids := slices.Clone(o.NodeIDs)
	slices.Sort(ids)
	return cache.LayoutKeyOpts{
		NodeIDs:          slices.Compact(ids),
		LevelWidth:       o.LevelWidth,
		NodeHeight:       o.NodeHeight,
		IncludeExercises: o.IncludeExercises,
		Connections:      o.Connections,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   o.Format,
		Scale:    o.Scale,
		Detailed: o.Detailed,
	}
}
