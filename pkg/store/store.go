package store

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/observability"
)

// Store produces catalog snapshots.
//
// Each call to Snapshot returns a complete, consistent catalog that the
// caller may share between goroutines. Implementations are safe for
// concurrent use.
type Store interface {
	Snapshot(ctx context.Context) (*catalog.Catalog, error)
	Close() error
}

// Backend names reported to hooks and logs.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

const (
	schemeSQLite = "sqlite://"
	schemeMongo  = "mongodb://"
	schemeMongoS = "mongodb+srv://"
)

// Option configures a store.
type Option func(*config)

type config struct {
	logger *log.Logger
	strict bool
}

// WithLogger sets the logger used for load timings and malformed-data
// warnings. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStrict makes every snapshot run [catalog.Catalog.Validate] and fail
// on integrity problems.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

func newConfig(opts []Option) config {
	cfg := config{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Open returns the store for location.
func Open(ctx context.Context, location string, opts ...Option) (Store, error) {
	switch {
	case strings.HasPrefix(location, schemeSQLite):
		if err := errors.ValidateStoreURL(location); err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, strings.TrimPrefix(location, schemeSQLite), opts...)
	case strings.HasPrefix(location, schemeMongo), strings.HasPrefix(location, schemeMongoS):
		if err := errors.ValidateStoreURL(location); err != nil {
			return nil, err
		}
		return OpenMongo(ctx, location, opts...)
	default:
		return NewFileStore(location, opts...)
	}
}

// IsFile reports whether location names a file catalog, the only kind
// [Watch] can observe.
func IsFile(location string) bool {
	return !strings.HasPrefix(location, schemeSQLite) &&
		!strings.HasPrefix(location, schemeMongo) &&
		!strings.HasPrefix(location, schemeMongoS)
}

// load converts a fetched document into a snapshot, reporting to hooks and
// logging dropped metadata. Every backend funnels through here.
func load(ctx context.Context, backend string, cfg config, fetch func(context.Context) (graph.Catalog, error)) (*catalog.Catalog, error) {
	hooks := observability.Store()
	hooks.OnLoadStart(ctx, backend)
	start := time.Now()

	c, err := convert(ctx, backend, cfg, fetch)

	nodes := 0
	if c != nil {
		nodes = c.Len()
	}
	hooks.OnLoadComplete(ctx, backend, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("loaded catalog",
		"backend", backend,
		"nodes", c.Len(),
		"exercises", c.ExerciseCount(),
		"links", c.LinkCount(),
		"duration", time.Since(start))
	return c, nil
}

func convert(ctx context.Context, backend string, cfg config, fetch func(context.Context) (graph.Catalog, error)) (*catalog.Catalog, error) {
	doc, err := fetch(ctx)
	if err != nil {
		return nil, malformed(backend, err)
	}

	c, warnings, err := graph.ToCatalog(doc)
	if err != nil {
		return nil, malformed(backend, err)
	}
	for _, w := range warnings {
		cfg.logger.Warn("malformed exercise metadata ignored", "backend", backend, "exercise", w.ExerciseID, "field", w.Field)
		observability.Store().OnMalformed(ctx, backend, w.ExerciseID, w.Field)
	}

	if cfg.strict {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// malformed reports an undecodable catalog as STORE_UNAVAILABLE: the data
// behind the store is broken, not the caller's request.
func malformed(backend string, err error) error {
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		return err
	}
	return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "%s catalog is malformed: %s", backend, errors.UserMessage(err))
}
