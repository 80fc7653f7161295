// Package cli implements the musclegraph command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/musclegraph/pkg/buildinfo"
	"github.com/matzehuels/musclegraph/pkg/cache"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/observability"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
	"github.com/matzehuels/musclegraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "musclegraph"

	// envCatalog overrides the configured catalog location.
	envCatalog = "MUSCLEGRAPH_CATALOG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Flags shared by every command, bound in RootCommand.
	catalog    string
	configPath string
	noCache    bool
	jsonOut    bool
	strict     bool
	verbose    bool

	cfg Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Musclegraph explores an anatomy catalog and the exercises that train it",
		Long: `Musclegraph reads a catalog of anatomical regions, muscles and exercises and
derives views from it: the annotated hierarchy, the exercises of a subtree,
cross-region connections through shared exercises, and positioned layouts.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&c.catalog, "catalog", "c", "", "catalog location: file path, sqlite://path or mongodb://... (default from config)")
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/musclegraph/config.toml)")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching of derived views")
	pf.BoolVar(&c.jsonOut, "json", false, "print JSON instead of formatted output")
	pf.BoolVar(&c.strict, "strict", false, "fail on integrity problems when loading the catalog")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.forestCommand())
	root.AddCommand(c.ancestryCommand())
	root.AddCommand(c.exercisesCommand())
	root.AddCommand(c.connectionsCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// preRun loads the config file and installs logging hooks for -v.
func (c *CLI) preRun(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetStoreHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetAPIHooks(hooks)
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// catalogLocation resolves --catalog, then $MUSCLEGRAPH_CATALOG, then the
// config file.
func (c *CLI) catalogLocation() (string, error) {
	loc := c.catalog
	if loc == "" {
		loc = os.Getenv(envCatalog)
	}
	if loc == "" {
		loc = c.cfg.Catalog
	}
	if loc == "" {
		return "", errors.New(errors.ErrCodeInvalidInput,
			"no catalog given: pass --catalog, set %s, or set catalog in %s", envCatalog, c.describeConfigPath())
	}
	return loc, nil
}

// openStore opens the configured catalog.
func (c *CLI) openStore(ctx context.Context) (store.Store, string, error) {
	loc, err := c.catalogLocation()
	if err != nil {
		return nil, "", err
	}
	s, err := store.Open(ctx, loc, store.WithLogger(c.Logger), store.WithStrict(c.strict))
	if err != nil {
		return nil, "", err
	}
	return s, loc, nil
}

// newRunner opens the catalog and the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	s, _, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	cc, err := c.newCache(ctx, c.cfg.Cache.Backend)
	if err != nil {
		s.Close()
		return nil, err
	}
	return c.runnerFor(s, cc), nil
}

func (c *CLI) runnerFor(s store.Store, cc cache.Cache) *pipeline.Runner {
	r := pipeline.NewRunner(s, cc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName), c.Logger)
	if ttl := c.cfg.Cache.ttl(); ttl > 0 {
		r.TTL = ttl
	}
	return r
}

// newCache builds the cache for backend. --no-cache always wins.
func (c *CLI) newCache(ctx context.Context, backend string) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch backend {
	case "", cacheBackendFile:
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case cacheBackendMemory:
		return cache.NewMemoryCache(), nil
	case cacheBackendRedis:
		return cache.NewRedisCache(ctx, c.cfg.Cache.RedisURL)
	case cacheBackendNone:
		return cache.NewNullCache(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", backend)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/musclegraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/musclegraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

func (c *CLI) describeConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	if dir, err := configDir(); err == nil {
		return filepath.Join(dir, configFile)
	}
	return configFile
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutDefaults seeds pipeline options from the config file.
func (c *CLI) layoutDefaults(opts *pipeline.Options) {
	if opts.LevelWidth == 0 {
		opts.LevelWidth = c.cfg.Layout.LevelWidth
	}
	if opts.NodeHeight == 0 {
		opts.NodeHeight = c.cfg.Layout.NodeHeight
	}
	opts.Logger = c.Logger
	opts.SetLayoutDefaults()
}

// parseNodeIDs splits a comma-separated --nodes value.
func parseNodeIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
