package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/musclegraph/pkg/api"
	"github.com/matzehuels/musclegraph/pkg/store"
)

// serveCommand runs the HTTP API and, for file catalogs, reloads the
// catalog when the file changes.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog views over HTTP",
		Long: `Serve the catalog views as a JSON API (see GET /v1/forest and friends).

The catalog snapshot is kept in memory. For file catalogs the file is watched
and a change is picked up on the next request. Derived views are cached in
memory unless [cache] backend = "redis" is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.addr()
			}
			return c.runServe(cmd.Context(), addr, !noWatch)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the catalog when its file changes")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, watch bool) error {
	s, loc, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	reloading := store.NewReloading(s)

	// Fail fast on a catalog that cannot be read at all.
	if _, err := reloading.Snapshot(ctx); err != nil {
		reloading.Close()
		return err
	}

	backend := c.cfg.Cache.Backend
	if backend == "" || backend == cacheBackendFile {
		backend = cacheBackendMemory
	}
	cc, err := c.newCache(ctx, backend)
	if err != nil {
		reloading.Close()
		return err
	}
	runner := c.runnerFor(reloading, cc)
	defer runner.Close()

	srv := api.New(runner, c.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr)
	})
	if watch && store.IsFile(loc) {
		g.Go(func() error {
			c.Logger.Info("watching catalog", "path", loc)
			return store.Watch(ctx, loc, store.DefaultDebounce, func() {
				c.Logger.Info("catalog changed, reloading", "path", loc)
				reloading.Invalidate()
			})
		})
	}
	return g.Wait()
}
