package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
)

// layoutFlags binds the layout-stage options shared by layout and render.
func layoutFlags(cmd *cobra.Command, opts *pipeline.Options, nodes *string) {
	cmd.Flags().StringVarP(nodes, "nodes", "n", "", "comma-separated node IDs to lay out (default: all)")
	cmd.Flags().BoolVarP(&opts.IncludeExercises, "exercises", "e", false, "add a leaf per exercise linked to each node")
	cmd.Flags().BoolVar(&opts.Connections, "connections", false, "add cross-region connection edges")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "overlap strategy for --connections: indexed (default), pairwise")
	cmd.Flags().Float64Var(&opts.LevelWidth, "level-width", 0, "horizontal distance between depths (default from config, else 220)")
	cmd.Flags().Float64Var(&opts.NodeHeight, "node-height", 0, "vertical distance between rows (default from config, else 40)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute instead of reading the cache")
}

// layoutCommand creates the layout command for computing positioned layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		nodes  string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute a positioned layout of the hierarchy",
		Long: `Compute a positioned layout of the hierarchy.

Nodes are placed left to right by depth and top to bottom in display order.
The output is a layout.json document that 'render --layout' turns into SVG, PNG,
PDF or DOT without touching the catalog again.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.NodeIDs = parseNodeIDs(nodes)
			return c.runLayout(cmd, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	layoutFlags(cmd, &opts, &nodes)
	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, opts pipeline.Options, output string) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	l, hit, err := c.computeLayout(ctx, runner, &opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output == "" {
		data, err := graph.MarshalLayout(l)
		if err != nil {
			return err
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	if err := graph.WriteLayoutFile(l, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printSuccess(out, "Layout complete")
	printFile(out, output)
	printStats(out, len(l.Nodes), len(l.Edges), hit)
	printNextStep(out, "Render", appName+" render --layout "+output)
	return nil
}

// computeLayout applies config defaults to opts, validates them and lays
// out the catalog.
func (c *CLI) computeLayout(ctx context.Context, runner *pipeline.Runner, opts *pipeline.Options) (graph.Layout, bool, error) {
	c.layoutDefaults(opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	prog := newProgress(c.Logger)
	l, hit, err := runner.LayoutWithCacheInfo(ctx, *opts)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("compute layout: %w", err)
	}
	prog.done("Computed layout", "nodes", len(l.Nodes), "cached", hit)
	return l, hit, nil
}
