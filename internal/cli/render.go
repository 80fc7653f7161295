package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
)

// stdoutPath writes a rendering to standard output.
const stdoutPath = "-"

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		nodes      string
		layoutPath string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the hierarchy to SVG, PNG, PDF, DOT or JSON",
		Long: `Render a node-link diagram of the hierarchy.

By default the layout is computed from the catalog using the layout flags.
With --layout, a layout.json written by 'layout -o' is rendered instead and the
catalog is not read.

SVG goes through Graphviz with node positions pinned. PNG and PDF are converted
from the SVG and need rsvg-convert on PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.NodeIDs = parseNodeIDs(nodes)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd, opts, layoutPath, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: musclegraph.<format>)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.DefaultFormat, "output format: svg, png, pdf, dot, json")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label nodes with their kind and depth")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "render this layout.json instead of computing one")
	layoutFlags(cmd, &opts, &nodes)
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, opts pipeline.Options, layoutPath, output string) error {
	ctx := cmd.Context()

	var (
		l      graph.Layout
		runner *pipeline.Runner
		err    error
	)
	if layoutPath != "" {
		if l, err = graph.ReadLayoutFile(layoutPath); err != nil {
			return fmt.Errorf("load layout %s: %w", layoutPath, err)
		}
		cc, err := c.newCache(ctx, c.cfg.Cache.Backend)
		if err != nil {
			return err
		}
		runner = c.runnerFor(nil, cc)
	} else {
		if runner, err = c.newRunner(ctx); err != nil {
			return err
		}
		if l, _, err = c.computeLayout(ctx, runner, &opts); err != nil {
			runner.Close()
			return err
		}
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	data, hit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.Format, err)
	}
	prog.done("Rendered", "format", opts.Format, "bytes", len(data), "cached", hit)

	out := cmd.OutOrStdout()
	if output == stdoutPath {
		_, err := out.Write(data)
		return err
	}
	if output == "" {
		output = appName + "." + opts.Format
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess(out, "Rendered %s", opts.Format)
	printFile(out, output)
	printStats(out, len(l.Nodes), len(l.Edges), hit)
	return nil
}
