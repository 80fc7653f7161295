package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/connect"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
)

// forestCommand prints the annotated hierarchy.
func (c *CLI) forestCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "forest",
		Short: "Print the region hierarchy with exercise counts",
		Long: `Print every region as a tree. Each node shows the number of exercises linked
to it directly and, when different, the number linked anywhere in its subtree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			f, hit, err := runner.ForestWithCacheInfo(ctx, pipeline.Options{Refresh: refresh})
			if err != nil {
				return err
			}
			prog.done("Built forest", "roots", len(f.Roots), "cached", hit)

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return printJSON(out, f)
			}
			printForest(out, f.Roots)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute instead of reading the cache")
	return cmd
}

// ancestryCommand prints the chain from a node's region down to the node.
func (c *CLI) ancestryCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "ancestry <node-id>",
		Short:             "Print the path from a node's region root to the node",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeNodeID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			chain, err := runner.Ancestry(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return printJSON(out, chain)
			}
			names := make([]string, len(chain))
			for i, n := range chain {
				names[i] = StyleValue.Render(n.Name)
			}
			fmt.Fprintln(out, strings.Join(names, StyleDim.Render(" "+iconArrow+" ")))
			return nil
		},
	}
}

// exercisesCommand lists the exercises of a node's subtree.
func (c *CLI) exercisesCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "exercises <node-id>",
		Short: "List the exercises acting on a node and its sub-hierarchy",
		Long: `List every distinct (exercise, role) pair linked to the node or any of its
descendants, with the node where each was first found.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeNodeID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, hit, err := runner.ExercisesWithCacheInfo(ctx, args[0], pipeline.Options{Refresh: refresh})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return printJSON(out, res)
			}
			if len(res.Exercises) == 0 {
				printInfo(out, "No exercises for %s", args[0])
				return nil
			}

			rows := make([][]string, len(res.Exercises))
			for i, e := range res.Exercises {
				name := e.ExerciseID
				if e.Exercise != nil && e.Exercise.Name != "" {
					name = e.Exercise.Name
				}
				rows[i] = []string{name, string(e.Role), e.SourceNodeID}
			}
			printTable(out, []string{"Exercise", "Role", "Found at"}, rows)
			printStats(out, len(res.Sources), 0, hit)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute instead of reading the cache")
	return cmd
}

// connectionsCommand prints cross-region connections for one node or all.
func (c *CLI) connectionsCommand() *cobra.Command {
	opts := pipeline.Options{}
	cmd := &cobra.Command{
		Use:   "connections [node-id]",
		Short: "Show nodes in other regions that share exercises",
		Long: `Show cross-region connections: pairs of nodes in different regions that are
trained by at least one common exercise, ranked by the number shared.

With a node ID, print that node's ranked connections. Without one, print every
connected pair once.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeNodeID,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SetLayoutDefaults()
			if err := pipeline.ValidateStrategy(opts.Strategy); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				conns, err := runner.ConnectionsFor(ctx, args[0], opts)
				if err != nil {
					return err
				}
				if c.jsonOut {
					return printJSON(out, conns)
				}
				return printConnections(cmd, runner, conns, false)
			}

			all, hit, err := runner.ConnectionsWithCacheInfo(ctx, opts)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(out, all)
			}
			pairs := all.Pairs()
			if err := printConnections(cmd, runner, pairs, true); err != nil {
				return err
			}
			printStats(out, 0, len(pairs), hit)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "overlap strategy: indexed (default), pairwise")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute instead of reading the cache")
	return cmd
}

func printConnections(cmd *cobra.Command, runner *pipeline.Runner, conns []connect.Connection, withFrom bool) error {
	out := cmd.OutOrStdout()
	if len(conns) == 0 {
		printInfo(out, "No cross-region connections")
		return nil
	}

	c, err := runner.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	var headers []string
	rows := make([][]string, len(conns))
	if withFrom {
		headers = []string{"Node", "Connected to", "Region", "Shared"}
	} else {
		headers = []string{"Connected to", "Region", "Shared"}
	}
	for i, conn := range conns {
		row := []string{nodeName(c, conn.ToNodeID), nodeName(c, conn.ToRegionID), strconv.Itoa(conn.SharedExerciseCount)}
		if withFrom {
			row = append([]string{nodeName(c, conn.FromNodeID)}, row...)
		}
		rows[i] = row
	}
	printTable(out, headers, rows)
	return nil
}

// nodeName returns the display name of id, or id itself.
func nodeName(c *catalog.Catalog, id string) string {
	if n, ok := c.Node(id); ok && n.Name != "" {
		return n.Name
	}
	return id
}
