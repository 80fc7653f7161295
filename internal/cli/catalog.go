package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
	"github.com/matzehuels/musclegraph/pkg/store"
)

// validateCommand reports every integrity problem in the catalog.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog for dangling parents and cycles",
		Long: `Check the catalog for integrity problems: nodes whose parent does not exist
and groups of nodes whose parent pointers form a cycle. Every problem is
reported, and the command fails if there is at least one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			snap, err := runner.Snapshot(ctx)
			if err != nil {
				return err
			}
			problems := snap.Problems()

			out := cmd.OutOrStdout()
			if c.jsonOut {
				if problems == nil {
					problems = []catalog.Problem{}
				}
				if err := printJSON(out, problems); err != nil {
					return err
				}
			} else if len(problems) == 0 {
				printSuccess(out, "Catalog is consistent")
				printDetail(out, "%d nodes · %d exercises · %d links", snap.Len(), snap.ExerciseCount(), snap.LinkCount())
			} else {
				for _, p := range problems {
					printError(out, "%s", describeProblem(p))
				}
			}

			if len(problems) > 0 {
				return errors.Integrity("catalog has %d integrity problem(s)", len(problems))
			}
			return nil
		},
	}
}

func describeProblem(p catalog.Problem) string {
	switch p.Kind {
	case catalog.ProblemDanglingParent:
		return fmt.Sprintf("%s: parent %q does not exist", strings.Join(p.NodeIDs, ", "), p.ParentID)
	case catalog.ProblemCycle:
		return fmt.Sprintf("cycle: %s", strings.Join(p.NodeIDs, " "+iconArrow+" "))
	}
	return fmt.Sprintf("%s: %s", p.Kind, strings.Join(p.NodeIDs, ", "))
}

// exportCommand writes the catalog as a JSON or YAML document.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as a JSON or YAML document",
		Long: `Write the catalog as a JSON or YAML document. Any backend can be exported, so
this also converts a SQLite or MongoDB catalog into a file catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" && output != "" {
				f, err := store.FormatOf(output)
				if err != nil {
					return err
				}
				format = f
			}
			if format == "" {
				format = store.FormatJSON
			}
			if format != store.FormatJSON && format != store.FormatYAML {
				return errors.New(errors.ErrCodeUnsupported, "cannot export as %q (must be json or yaml)", format)
			}

			ctx := cmd.Context()
			s, loc, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.Snapshot(ctx)
			if err != nil {
				return err
			}
			doc := graph.FromCatalog(snap)

			if output == "" {
				return store.Encode(cmd.OutOrStdout(), doc, format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := store.Encode(f, doc, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Exported %d nodes", snap.Len())
			printDetail(out, "from %s", loc)
			printFile(out, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "document format: json, yaml (default from --output extension, else json)")
	return cmd
}
