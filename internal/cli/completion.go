package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for musclegraph.

Node IDs are completed from the configured catalog.

Bash:
  $ source <(musclegraph completion bash)

Zsh:
  $ musclegraph completion zsh > "${fpath[1]}/_musclegraph"

Fish:
  $ musclegraph completion fish > ~/.config/fish/completions/musclegraph.fish

PowerShell:
  PS> musclegraph completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeNodeID completes the first positional argument with node IDs from
// the catalog. Completion stays silent when the catalog cannot be read.
func (c *CLI) completeNodeID(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.preRun(cmd, args); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx := cmd.Context()
	s, _, err := c.openStore(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer s.Close()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, n := range snap.Nodes() {
		if strings.HasPrefix(n.ID, toComplete) {
			ids = append(ids, n.ID+"\t"+n.Name)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
