package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/musclegraph/internal/cli"
	mgerrors "github.com/matzehuels/musclegraph/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	return root.ExecuteContext(ctx)
}

// exitCode distinguishes a corrupt catalog (3) and a missing node (4) from
// other failures (1) so scripts can branch on them.
func exitCode(err error) int {
	switch mgerrors.GetCode(err) {
	case mgerrors.ErrCodeIntegrity:
		return 3
	case mgerrors.ErrCodeNotFound:
		return 4
	}
	return 1
}
