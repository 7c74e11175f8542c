// Package synccmd implements the `quotectl sync` command.
package synccmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
)

// Command implements `quotectl sync`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the sync command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the collection with the remote posts service once",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	components, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	result, err := components.Sync.Sync(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sync %s: %d quotes\n", result.Outcome, result.Count)

	if n, ok := components.Notifications.Latest(); ok {
		fmt.Fprintln(out, n.Message)
	}

	return nil
}
