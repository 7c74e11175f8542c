// Package importcmd implements the `quotectl import` command.
package importcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
	"github.com/jsamuelsen/quotekeeper/internal/app"
)

// Command implements `quotectl import`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the import command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the collection with the quotes in a JSON array file",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", args[0], err)
	}

	components, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	count, err := components.Store.Import(cmd.Context(), payload)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), app.MsgQuotesImported)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d quotes\n", count)

	return nil
}
