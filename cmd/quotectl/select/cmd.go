// Package selectcmd implements the `quotectl select` command.
package selectcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
)

// Command implements `quotectl select`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the select command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "select <category>",
		Short: `Save the category selection ("all" for every category) and show a quote from it`,
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	components, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	display, err := components.Quotes.SelectCategory(cmd.Context(), shared.SessionID, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Selected: %s\n", components.Quotes.Selected())
	shared.PrintDisplay(out, display)

	return nil
}
