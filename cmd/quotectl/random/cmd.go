// Package randomcmd implements the `quotectl random` command.
package randomcmd

import (
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
)

// Command implements `quotectl random`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	category string
}

// New creates the random command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "random",
		Short: "Show a random quote from the selected category",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	c.cmd.Flags().StringVar(&c.category, "category", "", "Pick from this category instead of the saved selection")

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

	display := components.Quotes.ShowRandom(cmd.Context(), shared.SessionID, c.category)
	shared.PrintDisplay(cmd.OutOrStdout(), display)

	return nil
}
