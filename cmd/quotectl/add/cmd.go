// Package addcmd implements the `quotectl add` command.
package addcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
	"github.com/jsamuelsen/quotekeeper/internal/app"
)

// Command implements `quotectl add`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	text     string
	category string
}

// New creates the add command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "add",
		Short: "Add a quote to the collection",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.text, "text", "", "Quote text (required)")
	f.StringVar(&c.category, "category", "", "Quote category (required)")

	_ = c.cmd.MarkFlagRequired("text")
	_ = c.cmd.MarkFlagRequired("category")

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

	quote, err := components.Quotes.Add(cmd.Context(), c.text, c.category)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, app.MsgQuoteAdded)
	fmt.Fprintf(out, "%q (%s)\n", quote.Text, quote.Category)

	return nil
}
