// Package categoriescmd implements the `quotectl categories` command.
package categoriescmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Command implements `quotectl categories`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the categories command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "categories",
		Short: "List categories, marking the saved selection",
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

	list := components.Quotes.Categories(cmd.Context())
	out := cmd.OutOrStdout()

	for _, name := range append([]string{domain.AllCategories}, list.Categories...) {
		marker := " "
		if name == list.Selected {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, name)
	}

	return nil
}
