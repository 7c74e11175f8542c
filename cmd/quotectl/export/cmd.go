// Package exportcmd implements the `quotectl export` command.
package exportcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
)

// Command implements `quotectl export`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	out string
}

// New creates the export command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "export",
		Short: "Write the collection as a JSON array",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	c.cmd.Flags().StringVar(&c.out, "out", "", "Output file (default: stdout)")

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

	data, err := components.Store.Export(cmd.Context())
	if err != nil {
		return err
	}

	if c.out == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if err := os.WriteFile(c.out, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", c.out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d quotes to %s\n", components.Store.Len(), c.out)

	return nil
}
