// Package rootcmd wires the root cobra.Command for the quotectl binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	addcmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/add"
	categoriescmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/categories"
	exportcmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/export"
	importcmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/import"
	randomcmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/random"
	selectcmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/select"
	"github.com/jsamuelsen/quotekeeper/cmd/quotectl/shared"
	synccmd "github.com/jsamuelsen/quotekeeper/cmd/quotectl/sync"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

// New creates and returns the root cobra.Command for quotectl.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Manage the local quote collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	f := root.PersistentFlags()
	f.StringVar(&ctx.ConfigDir, "config-dir", config.DefaultConfigDir, "Directory holding base.yaml and profile files")
	f.StringVar(&ctx.Profile, "profile", "local", "Configuration profile")
	f.StringVar(&ctx.Driver, "driver", "", "Override store.driver (memory, sqlite, toml)")
	f.StringVar(&ctx.StorePath, "store", "", "Override store.path")
	f.StringVar(&ctx.LogLevel, "log-level", "warn", "Log level for stderr output")

	root.AddCommand(
		addcmd.New(ctx).Cmd(),
		randomcmd.New(ctx).Cmd(),
		categoriescmd.New(ctx).Cmd(),
		selectcmd.New(ctx).Cmd(),
		exportcmd.New(ctx).Cmd(),
		importcmd.New(ctx).Cmd(),
		synccmd.New(ctx).Cmd(),
	)

	return root
}
