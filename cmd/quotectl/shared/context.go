// Package shared holds the state and helpers common to all quotectl commands.
package shared

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// SessionID keys the last displayed quote for CLI invocations.
const SessionID = "quotectl"

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ConfigDir holds base.yaml and the profile files.
	ConfigDir string

	// Profile selects {ConfigDir}/{Profile}.yaml.
	Profile string

	// Driver and StorePath override store.driver and store.path when set.
	Driver    string
	StorePath string

	// LogLevel applies to the stderr logger.
	LogLevel string
}

// Config loads and validates configuration with the flag overrides applied.
func (c *Context) Config() (*config.Config, error) {
	cfg, err := config.LoadDir(c.ConfigDir, c.Profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if c.Driver != "" {
		cfg.Store.Driver = c.Driver
	}

	if c.StorePath != "" {
		cfg.Store.Path = c.StorePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Open builds the application graph for one command. Logs go to the
// command's stderr so stdout carries only command output.
func (c *Context) Open(cmd *cobra.Command) (*bootstrap.Components, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   c.LogLevel,
		Format:  "pretty",
		Service: "quotectl",
		Version: cfg.App.Version,
	}, cmd.ErrOrStderr())

	return bootstrap.Build(cmd.Context(), cfg, logger, nil)
}

// PrintDisplay writes a picked quote, or the placeholder when there is none.
func PrintDisplay(w io.Writer, d domain.Display) {
	if d.Quote == nil {
		fmt.Fprintln(w, d.Message)
		return
	}

	fmt.Fprintf(w, "%q (%s)\n", d.Quote.Text, d.Quote.Category)
}
