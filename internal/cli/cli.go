// Package cli implements the oliveapi command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/olivekit/oliveapi/pkg/api"
	"github.com/olivekit/oliveapi/pkg/buildinfo"
	"github.com/olivekit/oliveapi/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "oliveapi"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location (--config).
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Oliveapi calls Olive services with caching, retry, and offline queueing",
		Long:         `Oliveapi is the command-line companion to the Olive API client: make ad-hoc calls against a configured service, inspect and replay the offline mutation queue, and manage the response cache.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	// Carry the logger in the command context so every RunE and helper
	// pulls the same configured instance.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.callCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.queueCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Client Factory
// =============================================================================

// loadConfig loads the effective configuration for a command invocation.
func (c *CLI) loadConfig(ctx context.Context) (config.Config, error) {
	return config.Load(ctx, c.ConfigPath)
}

// newClient builds an API client from the loaded configuration.
func (c *CLI) newClient(ctx context.Context) (*api.Client, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return api.FromConfig(ctx, cfg, api.WithLogger(loggerFromContext(ctx)))
}
