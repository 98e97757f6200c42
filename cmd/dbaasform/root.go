package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbaas/databaseinfra/pkg/planclient"
)

// cli holds the settings shared by every command. Flags are bound through
// viper, so each one can also be set as DBAAS_<FLAG>, e.g. DBAAS_DB_DSN.
type cli struct {
	settings *viper.Viper
	// timeoutSet is true when --client-timeout was given. Otherwise the
	// client reads DBAAS_CLIENT_TIMEOUT itself, which also accepts seconds.
	timeoutSet bool
	out        io.Writer
	errOut     io.Writer
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{settings: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "dbaasform",
		Short: "Database creation form and its catalogue server",
		Long: `dbaasform serves the engine, plan and environment catalogue behind the
database creation form and provides a terminal rendition of the form.

The form keeps its fields consistent: the engine decides which plans are
offered and whether an endpoint can be entered, and the plan decides which
environments are offered.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	defaults := planclient.DefaultClientConfig()
	flags := rootCmd.PersistentFlags()
	flags.String("server", defaults.BaseURL, "Catalogue server URL")
	flags.Duration("client-timeout", defaults.Timeout, "Timeout of each request to the server")
	flags.StringP("output", "o", "table", "Output format: table, json, yaml")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		c.newServeCmd(),
		c.newFormCmd(),
		c.newEnginesCmd(),
		c.newPlansCmd(),
		c.newEnvironmentsCmd(),
		c.newHealthCmd(),
	)
	return rootCmd
}

func (c *cli) init(cmd *cobra.Command) error {
	c.settings.SetEnvPrefix("DBAAS")
	c.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.settings.AutomaticEnv()
	if err := c.settings.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	switch format := c.outputFormat(); format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s (use table, json or yaml)", format)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.settings.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	c.timeoutSet = cmd.Flags().Changed("client-timeout")
	c.out = cmd.OutOrStdout()
	c.errOut = cmd.ErrOrStderr()
	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))
	return nil
}

func (c *cli) outputFormat() string {
	return c.settings.GetString("output")
}

func (c *cli) logLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.settings.GetString("log-level")))
	return level
}

// newClient returns a catalogue client configured from the flags.
func (c *cli) newClient(logger *slog.Logger) *planclient.Client {
	cfg := planclient.ClientConfigFromEnv()
	cfg.BaseURL = c.settings.GetString("server")
	if c.timeoutSet {
		cfg.Timeout = c.settings.GetDuration("client-timeout")
	}
	return planclient.NewClient(cfg, logger)
}
