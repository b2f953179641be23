// Package cli defines the screenctl command tree: serving the API, running
// the background worker, one-shot resolver runs, and schema migrations.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand builds the screenctl root with all subcommands mounted.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "screenctl",
		Short:   "Maritime sanctions screening platform",
		Long:    "screenctl runs the vessel and counterparty sanctions screening platform:\nthe HTTP API, the background job worker, bulk entity risk resolution,\nand database schema migrations.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "override configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newWorkerCmd(opts),
		newResolveCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig resolves the config path, loads it, and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = "./config.yaml"
		if _, err := os.Stat(path); err != nil {
			path = "/etc/screening/config.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLoggerFromConfig builds the process logger.
func newLoggerFromConfig(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(cfg.Log)
}

// printJSON renders a command result as indented JSON on stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Execute runs the root command, printing errors to stderr.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return err
	}
	return nil
}
