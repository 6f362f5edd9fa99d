package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/cli"
	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "spendguard",
	Short: "SpendGuard - usage accounting and spending limits for LLM APIs",
	Long: `SpendGuard tracks token usage and cost for LLM API calls against
configured spending limits.

Every tracked event is priced with exact decimal arithmetic, committed to
daily, monthly, and all-time aggregates, evaluated against configured
limits, and appended to a per-event journal. Limits warn before they are
reached and can hard-block calls once exceeded.

Exit codes: 0 success, 1 error, 2 spending limit exceeded,
3 invalid configuration.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ~/.spendguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// configPath resolves the configuration document path from the flag or
// the default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads and validates the configuration. A missing document
// at the default path means built-in defaults; a missing document named
// explicitly with --config is an error.
func loadConfig() (*config.Config, error) {
	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if cfgFile != "" {
			return nil, fmt.Errorf("configuration file %s does not exist", cfgFile)
		}
		return config.DefaultConfig(), nil
	}
	return config.LoadConfigWithEnvOverrides(path)
}

// initLogging installs the process-wide logger per configuration.
// --verbose overrides the configured level.
func initLogging(cfg *config.Config) error {
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	logger, err := logging.FromConfig(&cfg.Telemetry.Logging)
	if err != nil {
		return err
	}
	logger.SetDefault()
	return nil
}

// setup is the common preamble of every command that needs the engine:
// load configuration, then wire logging.
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
