package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mercator-hq/leakscan/pkg/cli"
	"mercator-hq/leakscan/pkg/config"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "leakscan",
	Short: "leakscan - detect potential information leaks in text",
	Long: `leakscan scores text for potential information leaks.

Text is checked against sensitive-data patterns (resident registration
numbers, phone numbers, email addresses, card and account numbers, IP
addresses, passwords and API keys), sensitive keyword categories and an
optional ML keyword table. The result is a 0-100 risk score, a risk level,
masked samples of every match and a one-line summary.

Rule tables can be tuned at runtime from a JSON document exported by the
training pipeline (patterns, sensitiveKeywords, mlFeatures.topLeakKeywords).`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cli.ErrLeakDetected) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before LEAKSCAN_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadEnvFile loads the dotenv file so its LEAKSCAN_* variables take part in
// config overrides. Variables already set in the environment win. A missing
// default file is not an error.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return nil
		}
		return cli.NewConfigError("env-file", err.Error())
	}
	return nil
}

// loadConfig loads the config file with environment and flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, cli.NewConfigError("log-level", err.Error())
		}
	}
	return cfg, nil
}

// commandContext returns the command's context, or Background when the
// command was invoked without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
