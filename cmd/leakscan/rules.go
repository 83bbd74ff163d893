package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/leakscan/pkg/cli"
)

var rulesFlags struct {
	format string
	tuning string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active rule tables",
	Long: `Print the pattern rules, keyword categories and ML keywords in effect.

When a tuning source is configured (or given with --tuning) it is loaded and
merged first, so the output shows exactly what a scan would use.

Examples:
  # Built-in rules
  leakscan rules

  # Rules after merging a tuning document, as JSON
  leakscan rules --tuning ml_patterns.json --format json`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVarP(&rulesFlags.format, "format", "o", "text", "output format: text, json")
	rulesCmd.Flags().StringVar(&rulesFlags.tuning, "tuning", "", "tuning document path or URL (overrides config)")
}

func runRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(rulesFlags.format)
	if err != nil {
		return cli.NewCommandError("rules", err)
	}
	if format == cli.FormatCSV {
		return cli.NewCommandError("rules", errCSVUnsupported)
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewCommandError("rules", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rulesFlags.tuning != "" {
		cfg.Detector.TuningSource = rulesFlags.tuning
	}

	a, err := newApp(cfg, appOptions{logWriter: cmd.ErrOrStderr()})
	if err != nil {
		return cli.NewCommandError("rules", err)
	}
	defer a.close()

	a.loadTuningOnce(commandContext(cmd))

	if err := formatter.FormatTo(cmd.OutOrStdout(), a.detector.Rules()); err != nil {
		return cli.NewCommandError("rules", err)
	}
	return nil
}
