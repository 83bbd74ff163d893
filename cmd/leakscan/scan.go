package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/leakscan/pkg/cli"
	"mercator-hq/leakscan/pkg/scan"
)

var scanFlags struct {
	text       string
	files      []string
	kind       string
	source     string
	format     string
	tuning     string
	failOnLeak bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [file...]",
	Short: "Scan text for potential information leaks",
	Long: `Scan text for potential information leaks and print a report.

Text is read from --text, from each file given with --file or as an argument,
or from stdin when neither is given. Files are scanned as "page" text and
--text/stdin as "input" text unless --kind says otherwise.

Examples:
  # Scan a string
  leakscan scan --text "연락처 010-1234-5678"

  # Scan files and emit CSV
  leakscan scan --format csv notes.txt minutes.txt

  # Scan a selection piped from another tool
  pbpaste | leakscan scan --kind selection

  # Use an exported tuning document, exit 2 on any leak
  leakscan scan --tuning https://models.internal/ml_patterns.json --fail-on-leak report.txt`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFlags.text, "text", "t", "", "text to scan")
	scanCmd.Flags().StringSliceVarP(&scanFlags.files, "file", "f", nil, "file to scan (repeatable)")
	scanCmd.Flags().StringVarP(&scanFlags.kind, "kind", "k", "", "scan kind: page, selection, input")
	scanCmd.Flags().StringVar(&scanFlags.source, "source", "", "source label for --text/stdin (URL or document name)")
	scanCmd.Flags().StringVarP(&scanFlags.format, "format", "o", "text", "output format: text, json, csv")
	scanCmd.Flags().StringVar(&scanFlags.tuning, "tuning", "", "tuning document path or URL (overrides config)")
	scanCmd.Flags().BoolVar(&scanFlags.failOnLeak, "fail-on-leak", false, "exit with status 2 when any scan reports a leak")
}

// scanInput is one piece of text to scan.
type scanInput struct {
	kind   scan.Kind
	source string
	read   func() (string, error)
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(scanFlags.format)
	if err != nil {
		return cli.NewCommandError("scan", err)
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewCommandError("scan", err)
	}

	inputs, err := collectInputs(cmd, args)
	if err != nil {
		return cli.NewCommandError("scan", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scanFlags.tuning != "" {
		cfg.Detector.TuningSource = scanFlags.tuning
	}

	a, err := newApp(cfg, appOptions{logWriter: cmd.ErrOrStderr()})
	if err != nil {
		return cli.NewCommandError("scan", err)
	}
	defer a.close()

	ctx := commandContext(cmd)
	a.loadTuningOnce(ctx)

	var progress cli.ProgressReporter
	if len(inputs) > 1 && format == cli.FormatText {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "Scanning")
		progress.Start(int64(len(inputs)))
	}

	reports := make([]*scan.Report, 0, len(inputs))
	for i, in := range inputs {
		text, err := in.read()
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return cli.NewCommandError("scan", err)
		}

		report, err := a.scanner.Scan(ctx, scan.Request{Kind: in.kind, Text: text, Source: in.source})
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return cli.NewCommandError("scan", fmt.Errorf("%s: %w", in.label(), err))
		}
		reports = append(reports, report)

		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	if progress != nil {
		progress.Finish()
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), reports); err != nil {
		return cli.NewCommandError("scan", err)
	}

	if scanFlags.failOnLeak {
		for _, r := range reports {
			if r.Result.IsLeak {
				return cli.ErrLeakDetected
			}
		}
	}
	return nil
}

// collectInputs resolves the scan inputs from flags, arguments and stdin.
func collectInputs(cmd *cobra.Command, args []string) ([]scanInput, error) {
	var kind scan.Kind
	if scanFlags.kind != "" {
		k, err := scan.ParseKind(scanFlags.kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	kindOr := func(fallback scan.Kind) scan.Kind {
		if kind != "" {
			return kind
		}
		return fallback
	}

	var inputs []scanInput

	if cmd.Flags().Changed("text") {
		text := scanFlags.text
		inputs = append(inputs, scanInput{
			kind:   kindOr(scan.KindInput),
			source: scanFlags.source,
			read:   func() (string, error) { return text, nil },
		})
	}

	files := append(append([]string(nil), scanFlags.files...), args...)
	for _, path := range files {
		inputs = append(inputs, scanInput{
			kind:   kindOr(scan.KindPage),
			source: path,
			read: func() (string, error) {
				data, err := os.ReadFile(path)
				if err != nil {
					return "", err
				}
				return string(data), nil
			},
		})
	}

	if len(inputs) == 0 {
		stdin := cmd.InOrStdin()
		inputs = append(inputs, scanInput{
			kind:   kindOr(scan.KindInput),
			source: scanFlags.source,
			read: func() (string, error) {
				data, err := io.ReadAll(stdin)
				if err != nil {
					return "", fmt.Errorf("failed to read stdin: %w", err)
				}
				return string(data), nil
			},
		})
	}

	return inputs, nil
}

func (in scanInput) label() string {
	if in.source != "" {
		return in.source
	}
	return string(in.kind)
}
