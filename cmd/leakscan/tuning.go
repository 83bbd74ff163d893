package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/leakscan/pkg/cli"
	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/tuning"
)

var errCSVUnsupported = errors.New("csv output is only available for scan reports")

var tuningFlags struct {
	format  string
	timeout time.Duration
}

var tuningCmd = &cobra.Command{
	Use:   "tuning",
	Short: "Work with tuning documents",
	Long: `Tuning documents override the detector's rule tables at runtime.

A document is the JSON exported by the training pipeline:

  {
    "patterns": {"employee_id": "EMP-\\d{6}"},
    "sensitiveKeywords": {"개인정보": ["주민번호", "여권번호"]},
    "mlFeatures": {"topLeakKeywords": [["급여", 2.5]], "modelType": "RandomForest"},
    "version": "1.0",
    "exportedAt": "2025-10-01T12:00:00"
  }`,
}

var tuningValidateCmd = &cobra.Command{
	Use:   "validate <path|url>",
	Short: "Validate a tuning document",
	Long: `Load a tuning document and check that every pattern compiles.

Invalid patterns are skipped at runtime; validate reports them and exits
non-zero so that a broken export is caught before it is deployed.

Examples:
  leakscan tuning validate ml_patterns.json
  leakscan tuning validate https://models.internal/ml_patterns.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTuningValidate,
}

func init() {
	rootCmd.AddCommand(tuningCmd)
	tuningCmd.AddCommand(tuningValidateCmd)

	tuningValidateCmd.Flags().StringVarP(&tuningFlags.format, "format", "o", "text", "output format: text, json")
	tuningValidateCmd.Flags().DurationVar(&tuningFlags.timeout, "timeout", config.DefaultFetchTimeout, "fetch timeout for URL sources")
}

// tuningValidation is the result of validating a tuning document.
type tuningValidation struct {
	Source         string           `json:"source"`
	Valid          bool             `json:"valid"`
	Version        string           `json:"version,omitempty"`
	ExportedAt     string           `json:"exported_at,omitempty"`
	ModelType      string           `json:"model_type,omitempty"`
	Patterns       int              `json:"patterns"`
	Categories     int              `json:"categories"`
	MLKeywords     int              `json:"ml_keywords"`
	SkippedEntries int              `json:"skipped_entries,omitempty"`
	InvalidPattern []invalidPattern `json:"invalid_patterns,omitempty"`
}

type invalidPattern struct {
	Tag        string `json:"tag"`
	Expression string `json:"expression"`
	Error      string `json:"error"`
}

// String renders the validation for text output.
func (v tuningValidation) String() string {
	var b strings.Builder
	mark := "✓"
	if !v.Valid {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %s\n", mark, v.Source)
	if v.Version != "" {
		fmt.Fprintf(&b, "  version:     %s\n", v.Version)
	}
	if v.ExportedAt != "" {
		fmt.Fprintf(&b, "  exported at: %s\n", v.ExportedAt)
	}
	if v.ModelType != "" {
		fmt.Fprintf(&b, "  model type:  %s\n", v.ModelType)
	}
	fmt.Fprintf(&b, "  patterns:    %d\n", v.Patterns)
	fmt.Fprintf(&b, "  categories:  %d\n", v.Categories)
	fmt.Fprintf(&b, "  ml keywords: %d", v.MLKeywords)
	if v.SkippedEntries > 0 {
		fmt.Fprintf(&b, "\n  skipped:     %d malformed keyword entries", v.SkippedEntries)
	}
	for _, p := range v.InvalidPattern {
		fmt.Fprintf(&b, "\n  invalid pattern %q (%s): %s", p.Tag, p.Expression, p.Error)
	}
	return b.String()
}

func runTuningValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(tuningFlags.format)
	if err != nil {
		return cli.NewCommandError("tuning validate", err)
	}
	if format == cli.FormatCSV {
		return cli.NewCommandError("tuning validate", errCSVUnsupported)
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewCommandError("tuning validate", err)
	}

	src := tuning.NewSource(args[0], tuningFlags.timeout)
	doc, err := src.Load(commandContext(cmd))
	if err != nil {
		return cli.NewCommandError("tuning validate", err)
	}

	result := validateDocument(src.String(), doc)
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return cli.NewCommandError("tuning validate", err)
	}

	if !result.Valid {
		return cli.NewCommandError("tuning validate",
			fmt.Errorf("%d invalid pattern(s) in %s", len(result.InvalidPattern), src))
	}
	return nil
}

func validateDocument(source string, doc *tuning.Document) tuningValidation {
	t := doc.Tuning()
	v := tuningValidation{
		Source:     source,
		Version:    doc.Version,
		ExportedAt: doc.ExportedAt,
		ModelType:  doc.ModelType(),
		Patterns:   len(t.Patterns),
		Categories: len(t.SensitiveKeywords),
		MLKeywords: len(t.MLKeywords),
	}

	for _, rej := range doc.Rejected {
		if rej.Section != "patterns" {
			v.SkippedEntries++
		}
	}

	errs := doc.Validate()
	sort.Slice(errs, func(i, j int) bool { return errs[i].Tag < errs[j].Tag })
	for _, perr := range errs {
		v.InvalidPattern = append(v.InvalidPattern, invalidPattern{
			Tag:        perr.Tag,
			Expression: perr.Source,
			Error:      patternErrorMessage(perr),
		})
	}
	v.Valid = len(v.InvalidPattern) == 0
	return v
}

func patternErrorMessage(perr detector.PatternError) string {
	if perr.Err == nil {
		return "invalid pattern"
	}
	return perr.Err.Error()
}
