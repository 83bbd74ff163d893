package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/scan"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is one CSV row per scan report.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat converts s to an OutputFormat. An empty string means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or csv)", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the specified format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case "", FormatText:
		return &TextFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: true}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// TextFormatter renders scan reports and rule tables for a terminal.
// Other values are printed with %v.
type TextFormatter struct{}

// FormatTo writes data to w in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case *scan.Report:
		return renderReport(w, v)
	case []*scan.Report:
		for i, r := range v {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := renderReport(w, r); err != nil {
				return err
			}
		}
		return nil
	case detector.RuleSet:
		return renderRules(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format. A single-element report slice
// is written as a bare object.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	if reports, ok := data.([]*scan.Report); ok && len(reports) == 1 {
		data = reports[0]
	}
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVHeaders are the columns written by CSVFormatter.
var CSVHeaders = []string{
	"id", "kind", "source", "is_leak", "risk_score", "risk_level",
	"patterns", "keyword_categories", "ml_score", "rules_version",
}

// CSVFormatter writes one row per scan report. Multi-valued columns are
// joined with ';'.
type CSVFormatter struct{}

// FormatTo writes data to w in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	var reports []*scan.Report
	switch v := data.(type) {
	case *scan.Report:
		reports = []*scan.Report{v}
	case []*scan.Report:
		reports = v
	default:
		return fmt.Errorf("csv output is not supported for %T", data)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(CSVHeaders); err != nil {
		return err
	}
	for _, r := range reports {
		res := r.Result
		row := []string{
			r.ID,
			string(r.Kind),
			r.Source,
			strconv.FormatBool(res.IsLeak),
			formatScore(res.RiskScore),
			string(res.Tier.Level),
			strings.Join(res.PatternTags, ";"),
			strings.Join(res.KeywordCategories, ";"),
			formatScore(res.MLScore),
			strconv.FormatUint(res.RulesVersion, 10),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

const scoreBarWidth = 40

func renderReport(w io.Writer, r *scan.Report) error {
	res := r.Result
	var b strings.Builder

	verdict := "no leak"
	if res.IsLeak {
		verdict = "LEAK"
	}
	fmt.Fprintf(&b, "[%s] %s/%s %s %s\n",
		res.Tier.Label,
		formatScore(res.RiskScore), formatScore(detector.MaxScore),
		renderBar(scoreBarWidth, res.RiskScore/detector.MaxScore),
		verdict)

	header := []string{"scan " + r.ID, string(r.Kind)}
	if r.Source != "" {
		header = append(header, r.Source)
	}
	fmt.Fprintf(&b, "%s\n", strings.Join(header, " · "))

	if len(res.PatternTags) > 0 {
		b.WriteString("\nPatterns:\n")
		for _, tag := range res.PatternTags {
			hit := res.Patterns[tag]
			fmt.Fprintf(&b, "  %s: %d (e.g. %s)\n", tag, hit.Count, strings.Join(hit.Samples, ", "))
		}
	}

	if len(res.KeywordCategories) > 0 {
		b.WriteString("\nKeywords:\n")
		for _, category := range res.KeywordCategories {
			fmt.Fprintf(&b, "  %s: %s\n", category, strings.Join(res.Keywords[category], ", "))
		}
	}

	if res.MLScore > 0 {
		fmt.Fprintf(&b, "\nML score: %s\n", formatScore(res.MLScore))
	}

	fmt.Fprintf(&b, "\nSummary: %s\n", res.Summary)

	_, err := io.WriteString(w, b.String())
	return err
}

func renderRules(w io.Writer, rs detector.RuleSet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Rules version %d\n", rs.Version)

	fmt.Fprintf(tw, "\nPatterns (%d):\n", len(rs.Patterns))
	for _, p := range rs.Patterns {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\n", p.Tag, p.Weight, p.Origin, p.Expression)
	}

	fmt.Fprintf(tw, "\nKeywords (%d):\n", len(rs.Keywords))
	for _, c := range rs.Keywords {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Category, strings.Join(c.Keywords, ", "))
	}

	fmt.Fprintf(tw, "\nML keywords (%d):\n", len(rs.MLKeywords))
	for _, k := range rs.MLKeywords {
		fmt.Fprintf(tw, "  %s\t%s\n", k.Keyword, formatScore(k.Weight))
	}

	return tw.Flush()
}

// formatScore prints a score without trailing zeros.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
