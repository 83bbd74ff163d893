package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/leakscan/pkg/detector"
)

// Attribute keys use the "leakscan.*" namespace.
const (
	AttrScanID       = "leakscan.scan.id"
	AttrScanKind     = "leakscan.scan.kind"
	AttrTextLength   = "leakscan.scan.text_length"
	AttrRiskScore    = "leakscan.risk.score"
	AttrRiskLevel    = "leakscan.risk.level"
	AttrIsLeak       = "leakscan.risk.is_leak"
	AttrPatternTags  = "leakscan.patterns"
	AttrCategories   = "leakscan.keyword_categories"
	AttrRulesVersion = "leakscan.rules.version"
)

// SetScanAttributes records the outcome of an analysis on span. Only tags,
// categories and scores are recorded, never matched values.
func SetScanAttributes(span trace.Span, kind string, result *detector.Result) {
	if result == nil {
		return
	}
	span.SetAttributes(
		attribute.String(AttrScanKind, kind),
		attribute.Float64(AttrRiskScore, result.RiskScore),
		attribute.String(AttrRiskLevel, string(result.Tier.Level)),
		attribute.Bool(AttrIsLeak, result.IsLeak),
		attribute.StringSlice(AttrPatternTags, result.PatternTags),
		attribute.StringSlice(AttrCategories, result.KeywordCategories),
		attribute.Int64(AttrRulesVersion, int64(result.RulesVersion)),
	)
}
