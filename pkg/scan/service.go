package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/telemetry/logging"
	"mercator-hq/leakscan/pkg/telemetry/tracing"
)

// Kind identifies where the scanned text came from.
type Kind string

const (
	KindPage      Kind = "page"
	KindSelection Kind = "selection"
	KindInput     Kind = "input"
)

var (
	// ErrEmptySelection is returned when a selection scan carries no text.
	ErrEmptySelection = errors.New("no text selected")

	// ErrUnknownKind is returned for a request kind other than page,
	// selection or input.
	ErrUnknownKind = errors.New("unknown scan kind")
)

// unknownKindLabel stands in for a rejected kind in metrics so callers
// cannot mint label values.
const unknownKindLabel = "unknown"

// ParseKind converts s to a Kind. An empty string means KindInput.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindInput:
		return KindInput, nil
	case KindPage:
		return KindPage, nil
	case KindSelection:
		return KindSelection, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Request is a single piece of text to analyze.
type Request struct {
	Kind Kind `json:"kind"`
	Text string `json:"text"`

	// Source optionally names the document the text came from (a URL or
	// file path). It is echoed back in the report and never analyzed.
	Source string `json:"source,omitempty"`
}

// Report is the outcome of a scan.
type Report struct {
	ID         string           `json:"id"`
	Kind       Kind             `json:"kind"`
	Source     string           `json:"source,omitempty"`
	Result     *detector.Result `json:"result"`
	Duration   time.Duration    `json:"duration_ns"`
	TextLength int              `json:"text_length"`
}

// Analyzer computes a leak result for a piece of text.
type Analyzer interface {
	Analyze(text string) *detector.Result
	Version() uint64
}

// Recorder receives scan metrics.
type Recorder interface {
	RecordScan(kind string, result *detector.Result, duration time.Duration)
	RecordScanError(kind, reason string)
}

// Options configures a Service. Every field is optional.
type Options struct {
	Recorder Recorder
	Tracer   *tracing.Tracer
	Logger   *slog.Logger
}

// Service runs scans. It is safe for concurrent use.
type Service struct {
	analyzer Analyzer
	recorder Recorder
	tracer   *tracing.Tracer
	logger   *slog.Logger
}

// NewService creates a Service around a.
func NewService(a Analyzer, opts Options) *Service {
	s := &Service{
		analyzer: a,
		recorder: opts.Recorder,
		tracer:   opts.Tracer,
		logger:   opts.Logger,
	}
	if s.tracer == nil {
		s.tracer = tracing.Noop()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "scan")
	return s
}

// Scan analyzes req.Text and returns a report.
//
// An unknown kind returns ErrUnknownKind. A selection made of whitespace
// only returns ErrEmptySelection. Page and input scans of empty text
// succeed with a zero-score result.
func (s *Service) Scan(ctx context.Context, req Request) (*Report, error) {
	kind, err := ParseKind(string(req.Kind))
	if err != nil {
		s.recordError(unknownKindLabel, "unknown_kind")
		return nil, err
	}

	id := uuid.NewString()
	ctx = logging.WithScanID(ctx, id)

	ctx, span := s.tracer.Start(ctx, "scan."+string(kind))
	defer span.End()
	span.SetAttributes(
		attribute.String(tracing.AttrScanID, id),
		attribute.Int(tracing.AttrTextLength, utf8.RuneCountInString(req.Text)),
	)

	if kind == KindSelection && strings.TrimSpace(req.Text) == "" {
		s.recordError(string(kind), "empty_selection")
		tracing.SetStatus(span, ErrEmptySelection)
		return nil, ErrEmptySelection
	}

	start := time.Now()
	result := s.analyzer.Analyze(req.Text)
	duration := time.Since(start)

	tracing.SetScanAttributes(span, string(kind), result)
	tracing.SetStatus(span, nil)

	if s.recorder != nil {
		s.recorder.RecordScan(string(kind), result, duration)
	}

	s.logger.DebugContext(ctx, "scan completed",
		"kind", kind,
		"risk_score", result.RiskScore,
		"risk_level", result.Tier.Level,
		"is_leak", result.IsLeak,
		"patterns", result.PatternTags,
		"keyword_categories", result.KeywordCategories,
		"rules_version", result.RulesVersion,
		"duration_ms", duration.Milliseconds(),
	)

	return &Report{
		ID:         id,
		Kind:       kind,
		Source:     req.Source,
		Result:     result,
		Duration:   duration,
		TextLength: utf8.RuneCountInString(req.Text),
	}, nil
}

// RulesVersion returns the version of the rules scans currently run against.
func (s *Service) RulesVersion() uint64 {
	return s.analyzer.Version()
}

func (s *Service) recordError(kind, reason string) {
	if s.recorder != nil {
		s.recorder.RecordScanError(kind, reason)
	}
}
