package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
)

// ScanMetrics tracks analysis activity.
//
// Metrics:
//   - leakscan_detector_scans_total: scans by kind and risk level
//   - leakscan_detector_leaks_total: scans classified as leaks, by kind
//   - leakscan_detector_scan_errors_total: rejected scans by kind and reason
//   - leakscan_detector_scan_duration_seconds: analysis duration
//   - leakscan_detector_risk_score: risk score distribution
//   - leakscan_detector_pattern_matches_total: pattern matches by tag
//   - leakscan_detector_keyword_matches_total: keyword matches by category
type ScanMetrics struct {
	scansTotal     *prometheus.CounterVec
	leaksTotal     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	riskScore      *prometheus.HistogramVec
	patternMatches *prometheus.CounterVec
	keywordMatches *prometheus.CounterVec
}

// NewScanMetrics creates and registers scan metrics with the provided registry.
func NewScanMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ScanMetrics {
	sm := &ScanMetrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scans_total",
				Help:      "Total number of texts analyzed",
			},
			[]string{"kind", "level"},
		),

		leaksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "leaks_total",
				Help:      "Total number of texts classified as leaks",
			},
			[]string{"kind"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scan_errors_total",
				Help:      "Total number of rejected scan requests",
			},
			[]string{"kind", "reason"},
		),

		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scan_duration_seconds",
				Help:      "Duration of a single analysis in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
			},
			[]string{"kind"},
		),

		riskScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "risk_score",
				Help:      "Distribution of risk scores",
				Buckets:   []float64{0, 10, 25, 40, 55, 70, 85, 100},
			},
			[]string{"kind"},
		),

		patternMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pattern_matches_total",
				Help:      "Total number of pattern matches by tag",
			},
			[]string{"tag"},
		),

		keywordMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "keyword_matches_total",
				Help:      "Total number of keyword matches by category",
			},
			[]string{"category"},
		),
	}

	registry.MustRegister(
		sm.scansTotal,
		sm.leaksTotal,
		sm.errorsTotal,
		sm.scanDuration,
		sm.riskScore,
		sm.patternMatches,
		sm.keywordMatches,
	)

	return sm
}

// RecordScan records one analysis result.
func (sm *ScanMetrics) RecordScan(kind string, result *detector.Result, duration time.Duration) {
	kind = kindLabel(kind)
	sm.scansTotal.WithLabelValues(kind, string(result.Tier.Level)).Inc()
	sm.scanDuration.WithLabelValues(kind).Observe(duration.Seconds())
	sm.riskScore.WithLabelValues(kind).Observe(result.RiskScore)
	if result.IsLeak {
		sm.leaksTotal.WithLabelValues(kind).Inc()
	}
}

// RecordError records a rejected scan. Kinds other than page, selection and
// input are counted as "unknown".
func (sm *ScanMetrics) RecordError(kind, reason string) {
	sm.errorsTotal.WithLabelValues(kindLabel(kind), reason).Inc()
}

// UnknownKindLabel is the kind label used for unrecognized scan kinds.
const UnknownKindLabel = "unknown"

func kindLabel(kind string) string {
	switch kind {
	case "page", "selection", "input":
		return kind
	}
	return UnknownKindLabel
}

// RecordPattern adds count matches for tag.
func (sm *ScanMetrics) RecordPattern(tag string, count int) {
	if count > 0 {
		sm.patternMatches.WithLabelValues(tag).Add(float64(count))
	}
}

// RecordKeywords adds count matched keywords for category.
func (sm *ScanMetrics) RecordKeywords(category string, count int) {
	if count > 0 {
		sm.keywordMatches.WithLabelValues(category).Add(float64(count))
	}
}
