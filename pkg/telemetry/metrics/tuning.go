package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
)

// TuningMetrics tracks tuning document loads.
//
// Metrics:
//   - leakscan_detector_tuning_loads_total: load attempts by status
//   - leakscan_detector_tuning_rules_version: rules version after the last merge
//   - leakscan_detector_tuning_skipped_patterns: invalid patterns in the last document
//   - leakscan_detector_tuning_last_success_timestamp_seconds: time of the last merge
type TuningMetrics struct {
	loadsTotal      *prometheus.CounterVec
	rulesVersion    prometheus.Gauge
	skippedPatterns prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// NewTuningMetrics creates and registers tuning metrics with the provided registry.
func NewTuningMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TuningMetrics {
	tm := &TuningMetrics{
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tuning_loads_total",
				Help:      "Total number of tuning document load attempts",
			},
			[]string{"status"},
		),

		rulesVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tuning_rules_version",
				Help:      "Rules version after the most recent tuning merge",
			},
		),

		skippedPatterns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tuning_skipped_patterns",
				Help:      "Number of invalid patterns skipped in the most recent tuning document",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tuning_last_success_timestamp_seconds",
				Help:      "Unix time of the most recent successful tuning merge",
			},
		),
	}

	registry.MustRegister(
		tm.loadsTotal,
		tm.rulesVersion,
		tm.skippedPatterns,
		tm.lastSuccess,
	)

	return tm
}

// RecordLoad records the outcome of a load attempt.
func (tm *TuningMetrics) RecordLoad(report detector.MergeReport, err error) {
	if err != nil {
		tm.loadsTotal.WithLabelValues("error").Inc()
		return
	}

	status := "success"
	if len(report.PatternErrors) > 0 {
		status = "partial"
	}
	tm.loadsTotal.WithLabelValues(status).Inc()
	tm.rulesVersion.Set(float64(report.Version))
	tm.skippedPatterns.Set(float64(len(report.PatternErrors)))
	tm.lastSuccess.Set(float64(time.Now().Unix()))
}
