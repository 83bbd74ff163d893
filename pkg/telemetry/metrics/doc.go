// Package metrics provides Prometheus metrics collection for leakscan.
//
// # Metrics Categories
//
//   - Scan Metrics: scan count by kind and risk level, duration, risk score
//     distribution, pattern and keyword matches
//   - Tuning Metrics: tuning document loads by outcome, current rules
//     version, skipped patterns
//   - HTTP Metrics: API request count and duration by route
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordScan("input", result, elapsed)
//	http.Handle("/metrics", collector.Handler())
//
// All metrics live on a private registry. Pattern tags come from tuning
// documents, so their label values pass through a CardinalityLimiter and
// overflow into "other".
package metrics
