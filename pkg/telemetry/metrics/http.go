package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/leakscan/pkg/config"
)

// HTTPMetrics tracks the scan API.
//
// Metrics:
//   - leakscan_detector_http_requests_total: requests by route, method, status code
//   - leakscan_detector_http_request_duration_seconds: request duration by route
//   - leakscan_detector_http_throttled_total: requests rejected by the rate limiter by reason
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	throttledTotal  *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"route", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		throttledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_throttled_total",
				Help:      "Total number of scan requests rejected by the rate limiter",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration, hm.throttledTotal)

	return hm
}

// RecordRequest records one served request.
func (hm *HTTPMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	hm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordThrottled records a request rejected by the rate limiter.
func (hm *HTTPMetrics) RecordThrottled(reason string) {
	hm.throttledTotal.WithLabelValues(reason).Inc()
}
