package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
)

// OverflowLabel replaces label values beyond the cardinality limit.
const OverflowLabel = "other"

// Collector owns the registry and every metric subsystem.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	scanMetrics   *ScanMetrics
	tuningMetrics *TuningMetrics
	httpMetrics   *HTTPMetrics

	// Pattern tags and keyword categories are open-ended.
	tagLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a new private
// registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	limit := cfg.MaxTagCardinality
	if limit <= 0 {
		limit = config.DefaultMaxTagCardinality
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		scanMetrics:   NewScanMetrics(cfg, registry),
		tuningMetrics: NewTuningMetrics(cfg, registry),
		httpMetrics:   NewHTTPMetrics(cfg, registry),
		tagLimiter:    NewCardinalityLimiter(limit),
	}
}

// RecordScan records a completed analysis.
//
// Parameters:
//   - kind: scan kind ("page", "selection", "input")
//   - result: the analysis result
//   - duration: time spent analyzing
func (c *Collector) RecordScan(kind string, result *detector.Result, duration time.Duration) {
	if !c.config.Enabled || result == nil {
		return
	}

	c.scanMetrics.RecordScan(kind, result, duration)

	for _, tag := range result.PatternTags {
		c.scanMetrics.RecordPattern(c.limit("pattern", tag), result.Patterns[tag].Count)
	}
	for _, category := range result.KeywordCategories {
		c.scanMetrics.RecordKeywords(c.limit("keyword", category), len(result.Keywords[category]))
	}
}

// RecordScanError records a rejected scan request.
func (c *Collector) RecordScanError(kind, reason string) {
	if !c.config.Enabled {
		return
	}
	c.scanMetrics.RecordError(kind, reason)
}

// ObserveTuningLoad records a tuning document load attempt. It satisfies
// tuning.Observer.
func (c *Collector) ObserveTuningLoad(source string, report detector.MergeReport, err error) {
	if !c.config.Enabled {
		return
	}
	c.tuningMetrics.RecordLoad(report, err)
}

// RecordHTTPRequest records a served API request.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, status, duration)
}

// RecordThrottled records a scan request rejected by the rate limiter.
// reason is "rate" or "concurrency".
func (c *Collector) RecordThrottled(reason string) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordThrottled(reason)
}

func (c *Collector) limit(metric, value string) string {
	if c.tagLimiter.Allow(metric + ":" + value) {
		return value
	}
	return OverflowLabel
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet may be used: it is already known or the
// limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
