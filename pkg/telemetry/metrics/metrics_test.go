package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:           true,
		Namespace:         "test",
		Subsystem:         "metrics",
		MaxTagCardinality: 100,
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, config.DefaultMetricsNamespace)
	}
	if cfg.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("Subsystem = %q, want %q", cfg.Subsystem, config.DefaultMetricsSubsystem)
	}
}

func TestCollector_RecordScan(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	det := detector.New()

	tests := []struct {
		kind  string
		text  string
		level detector.Level
		leak  bool
	}{
		{"input", "연락처는 010-1234-5678입니다", detector.LevelLow, false},
		{"selection", "900101-1234567", detector.LevelHigh, true},
		{"page", "", detector.LevelLow, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			result := det.Analyze(tt.text)
			collector.RecordScan(tt.kind, result, time.Millisecond)

			got := testutil.ToFloat64(collector.scanMetrics.scansTotal.WithLabelValues(tt.kind, string(tt.level)))
			if got != 1 {
				t.Errorf("scans_total{%s,%s} = %v, want 1", tt.kind, tt.level, got)
			}

			leaks := testutil.ToFloat64(collector.scanMetrics.leaksTotal.WithLabelValues(tt.kind))
			if want := map[bool]float64{true: 1, false: 0}[tt.leak]; leaks != want {
				t.Errorf("leaks_total{%s} = %v, want %v", tt.kind, leaks, want)
			}
		})
	}

	if got := testutil.ToFloat64(collector.scanMetrics.patternMatches.WithLabelValues(detector.TagPhone)); got != 1 {
		t.Errorf("pattern_matches_total{phone} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.scanMetrics.patternMatches.WithLabelValues(detector.TagResidentID)); got != 1 {
		t.Errorf("pattern_matches_total{resident-id} = %v, want 1", got)
	}
}

func TestCollector_RecordScan_Keywords(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	result := detector.New().Analyze("대외비 기밀 문서")

	collector.RecordScan("input", result, time.Millisecond)

	got := testutil.ToFloat64(collector.scanMetrics.keywordMatches.WithLabelValues(detector.CategoryConfidential))
	if got != 2 {
		t.Errorf("keyword_matches_total{confidential} = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordScan("input", detector.New().Analyze("900101-1234567"), time.Millisecond)
	collector.RecordScanError("selection", "empty")
	collector.ObserveTuningLoad("memory", detector.MergeReport{Version: 1}, nil)
	collector.RecordHTTPRequest("/v1/scan", "POST", 200, time.Millisecond)

	if n := testutil.CollectAndCount(collector.scanMetrics.scansTotal); n != 0 {
		t.Errorf("scans_total series = %d, want 0", n)
	}
	if n := testutil.CollectAndCount(collector.tuningMetrics.loadsTotal); n != 0 {
		t.Errorf("tuning_loads_total series = %d, want 0", n)
	}
}

func TestCollector_PatternCardinality(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTagCardinality = 1
	collector := NewCollector(cfg, nil)

	det := detector.New()
	collector.RecordScan("input", det.Analyze("test@example.com"), time.Millisecond)
	collector.RecordScan("input", det.Analyze("010-1234-5678"), time.Millisecond)

	if got := testutil.ToFloat64(collector.scanMetrics.patternMatches.WithLabelValues(detector.TagEmail)); got != 1 {
		t.Errorf("pattern_matches_total{email} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.scanMetrics.patternMatches.WithLabelValues(OverflowLabel)); got != 1 {
		t.Errorf("pattern_matches_total{other} = %v, want 1", got)
	}
}

func TestCollector_RecordScanError_BoundsKind(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordScanError("selection", "empty_selection")
	for _, kind := range []string{"clipboard", "clipboard-2", "../etc", ""} {
		collector.RecordScanError(kind, "unknown_kind")
	}

	if n := testutil.CollectAndCount(collector.scanMetrics.errorsTotal); n != 2 {
		t.Errorf("scan_errors_total series = %d, want 2", n)
	}
	if got := testutil.ToFloat64(collector.scanMetrics.errorsTotal.WithLabelValues(UnknownKindLabel, "unknown_kind")); got != 4 {
		t.Errorf("scan_errors_total{unknown} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.scanMetrics.errorsTotal.WithLabelValues("selection", "empty_selection")); got != 1 {
		t.Errorf("scan_errors_total{selection} = %v, want 1", got)
	}
}

func TestCollector_ObserveTuningLoad(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveTuningLoad("file:a.json", detector.MergeReport{Version: 1}, nil)
	collector.ObserveTuningLoad("file:a.json", detector.MergeReport{
		Version:       2,
		PatternErrors: []detector.PatternError{{Tag: "broken"}},
	}, nil)
	collector.ObserveTuningLoad("file:a.json", detector.MergeReport{}, errors.New("missing"))

	for status, want := range map[string]float64{"success": 1, "partial": 1, "error": 1} {
		if got := testutil.ToFloat64(collector.tuningMetrics.loadsTotal.WithLabelValues(status)); got != want {
			t.Errorf("tuning_loads_total{%s} = %v, want %v", status, got, want)
		}
	}
	if got := testutil.ToFloat64(collector.tuningMetrics.rulesVersion); got != 2 {
		t.Errorf("tuning_rules_version = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.tuningMetrics.skippedPatterns); got != 1 {
		t.Errorf("tuning_skipped_patterns = %v, want 1", got)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordHTTPRequest("/v1/scan", "POST", 200, 5*time.Millisecond)
	collector.RecordHTTPRequest("/v1/scan", "POST", 400, time.Millisecond)

	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("/v1/scan", "POST", "400")); got != 1 {
		t.Errorf("http_requests_total{400} = %v, want 1", got)
	}
}

func TestCollector_RecordThrottled(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordThrottled("rate")
	collector.RecordThrottled("rate")
	collector.RecordThrottled("concurrency")

	if got := testutil.ToFloat64(collector.httpMetrics.throttledTotal.WithLabelValues("rate")); got != 2 {
		t.Errorf("http_throttled_total{rate} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.httpMetrics.throttledTotal.WithLabelValues("concurrency")); got != 1 {
		t.Errorf("http_throttled_total{concurrency} = %v, want 1", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(2)

	if !limiter.Allow("a") || !limiter.Allow("b") {
		t.Fatal("expected first two label sets to be allowed")
	}
	if limiter.Allow("c") {
		t.Error("expected third label set to be rejected")
	}
	if !limiter.Allow("a") {
		t.Error("expected existing label set to be allowed")
	}
	if limiter.Count() != 2 {
		t.Errorf("Count() = %d, want 2", limiter.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordScan("input", detector.New().Analyze("900101-1234567"), time.Millisecond)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "test_metrics_scans_total") {
		t.Errorf("metrics output missing scans_total:\n%s", body)
	}
}
