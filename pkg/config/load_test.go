package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leakscan.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
detector:
  tuning_source: "./ml_patterns.json"
  watch: true
  refresh_schedule: "@every 10m"

server:
  listen_address: "0.0.0.0:9000"
  read_timeout: "5s"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Detector.TuningSource != "./ml_patterns.json" {
		t.Errorf("expected tuning source %q, got %q", "./ml_patterns.json", cfg.Detector.TuningSource)
	}
	if !cfg.Detector.Watch {
		t.Error("expected watch to be enabled")
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9000", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout %v, got %v", 5*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", DefaultWriteTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Unset true-by-default booleans stay true.
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to stay enabled by default")
	}
	if !cfg.Telemetry.Logging.Redact {
		t.Error("expected log redaction to stay enabled by default")
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Detector.TuningSource != "" {
		t.Errorf("expected no tuning source, got %q", cfg.Detector.TuningSource)
	}
}

func TestLoadConfig_ExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  metrics:
    enabled: false
  logging:
    redact: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Telemetry.Logging.Redact {
		t.Error("expected redaction disabled")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [unclosed")
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, `
telemetry:
  logging:
    level: "verbose"
`)
		_, err := LoadConfig(path)
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Errors[0].Field != "telemetry.logging.level" {
			t.Errorf("expected telemetry.logging.level error, got %q", verr.Errors[0].Field)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9000"
`)

	t.Setenv("LEAKSCAN_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("LEAKSCAN_DETECTOR_TUNING_SOURCE", "https://example.com/ml_patterns.json")
	t.Setenv("LEAKSCAN_DETECTOR_REFRESH_SCHEDULE", "@hourly")
	t.Setenv("LEAKSCAN_DETECTOR_FETCH_TIMEOUT", "3s")
	t.Setenv("LEAKSCAN_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("LEAKSCAN_TELEMETRY_METRICS_ENABLED", "false")
	t.Setenv("LEAKSCAN_TELEMETRY_TRACING_SAMPLE_RATIO", "not-a-number")
	t.Setenv("LEAKSCAN_SERVER_CORS_ALLOWED_ORIGINS", "chrome-extension://abc, ,https://intranet.example")
	t.Setenv("LEAKSCAN_SERVER_RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Detector.TuningSource != "https://example.com/ml_patterns.json" {
		t.Errorf("expected env tuning source, got %q", cfg.Detector.TuningSource)
	}
	if cfg.Detector.RefreshSchedule != "@hourly" {
		t.Errorf("expected env schedule, got %q", cfg.Detector.RefreshSchedule)
	}
	if cfg.Detector.FetchTimeout != 3*time.Second {
		t.Errorf("expected fetch timeout 3s, got %v", cfg.Detector.FetchTimeout)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected logging level warn, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled by env")
	}
	if !cfg.Server.CORS.Enabled || len(cfg.Server.CORS.AllowedOrigins) != 2 {
		t.Errorf("expected CORS enabled with 2 origins, got %+v", cfg.Server.CORS)
	}
	if !cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("expected rate limit 2.5/s from env, got %+v", cfg.Server.RateLimit)
	}
	if cfg.Telemetry.Tracing.SampleRatio != DefaultTracingRatio {
		t.Errorf("expected unparsable ratio to be ignored, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_RevalidatesOverrides(t *testing.T) {
	t.Setenv("LEAKSCAN_TELEMETRY_LOGGING_FORMAT", "xml")

	if _, err := LoadConfigWithEnvOverrides(""); err == nil {
		t.Error("expected validation error for env-provided format")
	}
}
