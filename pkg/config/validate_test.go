package config

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidate_Default(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("expected default config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		errorField string
	}{
		{
			name:       "watch without source",
			modify:     func(c *Config) { c.Detector.Watch = true },
			errorField: "detector.watch",
		},
		{
			name: "watch with url source",
			modify: func(c *Config) {
				c.Detector.TuningSource = "https://example.com/ml_patterns.json"
				c.Detector.Watch = true
			},
			errorField: "detector.watch",
		},
		{
			name:       "cors without origins",
			modify:     func(c *Config) { c.Server.CORS.Enabled = true },
			errorField: "server.cors.allowed_origins",
		},
		{
			name: "rate limit without rate",
			modify: func(c *Config) {
				c.Server.RateLimit.Enabled = true
				c.Server.RateLimit.RequestsPerSecond = -1
			},
			errorField: "server.rate_limit.requests_per_second",
		},
		{
			name:       "negative concurrency",
			modify:     func(c *Config) { c.Server.RateLimit.MaxConcurrent = -1 },
			errorField: "server.rate_limit.max_concurrent",
		},
		{
			name:       "url without host",
			modify:     func(c *Config) { c.Detector.TuningSource = "http://" },
			errorField: "detector.tuning_source",
		},
		{
			name: "bad schedule",
			modify: func(c *Config) {
				c.Detector.TuningSource = "ml_patterns.json"
				c.Detector.RefreshSchedule = "whenever"
			},
			errorField: "detector.refresh_schedule",
		},
		{
			name:       "schedule without source",
			modify:     func(c *Config) { c.Detector.RefreshSchedule = "@hourly" },
			errorField: "detector.refresh_schedule",
		},
		{
			name:       "listen address without port",
			modify:     func(c *Config) { c.Server.ListenAddress = "localhost" },
			errorField: "server.listen_address",
		},
		{
			name:       "negative read timeout",
			modify:     func(c *Config) { c.Server.ReadTimeout = -1 },
			errorField: "server.read_timeout",
		},
		{
			name:       "negative body limit",
			modify:     func(c *Config) { c.Server.MaxBodyBytes = -1 },
			errorField: "server.max_body_bytes",
		},
		{
			name:       "bad log format",
			modify:     func(c *Config) { c.Telemetry.Logging.Format = "console" },
			errorField: "telemetry.logging.format",
		},
		{
			name:       "relative metrics path",
			modify:     func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "tracing without endpoint",
			modify:     func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name:       "bad sampler",
			modify:     func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
			errorField: "telemetry.tracing.sampler",
		},
		{
			name:       "ratio out of range",
			modify:     func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			errorField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.errorField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.errorField, verr.Errors)
			}
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if !reflect.DeepEqual(*cfg, first) {
		t.Error("ApplyDefaults is not idempotent")
	}
	if cfg.Server.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("expected default body limit, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Telemetry.Metrics.Namespace)
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 0 {
		t.Errorf("expected no rate when rate limiting is off, got %v", cfg.Server.RateLimit.RequestsPerSecond)
	}

	cfg.Server.RateLimit.Enabled = true
	ApplyDefaults(cfg)
	if cfg.Server.RateLimit.RequestsPerSecond != DefaultRateLimitRPS {
		t.Errorf("expected default rate %v, got %v", DefaultRateLimitRPS, cfg.Server.RateLimit.RequestsPerSecond)
	}
}
