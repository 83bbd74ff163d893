package config

import "time"

// Config is the root configuration structure for leakscan.
type Config struct {
	// Detector configures where tuning documents come from and how often
	// they are refreshed.
	Detector DetectorConfig `yaml:"detector"`

	// Server configures the HTTP scan API.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DetectorConfig configures tuning for the detector.
type DetectorConfig struct {
	// TuningSource is a file path or http(s) URL of the tuning document.
	// Empty means built-in rules only.
	// Example: "./ml_patterns.json"
	TuningSource string `yaml:"tuning_source"`

	// Watch reloads the tuning document when the file changes.
	// Ignored for HTTP sources.
	// Default: false
	Watch bool `yaml:"watch"`

	// RefreshSchedule is a cron expression for periodic reloads.
	// Example: "*/15 * * * *" or "@every 10m". Empty disables refresh.
	RefreshSchedule string `yaml:"refresh_schedule"`

	// FetchTimeout bounds a single HTTP fetch of the tuning document.
	// Default: 10s
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// DebounceInterval is the quiet period after a file change before reloading.
	// Default: 200ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive idle time.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps the size of a scan request body.
	// Default: 1MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS controls cross-origin access, e.g. from a browser extension.
	CORS CORSConfig `yaml:"cors"`

	// RateLimit throttles POST /v1/scan per client address.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// CORSConfig configures Cross-Origin Resource Sharing.
type CORSConfig struct {
	// Enabled turns on CORS headers.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists origins allowed to call the API.
	// Use ["*"] to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxAge is how long a preflight response may be cached.
	// Default: 1h
	MaxAge time.Duration `yaml:"max_age"`
}

// RateLimitConfig configures scan request throttling.
type RateLimitConfig struct {
	// Enabled turns on throttling.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained scan rate allowed per client.
	// Default: 20
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of scans a client may send at once.
	// Default: twice RequestsPerSecond
	Burst int `yaml:"burst"`

	// MaxConcurrent bounds scans in flight across all clients. 0 means
	// unlimited.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks detected sensitive values in string log attributes.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "leakscan"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "detector"
	Subsystem string `yaml:"subsystem"`

	// MaxTagCardinality limits distinct pattern tag label values.
	// Default: 100
	MaxTagCardinality int `yaml:"max_tag_cardinality"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "leakscan"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`
}
