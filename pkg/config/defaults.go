package config

import "time"

// Default values for configuration fields.
const (
	// Detector defaults
	DefaultFetchTimeout     = 10 * time.Second
	DefaultDebounceInterval = 200 * time.Millisecond

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultCORSMaxAge      = time.Hour
	DefaultRateLimitRPS    = 20.0

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingRedact     = true
	DefaultMetricsEnabled    = true
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "leakscan"
	DefaultMetricsSubsystem  = "detector"
	DefaultMaxTagCardinality = 100
	DefaultTracingSampler    = "ratio"
	DefaultTracingRatio      = 0.1
	DefaultTracingService    = "leakscan"
	DefaultTracingInsecure   = true
)

// Default returns a configuration with every field at its default value.
// Boolean defaults that are true can only be expressed here, so LoadConfig
// decodes the YAML file on top of Default rather than a zero Config.
func Default() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{Redact: DefaultLoggingRedact},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Insecure: DefaultTracingInsecure},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Detector defaults
	if cfg.Detector.FetchTimeout == 0 {
		cfg.Detector.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Detector.DebounceInterval == 0 {
		cfg.Detector.DebounceInterval = DefaultDebounceInterval
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}
	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Metrics.MaxTagCardinality == 0 {
		cfg.Telemetry.Metrics.MaxTagCardinality = DefaultMaxTagCardinality
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
}
