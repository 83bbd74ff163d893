// Package config provides configuration management for leakscan.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment, and validated before use.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("leakscan.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("leakscan.yaml")
//
// An empty path skips the file and starts from defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LEAKSCAN_SECTION_FIELD.
// For example:
//
//   - LEAKSCAN_DETECTOR_TUNING_SOURCE overrides detector.tuning_source
//   - LEAKSCAN_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - LEAKSCAN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// There is no package-level configuration; callers pass *Config explicitly.
package config
