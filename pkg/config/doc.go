// Package config provides configuration management for Europa.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention EUROPA_SECTION_FIELD.
// For example:
//
//   - EUROPA_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - EUROPA_EXPORT_MAX_ENTRIES_EXPORT_LIMIT overrides export.max_entries_export_limit
//   - EUROPA_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Export Limits
//
// The export.search_batch_timeout and export.max_entries_export_limit
// settings are read once when a run starts and stay immutable for that
// run's lifetime. Reloading configuration affects only runs submitted
// afterwards; a running export never observes a limit change.
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer dependency injection with explicit Config instances.
package config
