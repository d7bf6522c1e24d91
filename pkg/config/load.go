package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention EUROPA_SECTION_FIELD (e.g.,
// EUROPA_SERVER_LISTEN_ADDRESS). Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format
// EUROPA_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString("EUROPA_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("EUROPA_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("EUROPA_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("EUROPA_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	setDuration("EUROPA_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setInt("EUROPA_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)

	// Search overrides
	setString("EUROPA_SEARCH_BACKEND", &cfg.Search.Backend)
	setString("EUROPA_SEARCH_SQLITE_PATH", &cfg.Search.SQLite.Path)
	setDuration("EUROPA_SEARCH_SQLITE_BUSY_TIMEOUT", &cfg.Search.SQLite.BusyTimeout)

	// Export overrides. The batch timeout accepts either a duration
	// string ("2h") or a bare integer number of seconds, the unit the
	// original action's deployments used.
	if val := os.Getenv("EUROPA_EXPORT_SEARCH_BATCH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Export.SearchBatchTimeout = d
		} else if secs, err := strconv.Atoi(val); err == nil {
			cfg.Export.SearchBatchTimeout = time.Duration(secs) * time.Second
		}
	}
	setInt64("EUROPA_EXPORT_MAX_ENTRIES_EXPORT_LIMIT", &cfg.Export.MaxEntriesExportLimit)
	setInt("EUROPA_EXPORT_PAGE_SIZE", &cfg.Export.PageSize)
	setInt("EUROPA_EXPORT_MAX_CONCURRENT_RUNS", &cfg.Export.MaxConcurrentRuns)
	setInt("EUROPA_EXPORT_RETRY_MAX_ATTEMPTS", &cfg.Export.Retry.MaxAttempts)
	setDuration("EUROPA_EXPORT_RETRY_BASE_DELAY", &cfg.Export.Retry.BaseDelay)
	setDuration("EUROPA_EXPORT_RETRY_MAX_DELAY", &cfg.Export.Retry.MaxDelay)
	setString("EUROPA_EXPORT_DESTINATION_ROOT", &cfg.Export.Destination.Root)
	setString("EUROPA_EXPORT_RUN_STORE_BACKEND", &cfg.Export.RunStore.Backend)
	setString("EUROPA_EXPORT_RUN_STORE_PATH", &cfg.Export.RunStore.Path)
	setString("EUROPA_EXPORT_GENERATOR", &cfg.Export.Generator)

	// Preset overrides
	setBool("EUROPA_PRESETS_ENABLED", &cfg.Presets.Enabled)
	setString("EUROPA_PRESETS_SOURCE", &cfg.Presets.Source)
	setString("EUROPA_PRESETS_PATH", &cfg.Presets.Path)
	setBool("EUROPA_PRESETS_WATCH", &cfg.Presets.Watch)
	setString("EUROPA_PRESETS_GIT_REPO", &cfg.Presets.Git.Repo)
	setString("EUROPA_PRESETS_GIT_BRANCH", &cfg.Presets.Git.Branch)
	setString("EUROPA_PRESETS_GIT_CACHE_DIR", &cfg.Presets.Git.CacheDir)
	setDuration("EUROPA_PRESETS_GIT_POLL_INTERVAL", &cfg.Presets.Git.PollInterval)
	setString("EUROPA_PRESETS_GIT_AUTH_METHOD", &cfg.Presets.Git.Auth.Method)
	setString("EUROPA_PRESETS_GIT_AUTH_TOKEN", &cfg.Presets.Git.Auth.Token)

	// Retention overrides
	setBool("EUROPA_RETENTION_ENABLED", &cfg.Retention.Enabled)
	setString("EUROPA_RETENTION_SCHEDULE", &cfg.Retention.Schedule)
	setDuration("EUROPA_RETENTION_ARTIFACT_MAX_AGE", &cfg.Retention.ArtifactMaxAge)
	setDuration("EUROPA_RETENTION_RUN_MAX_AGE", &cfg.Retention.RunMaxAge)

	// Telemetry overrides
	setString("EUROPA_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("EUROPA_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("EUROPA_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setString("EUROPA_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	setBool("EUROPA_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	setString("EUROPA_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv("EUROPA_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func setString(env string, dst *string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func setInt(env string, dst *int) {
	if val := os.Getenv(env); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setInt64(env string, dst *int64) {
	if val := os.Getenv(env); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func setBool(env string, dst *bool) {
	if val := os.Getenv(env); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(env string, dst *time.Duration) {
	if val := os.Getenv(env); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
