package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "export.page_size").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. It returns nil if the
// configuration is valid. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateSearch(&cfg.Search)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validatePresets(&cfg.Presets)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError

	if s.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "must not be negative",
		})
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "must not be negative",
		})
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "must be positive",
		})
	}
	if s.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "must not be negative",
		})
	}
	if s.CORS.Enabled && len(s.CORS.AllowedOrigins) == 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.allowed_origins",
			Message: "at least one origin is required when CORS is enabled",
		})
	}
	return errs
}

func validateSearch(s *SearchConfig) []FieldError {
	var errs []FieldError

	switch s.Backend {
	case "sqlite":
		if s.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "search.sqlite.path",
				Message: "database path is required for the sqlite backend",
			})
		}
	case "memory":
		// No settings to check.
	default:
		errs = append(errs, FieldError{
			Field:   "search.backend",
			Message: fmt.Sprintf("unknown backend %q (expected \"sqlite\" or \"memory\")", s.Backend),
		})
	}
	return errs
}

func validateExport(e *ExportConfig) []FieldError {
	var errs []FieldError

	if e.SearchBatchTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.search_batch_timeout",
			Message: "must be positive",
		})
	}
	if e.MaxEntriesExportLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.max_entries_export_limit",
			Message: "must be positive",
		})
	}
	if e.PageSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.page_size",
			Message: "must be positive",
		})
	}
	if int64(e.PageSize) > e.MaxEntriesExportLimit && e.MaxEntriesExportLimit > 0 {
		errs = append(errs, FieldError{
			Field:   "export.page_size",
			Message: "must not exceed max_entries_export_limit",
		})
	}
	if e.MaxConcurrentRuns <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.max_concurrent_runs",
			Message: "must be positive",
		})
	}
	if e.Retry.MaxAttempts <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.retry.max_attempts",
			Message: "must be positive",
		})
	}
	if e.Retry.BaseDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "export.retry.base_delay",
			Message: "must not be negative",
		})
	}
	if e.Retry.MaxDelay > 0 && e.Retry.MaxDelay < e.Retry.BaseDelay {
		errs = append(errs, FieldError{
			Field:   "export.retry.max_delay",
			Message: "must not be less than base_delay",
		})
	}
	if e.Destination.Root == "" {
		errs = append(errs, FieldError{
			Field:   "export.destination.root",
			Message: "destination root directory is required",
		})
	}
	switch e.RunStore.Backend {
	case "sqlite":
		if e.RunStore.Path == "" {
			errs = append(errs, FieldError{
				Field:   "export.run_store.path",
				Message: "database path is required for the sqlite backend",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "export.run_store.backend",
			Message: fmt.Sprintf("unknown backend %q (expected \"sqlite\" or \"memory\")", e.RunStore.Backend),
		})
	}
	return errs
}

func validatePresets(p *PresetsConfig) []FieldError {
	var errs []FieldError

	if !p.Enabled {
		return nil
	}

	switch p.Source {
	case "file":
		if p.Path == "" {
			errs = append(errs, FieldError{
				Field:   "presets.path",
				Message: "preset directory is required for the file source",
			})
		}
	case "git":
		if p.Git.Repo == "" {
			errs = append(errs, FieldError{
				Field:   "presets.git.repo",
				Message: "repository URL is required for the git source",
			})
		}
		if p.Git.PollInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "presets.git.poll_interval",
				Message: "must not be negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "presets.source",
			Message: fmt.Sprintf("unknown source %q (expected \"file\" or \"git\")", p.Source),
		})
	}

	switch p.Git.Auth.Method {
	case "", "none":
	case "basic":
		if p.Git.Auth.Username == "" || p.Git.Auth.Password == "" {
			errs = append(errs, FieldError{
				Field:   "presets.git.auth",
				Message: "username and password are required for basic authentication",
			})
		}
	case "token":
		if p.Git.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "presets.git.auth.token",
				Message: "token is required for token authentication",
			})
		}
	case "ssh":
		if p.Git.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "presets.git.auth.ssh_key_path",
				Message: "key path is required for ssh authentication",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "presets.git.auth.method",
			Message: fmt.Sprintf("unknown method %q", p.Git.Auth.Method),
		})
	}
	return errs
}

func validateRetention(r *RetentionConfig) []FieldError {
	var errs []FieldError

	if !r.Enabled {
		return nil
	}

	if r.Schedule == "" {
		errs = append(errs, FieldError{
			Field:   "retention.schedule",
			Message: "cron schedule is required when retention is enabled",
		})
	} else if _, err := cron.ParseStandard(r.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "retention.schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}
	if r.ArtifactMaxAge <= 0 {
		errs = append(errs, FieldError{
			Field:   "retention.artifact_max_age",
			Message: "must be positive",
		})
	}
	if r.RunMaxAge <= 0 {
		errs = append(errs, FieldError{
			Field:   "retention.run_max_age",
			Message: "must be positive",
		})
	}
	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (expected debug, info, warn, or error)", t.Logging.Level),
		})
	}
	switch t.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (expected json, text, or console)", t.Logging.Format),
		})
	}
	if t.Logging.BufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.buffer_size",
			Message: "must not be negative",
		})
	}

	if t.Metrics.Enabled {
		if !strings.HasPrefix(t.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "must start with /",
			})
		}
		if t.Metrics.Port < 0 || t.Metrics.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.port",
				Message: "must be between 0 and 65535",
			})
		}
	}

	if t.Tracing.Enabled {
		switch t.Tracing.Exporter {
		case "otlp":
			if t.Tracing.Endpoint == "" {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.endpoint",
					Message: "endpoint is required for the otlp exporter",
				})
			}
		case "none":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.exporter",
				Message: fmt.Sprintf("unknown exporter %q (expected \"otlp\" or \"none\")", t.Tracing.Exporter),
			})
		}
		switch t.Tracing.Sampler {
		case "always", "never", "ratio", "parent":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("unknown sampler %q", t.Tracing.Sampler),
			})
		}
		if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "must be between 0.0 and 1.0",
			})
		}
	}
	return errs
}
