package config

import "time"

// Config is the root configuration structure for Europa.
// It contains all configuration sections for the API server, the search
// document store, export limits and collaborators, the preset library,
// retention, and telemetry.
type Config struct {
	// Server contains HTTP API server configuration including listen
	// address, timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Search contains configuration for the document store export runs
	// drain entries from.
	Search SearchConfig `yaml:"search"`

	// Export contains run limits, destination, and run store settings.
	Export ExportConfig `yaml:"export"`

	// Presets contains configuration for the saved-request preset library.
	Presets PresetsConfig `yaml:"presets"`

	// Retention contains artifact and run-record pruning configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Export runs are asynchronous and are not bounded by it.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for active requests
	// to complete during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains cross-origin resource sharing settings.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS settings for the API server.
type CORSConfig struct {
	// Enabled controls whether CORS headers are added to responses.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is the list of origins allowed to make requests.
	// Use ["*"] to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is the list of allowed request headers.
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is the list of headers exposed to the browser.
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is how long preflight results may be cached, in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls the Access-Control-Allow-Credentials
	// header.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// SearchConfig contains configuration for the search document store.
type SearchConfig struct {
	// Backend selects the document store implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains settings for the SQLite document store.
	SQLite SQLiteSearchConfig `yaml:"sqlite"`
}

// SQLiteSearchConfig contains settings for the SQLite document store.
type SQLiteSearchConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/documents.db"
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy handler timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ExportConfig contains export run limits and collaborator settings.
//
// SearchBatchTimeout and MaxEntriesExportLimit are read once when a run
// starts and stay immutable for that run's lifetime; changes affect only
// runs submitted afterwards.
type ExportConfig struct {
	// SearchBatchTimeout bounds each search batch fetch, retries
	// included. A fetch exceeding it fails the run and is never retried.
	// Default: 2h
	SearchBatchTimeout time.Duration `yaml:"search_batch_timeout"`

	// MaxEntriesExportLimit caps how many entries one run may export.
	// Runs that hit the cap succeed with the truncated flag set.
	// Default: 100000
	MaxEntriesExportLimit int64 `yaml:"max_entries_export_limit"`

	// PageSize is the number of entries requested per search page.
	// Default: 100
	PageSize int `yaml:"page_size"`

	// MaxConcurrentRuns bounds how many exports execute at once.
	// Submissions beyond the bound queue in pending state.
	// Default: 4
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`

	// Retry controls backoff for transient search failures within a
	// batch deadline.
	Retry RetryConfig `yaml:"retry"`

	// Destination contains artifact destination settings.
	Destination DestinationConfig `yaml:"destination"`

	// RunStore contains run-record persistence settings.
	RunStore RunStoreConfig `yaml:"run_store"`

	// Generator names this deployment in bundle manifests.
	// Default: "europa"
	Generator string `yaml:"generator"`
}

// RetryConfig controls retries of transient search failures.
type RetryConfig struct {
	// MaxAttempts is the total number of fetch attempts per batch.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the delay before the first retry; each further retry
	// doubles it.
	// Default: 10s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff growth.
	// Default: 1m
	MaxDelay time.Duration `yaml:"max_delay"`
}

// DestinationConfig contains artifact destination settings.
type DestinationConfig struct {
	// Root is the directory committed artifacts are written to.
	// Default: "exports"
	Root string `yaml:"root"`
}

// RunStoreConfig contains run-record persistence settings.
type RunStoreConfig struct {
	// Backend selects the run store implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path for the "sqlite" backend.
	// Default: "data/runs.db"
	Path string `yaml:"path"`
}

// PresetsConfig contains configuration for the preset library: named,
// reusable export requests loaded from YAML files.
type PresetsConfig struct {
	// Enabled controls whether the preset library is loaded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Source selects where presets are loaded from.
	// Options: "file", "git"
	// Default: "file"
	Source string `yaml:"source"`

	// Path is the preset directory for the "file" source, or the
	// subdirectory within the repository for the "git" source.
	// Example: "/var/lib/europa/presets"
	Path string `yaml:"path"`

	// Watch enables automatic reload when preset files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Git contains settings for the "git" source.
	Git GitPresetsConfig `yaml:"git"`
}

// GitPresetsConfig contains settings for git-backed preset libraries.
type GitPresetsConfig struct {
	// Repo is the clone URL of the preset repository.
	Repo string `yaml:"repo"`

	// Branch is the branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// CacheDir is the local clone location.
	// Default: "data/presets-git"
	CacheDir string `yaml:"cache_dir"`

	// PollInterval is how often the repository is fetched for updates
	// when Watch is enabled.
	// Default: 5m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Auth contains authentication settings for the repository.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig contains git authentication settings.
type GitAuthConfig struct {
	// Method selects the authentication method.
	// Options: "none", "basic", "token", "ssh"
	// Default: "none"
	Method string `yaml:"method"`

	// Username is the username for "basic" authentication.
	Username string `yaml:"username"`

	// Password is the password for "basic" authentication.
	Password string `yaml:"password"`

	// Token is the access token for "token" authentication.
	Token string `yaml:"token"`

	// SSHKeyPath is the private key path for "ssh" authentication.
	SSHKeyPath string `yaml:"ssh_key_path"`
}

// RetentionConfig contains artifact and run-record pruning settings.
type RetentionConfig struct {
	// Enabled controls whether the retention scheduler runs.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for pruning passes.
	// Default: "0 3 * * *" (daily at 03:00)
	Schedule string `yaml:"schedule"`

	// ArtifactMaxAge removes committed artifacts older than this.
	// Default: 720h (30 days)
	ArtifactMaxAge time.Duration `yaml:"artifact_max_age"`

	// RunMaxAge removes terminal run records older than this.
	// Default: 2160h (90 days)
	RunMaxAge time.Duration `yaml:"run_max_age"`

	// DryRun logs what would be pruned without deleting anything.
	// Default: false
	DryRun bool `yaml:"dry_run"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic redaction of sensitive values.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// BufferSize is the async log buffer size; 0 disables buffering.
	// Default: 0
	BufferSize int `yaml:"buffer_size"`

	// RedactPatterns contains additional redaction patterns applied on
	// top of the built-in set.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom redaction pattern for log output.
type RedactPattern struct {
	// Name identifies the pattern in diagnostics.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the text substituted for matches.
	// Default: "[REDACTED]"
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is an optional separate port for metrics (0 = use server
	// port).
	// Default: 0
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "europa"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem segment.
	// Default: "export"
	Subsystem string `yaml:"subsystem"`

	// RunDurationBuckets are histogram buckets for run duration, in
	// seconds.
	RunDurationBuckets []float64 `yaml:"run_duration_buckets"`

	// BatchFetchDurationBuckets are histogram buckets for batch fetch
	// latency, in seconds.
	BatchFetchDurationBuckets []float64 `yaml:"batch_fetch_duration_buckets"`

	// EntryCountBuckets are histogram buckets for entries per batch.
	EntryCountBuckets []float64 `yaml:"entry_count_buckets"`

	// HTTPDurationBuckets are histogram buckets for API request latency,
	// in seconds.
	HTTPDurationBuckets []float64 `yaml:"http_duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether traces are collected and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Exporter selects the span exporter.
	// Options: "otlp", "none"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables transport security for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// ServiceName identifies this service in trace backends.
	// Default: "europa"
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is attached to exported spans.
	ServiceVersion string `yaml:"service_version"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio", "parent"
	// Default: "parent"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the sampling probability for the "ratio" sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`
}
