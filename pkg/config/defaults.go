package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled          = true
	DefaultCORSMaxAge           = 3600 // 1 hour
	DefaultCORSAllowCredentials = false

	// Search defaults
	DefaultSearchBackend           = "sqlite"
	DefaultSearchSQLitePath        = "data/documents.db"
	DefaultSearchSQLiteBusyTimeout = 5 * time.Second

	// Export defaults. The batch timeout and entry cap mirror the export
	// action's shipped settings.
	DefaultSearchBatchTimeout    = 2 * time.Hour
	DefaultMaxEntriesExportLimit = int64(100_000)
	DefaultExportPageSize        = 100
	DefaultMaxConcurrentRuns     = 4
	DefaultRetryMaxAttempts      = 3
	DefaultRetryBaseDelay        = 10 * time.Second
	DefaultRetryMaxDelay         = time.Minute
	DefaultDestinationRoot       = "exports"
	DefaultRunStoreBackend       = "sqlite"
	DefaultRunStorePath          = "data/runs.db"
	DefaultGenerator             = "europa"

	// Preset defaults
	DefaultPresetsSource          = "file"
	DefaultPresetsGitBranch       = "main"
	DefaultPresetsGitCacheDir     = "data/presets-git"
	DefaultPresetsGitPollInterval = 5 * time.Minute
	DefaultPresetsGitAuthMethod   = "none"

	// Retention defaults
	DefaultRetentionSchedule       = "0 3 * * *"
	DefaultRetentionArtifactMaxAge = 720 * time.Hour  // 30 days
	DefaultRetentionRunMaxAge      = 2160 * time.Hour // 90 days

	// Logging defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultLoggingRedactPII = true

	// Metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "europa"
	DefaultMetricsSubsystem = "export"

	// Tracing defaults
	DefaultTracingExporter    = "otlp"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "europa"
	DefaultTracingSampler     = "parent"
	DefaultTracingSampleRatio = 0.1
)

// Default histogram buckets. Run durations range from sub-second test
// exports to multi-hour drains; batch fetches sit between milliseconds
// and the batch timeout.
var (
	DefaultRunDurationBuckets = []float64{
		0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600, 7200, 14400,
	}

	DefaultBatchFetchDurationBuckets = []float64{
		0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60, 300, 1800,
	}

	DefaultEntryCountBuckets = []float64{
		1, 10, 50, 100, 250, 500, 1000, 5000, 10000,
	}

	DefaultHTTPDurationBuckets = []float64{
		0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30,
	}
)

// DefaultConfig returns a Config populated with all default values.
// Boolean fields that default to true are set here; ApplyDefaults cannot
// distinguish "unset" from an explicit false for them.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued fields in the
// configuration. It is called automatically by LoadConfig before
// validation, so a minimal YAML file yields a fully usable configuration.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applySearchDefaults(&cfg.Search)
	applyExportDefaults(&cfg.Export)
	applyPresetsDefaults(&cfg.Presets)
	applyRetentionDefaults(&cfg.Retention)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
}

func applySearchDefaults(s *SearchConfig) {
	if s.Backend == "" {
		s.Backend = DefaultSearchBackend
	}
	if s.SQLite.Path == "" {
		s.SQLite.Path = DefaultSearchSQLitePath
	}
	if s.SQLite.BusyTimeout == 0 {
		s.SQLite.BusyTimeout = DefaultSearchSQLiteBusyTimeout
	}
}

func applyExportDefaults(e *ExportConfig) {
	if e.SearchBatchTimeout == 0 {
		e.SearchBatchTimeout = DefaultSearchBatchTimeout
	}
	if e.MaxEntriesExportLimit == 0 {
		e.MaxEntriesExportLimit = DefaultMaxEntriesExportLimit
	}
	if e.PageSize == 0 {
		e.PageSize = DefaultExportPageSize
	}
	if e.MaxConcurrentRuns == 0 {
		e.MaxConcurrentRuns = DefaultMaxConcurrentRuns
	}
	if e.Retry.MaxAttempts == 0 {
		e.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if e.Retry.BaseDelay == 0 {
		e.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if e.Retry.MaxDelay == 0 {
		e.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if e.Destination.Root == "" {
		e.Destination.Root = DefaultDestinationRoot
	}
	if e.RunStore.Backend == "" {
		e.RunStore.Backend = DefaultRunStoreBackend
	}
	if e.RunStore.Path == "" {
		e.RunStore.Path = DefaultRunStorePath
	}
	if e.Generator == "" {
		e.Generator = DefaultGenerator
	}
}

func applyPresetsDefaults(p *PresetsConfig) {
	if p.Source == "" {
		p.Source = DefaultPresetsSource
	}
	if p.Git.Branch == "" {
		p.Git.Branch = DefaultPresetsGitBranch
	}
	if p.Git.CacheDir == "" {
		p.Git.CacheDir = DefaultPresetsGitCacheDir
	}
	if p.Git.PollInterval == 0 {
		p.Git.PollInterval = DefaultPresetsGitPollInterval
	}
	if p.Git.Auth.Method == "" {
		p.Git.Auth.Method = DefaultPresetsGitAuthMethod
	}
}

func applyRetentionDefaults(r *RetentionConfig) {
	if r.Schedule == "" {
		r.Schedule = DefaultRetentionSchedule
	}
	if r.ArtifactMaxAge == 0 {
		r.ArtifactMaxAge = DefaultRetentionArtifactMaxAge
	}
	if r.RunMaxAge == 0 {
		r.RunMaxAge = DefaultRetentionRunMaxAge
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.RunDurationBuckets) == 0 {
		t.Metrics.RunDurationBuckets = append([]float64(nil), DefaultRunDurationBuckets...)
	}
	if len(t.Metrics.BatchFetchDurationBuckets) == 0 {
		t.Metrics.BatchFetchDurationBuckets = append([]float64(nil), DefaultBatchFetchDurationBuckets...)
	}
	if len(t.Metrics.EntryCountBuckets) == 0 {
		t.Metrics.EntryCountBuckets = append([]float64(nil), DefaultEntryCountBuckets...)
	}
	if len(t.Metrics.HTTPDurationBuckets) == 0 {
		t.Metrics.HTTPDurationBuckets = append([]float64(nil), DefaultHTTPDurationBuckets...)
	}

	if t.Tracing.Exporter == "" {
		t.Tracing.Exporter = DefaultTracingExporter
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
}
