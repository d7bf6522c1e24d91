// Package telemetry provides observability for the Europa export
// service.
//
// # Components
//
//   - logging: Structured logging with PII redaction
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: Health check endpoints
//
// # Usage
//
//	cfg := config.GetConfig()
//
//	logger, err := logging.New(logging.Config{Level: cfg.Telemetry.Logging.Level})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//
//	// Record an export run
//	collector.RecordRun("csv", "succeeded", 1500, time.Minute)
//
//	// Create a span
//	ctx, span := tracer.Start(ctx, "export.run")
//	defer span.End()
//
// # PII Protection
//
// By default, sensitive values are redacted from logs:
//
//   - API keys and tokens
//   - Emails: user@example.com → u***@example.com
//   - SSN: 123-45-6789 → ***-**-****
//   - IP addresses: 192.168.1.1 → 192.*.*.*
//
// Custom redaction patterns can be configured.
package telemetry
