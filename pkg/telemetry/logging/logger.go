package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"mercator-hq/europa/pkg/config"
)

// LogFormat selects the handler that renders log lines.
type LogFormat string

const (
	// FormatJSON renders one JSON object per line. Production default.
	FormatJSON LogFormat = "json"
	// FormatText renders key=value lines.
	FormatText LogFormat = "text"
	// FormatConsole is text tuned for a terminal during development.
	FormatConsole LogFormat = "console"
)

// defaultQueueDepth is the async queue size when the config leaves it
// unset. An export run logs a handful of lines per batch, so a few
// thousand lines of headroom rides out a slow log sink without pausing
// the pipeline.
const defaultQueueDepth = 4096

// Config configures a Logger.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// Format is "json", "text", or "console".
	Format string

	// AddSource stamps file:line on every record.
	AddSource bool

	// RedactPII masks sensitive values (emails, tokens, git credentials)
	// before they reach the sink.
	RedactPII bool

	// BufferSize is the async queue depth in log lines.
	BufferSize int

	// RedactPatterns adds deployment-specific redaction rules.
	RedactPatterns []config.RedactPattern

	// Writer is the log sink. Defaults to os.Stdout.
	Writer io.Writer
}

// Logger is the service logger: slog handlers for rendering, optional PII
// redaction on the way in, and an async queue on the way out so a stalled
// sink never stalls an export run.
type Logger struct {
	slog     *slog.Logger
	redactor *Redactor
	queue    *lineQueue
}

// New builds a Logger from the configuration.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	sink := cfg.Writer
	if sink == nil {
		sink = os.Stdout
	}
	depth := cfg.BufferSize
	if depth <= 0 {
		depth = defaultQueueDepth
	}

	var redactor *Redactor
	if cfg.RedactPII {
		redactor = NewRedactor(cfg.RedactPatterns)
	}

	queue := newLineQueue(sink, depth)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	var handler slog.Handler
	switch format {
	case FormatText, FormatConsole:
		handler = slog.NewTextHandler(queue, opts)
	default:
		handler = slog.NewJSONHandler(queue, opts)
	}

	return &Logger{
		slog:     slog.New(handler),
		redactor: redactor,
		queue:    queue,
	}, nil
}

// Slog returns the underlying slog.Logger, suitable for slog.SetDefault
// or for components that take a *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext logs at debug level with the context's run identity.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, append(extractContextFields(ctx), args...)...)
}

// InfoContext logs at info level with the context's run identity.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, append(extractContextFields(ctx), args...)...)
}

// WarnContext logs at warn level with the context's run identity.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, append(extractContextFields(ctx), args...)...)
}

// ErrorContext logs at error level with the context's run identity.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, append(extractContextFields(ctx), args...)...)
}

// log redacts and emits one record. Disabled levels return before any
// redaction work.
func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.slog.Enabled(ctx, level) {
		return
	}
	if l.redactor != nil {
		args = l.redactor.RedactArgs(args...)
	}
	l.slog.Log(ctx, level, msg, args...)
}

// With returns a logger carrying extra fields on every record. The fields
// are redacted once, here, not per record.
func (l *Logger) With(args ...any) *Logger {
	if l.redactor != nil {
		args = l.redactor.RedactArgs(args...)
	}
	return &Logger{
		slog:     l.slog.With(args...),
		redactor: l.redactor,
		queue:    l.queue,
	}
}

// WithContext returns a logger carrying the context's request and run
// identity (request_id, run_id, user) on every record.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	args := extractContextFields(ctx)
	if len(args) == 0 {
		return l
	}
	return l.With(args...)
}

// Dropped reports how many log lines were discarded because the queue
// was full.
func (l *Logger) Dropped() int64 {
	return l.queue.Dropped()
}

// Shutdown drains the queue and stops the writer goroutine. Records
// logged after Shutdown go to the sink synchronously.
func (l *Logger) Shutdown() error {
	l.queue.Close()
	return nil
}

// lineQueue decouples handler writes from the sink. slog handlers emit
// one complete line per Write call; lines queue onto a channel and a
// single goroutine drains them, so ordering is preserved and a slow sink
// back-pressures into drops instead of blocking the caller.
type lineQueue struct {
	lines   chan []byte
	sink    io.Writer
	dropped atomic.Int64
	closed  atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func newLineQueue(sink io.Writer, depth int) *lineQueue {
	q := &lineQueue{
		lines: make(chan []byte, depth),
		sink:  sink,
		done:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.drain()
	return q
}

// Write queues one log line. The slice is copied because slog handlers
// reuse their buffers. A full queue drops the line and counts it.
func (q *lineQueue) Write(p []byte) (int, error) {
	if q.closed.Load() {
		return q.sink.Write(p)
	}

	line := make([]byte, len(p))
	copy(line, p)

	select {
	case q.lines <- line:
		return len(p), nil
	default:
		q.dropped.Add(1)
		return len(p), nil
	}
}

func (q *lineQueue) drain() {
	defer q.wg.Done()
	for {
		select {
		case line := <-q.lines:
			_, _ = q.sink.Write(line)
		case <-q.done:
			for {
				select {
				case line := <-q.lines:
					_, _ = q.sink.Write(line)
				default:
					return
				}
			}
		}
	}
}

// Dropped reports lines discarded on a full queue.
func (q *lineQueue) Dropped() int64 {
	return q.dropped.Load()
}

// Close flushes queued lines and stops the drain goroutine.
func (q *lineQueue) Close() {
	if q.closed.Swap(true) {
		return
	}
	close(q.done)
	q.wg.Wait()
}

// parseLevel maps a config level string to a slog.Level. Empty selects
// info.
func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// parseFormat maps a config format string to a LogFormat. Empty selects
// JSON.
func parseFormat(s string) (LogFormat, error) {
	switch s {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	case "console", "CONSOLE":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
