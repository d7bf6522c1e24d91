package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/dataset/encoding"
	"mercator-hq/europa/pkg/export/destination"
	"mercator-hq/europa/pkg/search"
	"mercator-hq/europa/pkg/telemetry/metrics"
	"mercator-hq/europa/pkg/telemetry/tracing"
)

// Coordinator executes export runs against a search backend and a
// destination. It is safe for concurrent use; each run carries its own
// paginator and artifact state.
type Coordinator struct {
	backend search.Backend
	dest    destination.Destination
	limits  Limits

	metrics   *metrics.RunMetrics
	tracer    *tracing.Tracer
	generator string
	logger    *slog.Logger
}

// CoordinatorOptions carries the optional collaborators of a coordinator.
type CoordinatorOptions struct {
	// Metrics receives run and batch observations when set.
	Metrics *metrics.RunMetrics

	// Tracer emits a span per run when set.
	Tracer *tracing.Tracer

	// Generator names this deployment in bundle manifests.
	Generator string
}

// NewCoordinator creates a coordinator bound to a backend and destination.
func NewCoordinator(backend search.Backend, dest destination.Destination, limits Limits, opts CoordinatorOptions) *Coordinator {
	limits.Normalize()
	generator := opts.Generator
	if generator == "" {
		generator = "europa"
	}
	return &Coordinator{
		backend:   backend,
		dest:      dest,
		limits:    limits,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		generator: generator,
		logger:    slog.Default().With("component", "export.coordinator"),
	}
}

// ExecuteOptions carries the per-run collaboration hooks.
type ExecuteOptions struct {
	// Cancelled reports whether a cancel request arrived. It is checked
	// between batches, never mid-batch. Optional.
	Cancelled func() bool

	// OnUpdate receives a snapshot of the run after every state change
	// and after every written batch. Optional.
	OnUpdate func(Run)
}

func (o ExecuteOptions) cancelled() bool {
	return o.Cancelled != nil && o.Cancelled()
}

func (o ExecuteOptions) notify(run *Run) {
	if o.OnUpdate != nil {
		o.OnUpdate(run.Snapshot())
	}
}

// Execute drives run from pending to a terminal state, mutating it in
// place. The returned error is non-nil only for failed runs; cancelled
// runs end cleanly.
func (c *Coordinator) Execute(ctx context.Context, run *Run, opts ExecuteOptions) error {
	logger := c.logger.With("run_id", run.ID)

	if err := run.Transition(StateRunning); err != nil {
		return err
	}
	opts.notify(run)

	ctx, span := c.startSpan(ctx, run)
	defer span.End()

	err := c.execute(ctx, span, run, opts, logger)
	c.recordRun(run)
	tracing.SetRunOutcome(span, string(run.State), run.EntriesExported, run.EntriesAvailable, run.Truncated)
	return err
}

func (c *Coordinator) execute(ctx context.Context, span trace.Span, run *Run, opts ExecuteOptions, logger *slog.Logger) error {
	req := run.Request

	if err := req.Validate(); err != nil {
		return c.fail(run, opts, span, logger, nil, err)
	}

	format, err := encoding.ParseFormat(string(req.Format))
	if err != nil {
		return c.fail(run, opts, span, logger, nil, err)
	}
	enc, err := encoding.New(format, encoding.Options{
		CSVNoHeader: req.CSVNoHeader,
		JSONPretty:  req.JSONPretty,
	})
	if err != nil {
		return c.fail(run, opts, span, logger, nil, err)
	}

	maxEntries := c.limits.effectiveMaxEntries(req.MaxEntries)
	paginator := search.NewPaginator(c.backend, req.Query, search.PaginatorConfig{
		PageSize:     c.limits.effectivePageSize(req.PageSize),
		BatchTimeout: c.limits.SearchBatchTimeout,
		Retry:        c.limits.Retry,
	})
	art := newArtifact(c.dest, enc, req, run.ID)

	// With an include list the column set is fixed up front, so the
	// session opens before the first batch and empty runs still produce
	// a header. JSON needs no schema and opens up front as well.
	if len(req.Projection.Include) > 0 {
		if err := art.openSession(ctx, dataset.NewSchema(req.Projection.Include)); err != nil {
			return c.fail(run, opts, span, logger, art, err)
		}
	} else if format == encoding.FormatJSON {
		if err := art.openSession(ctx, dataset.NewSchema(nil)); err != nil {
			return c.fail(run, opts, span, logger, art, err)
		}
	}

	truncated := false
	for {
		if opts.cancelled() {
			return c.finishCancelled(run, opts, logger, art)
		}
		if run.EntriesExported >= maxEntries {
			if total := paginator.Total(); total >= 0 {
				truncated = total > run.EntriesExported
				break
			}
		}

		fetchStart := time.Now()
		entries, err := paginator.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return c.finishCancelled(run, opts, logger, art)
			}
			return c.fail(run, opts, span, logger, art, err)
		}
		c.recordBatchFetch(time.Since(fetchStart), len(entries))

		if len(entries) == 0 {
			if paginator.Done() {
				break
			}
			continue
		}

		batch := req.Projection.ApplyAll(entries)
		if remaining := maxEntries - run.EntriesExported; int64(len(batch)) > remaining {
			batch = batch[:remaining]
			truncated = true
		}
		if len(batch) > 0 {
			if !art.opened() {
				if err := art.openSession(ctx, dataset.DeriveSchema(batch, req.Projection)); err != nil {
					return c.fail(run, opts, span, logger, art, err)
				}
			}
			if err := art.writeBatch(batch); err != nil {
				return c.fail(run, opts, span, logger, art, err)
			}
			run.EntriesExported += int64(len(batch))
			tracing.AddBatchEvent(span, paginator.Fetches(), len(batch))
			opts.notify(run)
		}

		if truncated || paginator.Done() {
			break
		}
	}

	if opts.cancelled() {
		return c.finishCancelled(run, opts, logger, art)
	}

	available := paginator.Total()
	if available < 0 {
		available = run.EntriesExported
	}

	location, err := art.commit(ctx, &destination.Manifest{
		RunID:            run.ID,
		Generator:        c.generator,
		CreatedAt:        time.Now().UTC(),
		Format:           string(format),
		Query:            req.Query,
		EntriesExported:  run.EntriesExported,
		EntriesAvailable: available,
		Truncated:        truncated,
	})
	if err != nil {
		return c.fail(run, opts, span, logger, art, err)
	}

	run.EntriesAvailable = available
	run.Truncated = truncated
	run.Location = location
	if err := run.Transition(StateSucceeded); err != nil {
		return err
	}
	opts.notify(run)

	logger.Info("export run succeeded",
		"format", req.Format,
		"entries_exported", run.EntriesExported,
		"entries_available", run.EntriesAvailable,
		"truncated", run.Truncated,
		"location", run.Location,
		"duration", run.CompletedAt.Sub(run.StartedAt).String())
	return nil
}

// fail discards any staged artifact and moves the run to failed with the
// classified error kind.
func (c *Coordinator) fail(run *Run, opts ExecuteOptions, span trace.Span, logger *slog.Logger, art *artifact, cause error) error {
	if art != nil {
		art.discard()
	}
	run.ErrorKind = ClassifyError(cause)
	run.ErrorMessage = cause.Error()
	if err := run.Transition(StateFailed); err != nil {
		return err
	}
	opts.notify(run)
	tracing.SetError(span, cause)

	logger.Error("export run failed",
		"error_kind", run.ErrorKind,
		"error", cause,
		"entries_exported", run.EntriesExported)
	return cause
}

// finishCancelled discards any staged artifact and moves the run to
// cancelled, keeping the count of entries exported before the cancel
// point.
func (c *Coordinator) finishCancelled(run *Run, opts ExecuteOptions, logger *slog.Logger, art *artifact) error {
	art.discard()
	if err := run.Transition(StateCancelled); err != nil {
		return err
	}
	opts.notify(run)

	logger.Info("export run cancelled", "entries_exported", run.EntriesExported)
	return nil
}

func (c *Coordinator) startSpan(ctx context.Context, run *Run) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := c.tracer.Start(ctx, "export.run")
	tracing.SetRunAttributes(span, run.ID, string(run.Request.Format))
	return ctx, span
}

func (c *Coordinator) recordRun(run *Run) {
	if c.metrics == nil {
		return
	}
	format := "unknown"
	if run.Request != nil {
		format = string(run.Request.Format)
	}
	c.metrics.RecordRun(format, string(run.State), run.EntriesExported, run.CompletedAt.Sub(run.StartedAt))
}

func (c *Coordinator) recordBatchFetch(d time.Duration, entries int) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordBatchFetch(d, entries)
}
