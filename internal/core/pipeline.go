package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pipeline drives one full bronze to silver refresh over every entity.
type Pipeline struct {
	source Source
	store  Store
	loader *Loader

	// Recorder persists the run summary. Optional.
	Recorder RunRecorder
	// Observer is told about every finished run. Optional.
	Observer RunObserver
	// Definitions overrides the registry. Nil means All().
	Definitions []EntityDefinition
	// EntityTimeout bounds reading and loading a single entity. Zero disables it.
	EntityTimeout time.Duration

	now      func() time.Time
	newRunID func() string
	tracer   trace.Tracer
}

// NewPipeline creates a Pipeline reading from source and writing to store.
func NewPipeline(source Source, store Store, loader *Loader) *Pipeline {
	return &Pipeline{
		source:   source,
		store:    store,
		loader:   loader,
		now:      time.Now,
		newRunID: uuid.NewString,
		tracer:   loader.tracer,
	}
}

// Run executes every entity load in order and returns the run summary.
//
// Per-entity failures are recorded in the summary and the error log; Run
// still returns a nil error for them. A non-nil error means the run could not
// continue: the store is unreachable or ctx was cancelled. The summary is
// returned in that case too and holds the results reached so far.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	runID := p.newRunID()
	ctx = ContextWithRunID(ctx, runID)
	started := p.now()
	summary := &RunSummary{RunID: runID, StartedAt: started}

	defs := p.Definitions
	if defs == nil {
		defs = All()
	}

	logger := slog.Default().With("run_id", runID)
	if trigger := TriggerFromContext(ctx); trigger != "" {
		logger = logger.With("trigger", trigger)
	}
	logger.Info("pipeline started", "entities", len(defs))

	ctx, span := p.tracer.Start(ctx, "silver.run", trace.WithAttributes(
		attribute.String("run_id", runID),
	))
	defer span.End()

	fatal := p.run(ctx, summary, defs)

	summary.EndedAt = p.now()
	summary.Duration = summary.EndedAt.Sub(summary.StartedAt)
	p.record(ctx, logger, summary)

	if p.Observer != nil {
		p.Observer.ObserveRun(summary, fatal)
	}

	fields := []any{
		"entities", len(summary.Results),
		"rows_written", summary.RowsWritten(),
		"errors", summary.ErrorCount(),
		"duration_ms", summary.Duration.Milliseconds(),
	}
	if fatal != nil {
		span.RecordError(fatal)
		span.SetStatus(codes.Error, fatal.Error())
		logger.Error("pipeline aborted", append([]any{"error", fatal}, fields...)...)
		return summary, fatal
	}
	logger.Info("pipeline completed", fields...)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, summary *RunSummary, defs []EntityDefinition) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}

	env := TransformEnv{Now: summary.StartedAt}
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted before %s: %w", def.Info.Name, err)
		}

		result := p.loadEntity(ctx, def, env)
		summary.Results = append(summary.Results, result)

		if p.isFatal(ctx, result.Err) {
			return fmt.Errorf("load %s: %w", def.Info.Name, result.Err)
		}
	}
	return nil
}

func (p *Pipeline) loadEntity(ctx context.Context, def EntityDefinition, env TransformEnv) LoadResult {
	if p.EntityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.EntityTimeout)
		defer cancel()
	}

	info := def.Info
	raw, err := p.source.Read(ctx, info)
	if err != nil {
		return p.loader.Fail(ctx, info.Name, fmt.Errorf("read bronze %s: %w", info.Name, err))
	}

	write := func(ctx context.Context, rows []Row) (int64, error) {
		return p.store.Replace(ctx, info, rows)
	}
	return p.loader.Load(ctx, info.Name, raw, def.Bind(env), write)
}

// isFatal reports whether err must stop the run. ctx is the run context, so
// an expired entity timeout alone is not fatal.
func (p *Pipeline) isFatal(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable) || ctx.Err() != nil
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, summary *RunSummary) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.RecordRun(context.WithoutCancel(ctx), summary); err != nil {
		logger.Error("record run failed", "error", err)
	}
}
