package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/JonMunkholm/warehouse/internal/core"

// Loader runs one entity transform and write with error isolation.
// Whatever goes wrong is returned as a failed LoadResult and appended to the
// error sink; Load itself never panics and never returns an error.
type Loader struct {
	sink     ErrorSink
	observer LoadObserver
	tracer   trace.Tracer
	now      func() time.Time
}

// NewLoader creates a Loader. observer may be nil.
func NewLoader(sink ErrorSink, observer LoadObserver) *Loader {
	return &Loader{
		sink:     sink,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// Load transforms raw with transform and hands the rows to write.
//
// The destination is cleared and refilled by write as one unit; a failure
// anywhere leaves it to the store to keep the previous contents.
func (l *Loader) Load(ctx context.Context, entity string, raw RawBatch, transform TransformFunc, write WriteFunc) LoadResult {
	started := l.now()
	logger := slog.Default().With("entity", entity, "run_id", RunIDFromContext(ctx))
	logger.Info("entity load started", "started_at", started, "rows_read", raw.Len())

	ctx, span := l.tracer.Start(ctx, "silver.load_entity", trace.WithAttributes(
		attribute.String("entity", entity),
		attribute.Int("rows_read", raw.Len()),
	))
	defer span.End()

	result := LoadResult{
		RunID:     RunIDFromContext(ctx),
		Entity:    entity,
		RowsRead:  raw.Len(),
		StartedAt: started,
	}

	rows, err := runTransform(transform, raw)
	if err == nil {
		logger.Debug("entity transformed", "rows_cleaned", len(rows))
		result.RowsWritten, err = write(ctx, rows)
	}
	if err != nil {
		result.RowsWritten = 0
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int64("rows_written", result.RowsWritten))
	}

	return l.finish(ctx, logger, result, err)
}

// Fail records a load that could not start, for example because the raw batch
// was unreadable. It follows the same logging and error log path as Load.
func (l *Loader) Fail(ctx context.Context, entity string, err error) LoadResult {
	now := l.now()
	logger := slog.Default().With("entity", entity, "run_id", RunIDFromContext(ctx))
	result := LoadResult{
		RunID:     RunIDFromContext(ctx),
		Entity:    entity,
		StartedAt: now,
	}
	return l.finish(ctx, logger, result, err)
}

func (l *Loader) finish(ctx context.Context, logger *slog.Logger, result LoadResult, err error) LoadResult {
	result.EndedAt = l.now()
	result.Duration = result.EndedAt.Sub(result.StartedAt)

	timing := []any{
		"started_at", result.StartedAt,
		"ended_at", result.EndedAt,
		"duration_ms", result.Duration.Milliseconds(),
	}

	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		code := ErrorCode(err)
		logger.Error("entity load failed", append([]any{"error", err, "code", code}, timing...)...)
		l.appendError(ctx, logger, LoadError{
			RunID:      result.RunID,
			Entity:     result.Entity,
			Message:    err.Error(),
			Code:       code,
			OccurredAt: result.EndedAt,
		})
	} else {
		result.Status = StatusSucceeded
		logger.Info("entity load completed", append([]any{
			"rows_read", result.RowsRead,
			"rows_written", result.RowsWritten,
		}, timing...)...)
	}

	if l.observer != nil {
		l.observer.ObserveLoad(result)
	}
	return result
}

// appendError writes to the sink. A failing sink is logged and swallowed.
func (l *Loader) appendError(ctx context.Context, logger *slog.Logger, entry LoadError) {
	if l.sink == nil {
		return
	}
	// The entry must land even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := l.sink.Append(ctx, entry); err != nil {
		logger.Error("append to error log failed", "error", err, "original_error", entry.Message)
	}
}

// runTransform calls transform, converting a panic into an error.
func runTransform(transform TransformFunc, raw RawBatch) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("%w: %v", ErrTransformPanic, r)
		}
	}()
	return transform(raw)
}
