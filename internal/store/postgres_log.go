package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/warehouse/internal/core"
)

// PostgresErrorSink appends to silver.load_error_log.
type PostgresErrorSink struct {
	pool *pgxpool.Pool
}

func NewPostgresErrorSink(pool *pgxpool.Pool) *PostgresErrorSink {
	return &PostgresErrorSink{pool: pool}
}

func (s *PostgresErrorSink) Append(ctx context.Context, e core.LoadError) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO silver.load_error_log (run_id, entity_name, error_message, error_code, occurred_at)
		VALUES (NULLIF($1::text, '')::uuid, $2, $3, $4, $5)`,
		e.RunID, e.Entity, e.Message, e.Code, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append error log: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *PostgresErrorSink) List(ctx context.Context, f core.ErrorFilter) ([]core.LoadError, error) {
	var (
		conds []string
		args  []any
	)
	if f.Entity != "" {
		args = append(args, f.Entity)
		conds = append(conds, fmt.Sprintf("entity_name = $%d", len(args)))
	}
	if f.RunID != "" {
		args = append(args, f.RunID)
		conds = append(conds, fmt.Sprintf("run_id::text = $%d", len(args)))
	}

	query := `SELECT COALESCE(run_id::text, ''), entity_name, error_message, error_code, occurred_at
		FROM silver.load_error_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, errorLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list error log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.LoadError, error) {
		var e core.LoadError
		err := row.Scan(&e.RunID, &e.Entity, &e.Message, &e.Code, &e.OccurredAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan error log: %w", err)
	}
	return entries, nil
}

// PostgresRunRecorder writes one silver.load_runs row per run and one
// silver.load_history row per entity load.
type PostgresRunRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRunRecorder(pool *pgxpool.Pool) *PostgresRunRecorder {
	return &PostgresRunRecorder{pool: pool}
}

func (r *PostgresRunRecorder) RecordRun(ctx context.Context, s *core.RunSummary) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO silver.load_runs (run_id, started_at, ended_at, duration_ms, entities, rows_written, error_count)
		VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7)`,
		s.RunID, s.StartedAt, s.EndedAt, s.Duration.Milliseconds(),
		len(s.Results), s.RowsWritten(), s.ErrorCount(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, res := range s.Results {
		batch.Queue(`
			INSERT INTO silver.load_history
				(run_id, position, entity_name, status, rows_read, rows_written, started_at, ended_at, duration_ms, error_message)
			VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			s.RunID, i, res.Entity, string(res.Status), res.RowsRead, res.RowsWritten,
			res.StartedAt, res.EndedAt, res.Duration.Milliseconds(), nullText(res.ErrorMessage()),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert load history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func (r *PostgresRunRecorder) LatestRun(ctx context.Context) (*core.RunSummary, error) {
	s := &core.RunSummary{}
	var durationMs int64
	err := r.pool.QueryRow(ctx, `
		SELECT run_id::text, started_at, ended_at, duration_ms
		FROM silver.load_runs
		ORDER BY started_at DESC
		LIMIT 1`,
	).Scan(&s.RunID, &s.StartedAt, &s.EndedAt, &durationMs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	s.Duration = time.Duration(durationMs) * time.Millisecond

	rows, err := r.pool.Query(ctx, `
		SELECT entity_name, status, rows_read, rows_written, started_at, ended_at, duration_ms, error_message
		FROM silver.load_history
		WHERE run_id = $1::text::uuid
		ORDER BY position`, s.RunID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	s.Results, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.LoadResult, error) {
		var (
			res    core.LoadResult
			status string
			ms     int64
			msg    pgtype.Text
		)
		if err := row.Scan(&res.Entity, &status, &res.RowsRead, &res.RowsWritten,
			&res.StartedAt, &res.EndedAt, &ms, &msg); err != nil {
			return res, err
		}
		res.RunID = s.RunID
		res.Status = core.LoadStatus(status)
		res.Duration = time.Duration(ms) * time.Millisecond
		if msg.Valid {
			res.Err = errors.New(msg.String)
		}
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan load history: %w", err)
	}
	return s, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
