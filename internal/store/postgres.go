package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
)

// SilverSchema holds the cleaned tables and the pipeline's own log tables.
const SilverSchema = "silver"

// NewPool creates a pgx pool from the database config.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", Unavailable(err))
	}
	return pool, nil
}

// PostgresStore writes silver tables with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", Unavailable(err))
	}
	return nil
}

// Replace deletes the silver table's rows and copies the new batch in one
// transaction. Until commit, readers keep seeing the previous contents;
// on failure the transaction rolls back and nothing changes.
func (s *PostgresStore) Replace(ctx context.Context, info core.EntityInfo, rows []core.Row) (int64, error) {
	if err := checkColumns(info, rows); err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", Unavailable(err))
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	table := pgx.Identifier{SilverSchema, info.Name}
	if _, err := tx.Exec(ctx, "DELETE FROM "+table.Sanitize()); err != nil {
		return 0, fmt.Errorf("clear %s: %w", info.Name, Unavailable(err))
	}

	n, err := tx.CopyFrom(ctx, table, info.Columns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return rows[i], nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", info.Name, Unavailable(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s: %w", info.Name, Unavailable(err))
	}
	return n, nil
}

// Count returns the number of rows in a silver table.
func (s *PostgresStore) Count(ctx context.Context, entity string) (int64, error) {
	var n int64
	table := pgx.Identifier{SilverSchema, entity}
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table.Sanitize()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}

// Unavailable wraps err with core.ErrStoreUnavailable when it means the
// database cannot be reached, so the pipeline stops instead of failing every
// remaining entity the same way.
func Unavailable(err error) error {
	if err == nil || !isConnectionError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception. 57P01-57P03: server shutting down or starting.
		return strings.HasPrefix(pgErr.Code, "08") ||
			pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03"
	}

	return errors.Is(err, net.ErrClosed) || pgconn.SafeToRetry(err)
}
