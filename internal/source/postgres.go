package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/store"
)

// BronzeSchema holds the raw tables the pipeline reads from.
const BronzeSchema = "bronze"

// PostgresSource reads bronze tables. Every column is cast to text so the
// cleaning rules see the same cells as they would from a file export.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgresSource on pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Read(ctx context.Context, info core.EntityInfo) (core.RawBatch, error) {
	cols := info.SourceColumns
	if len(cols) == 0 {
		return core.RawBatch{}, fmt.Errorf("entity %s has no source columns", info.Name)
	}

	rows, err := s.pool.Query(ctx, selectQuery(info.Name, cols))
	if err != nil {
		return core.RawBatch{}, fmt.Errorf("query %s.%s: %w", BronzeSchema, info.Name, store.Unavailable(err))
	}
	defer rows.Close()

	batch := core.RawBatch{Header: core.MakeHeaderIndex(cols)}
	for rows.Next() {
		row := make(core.RawRow, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return core.RawBatch{}, fmt.Errorf("scan %s: %w", info.Name, err)
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return core.RawBatch{}, fmt.Errorf("read %s.%s: %w", BronzeSchema, info.Name, store.Unavailable(err))
	}
	return batch, nil
}

// selectQuery builds the bronze read in physical row order, so "first seen"
// means the order rows were bulk inserted.
func selectQuery(table string, cols []string) string {
	list := make([]string, len(cols))
	for i, c := range cols {
		list[i] = pgx.Identifier{c}.Sanitize() + "::text"
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY ctid",
		strings.Join(list, ", "),
		pgx.Identifier{BronzeSchema, table}.Sanitize(),
	)
}
