// Package source provides the raw bronze batches the pipeline cleans.
//
// Two sources are available: PostgresSource reads the bronze schema of the
// warehouse database, FileSource reads the CSV or XLSX exports the bronze
// layer is loaded from. Both return every cell as nullable text.
package source

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
)

// New returns the source selected by cfg. pool may be nil for file sources.
func New(cfg config.PipelineConfig, pool *pgxpool.Pool) (core.Source, error) {
	switch cfg.Source {
	case config.SourceFiles:
		return NewFileSource(cfg.SourceDir), nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("source %q needs a database connection", cfg.Source)
		}
		return NewPostgresSource(pool), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
