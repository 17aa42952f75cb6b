package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/metrics"
	"github.com/JonMunkholm/warehouse/internal/source"
	"github.com/JonMunkholm/warehouse/internal/store"
)

// app holds the wired pipeline and the stores behind it.
type app struct {
	pool     *pgxpool.Pool
	store    core.Store
	sink     core.ErrorSink
	recorder core.RunRecorder
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	pipeline *core.Pipeline
}

// newApp wires a pipeline from cfg. A dry run keeps silver tables, the error
// log and run history in memory; it needs a database only to read bronze
// tables.
func newApp(ctx context.Context, cfg *config.Config, dryRun bool) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	if !dryRun || cfg.Pipeline.Source == config.SourcePostgres {
		if err := cfg.RequireDatabase(); err != nil {
			return nil, err
		}
		if cfg.Pipeline.AutoMigrate && !dryRun {
			if err := store.Migrate(cfg.Database.URL); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		pool, err := store.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}

	if dryRun {
		a.store = store.NewMemoryStore()
		a.sink = store.NewMemoryErrorSink()
		a.recorder = store.NewMemoryRunRecorder()
	} else {
		a.store = store.NewPostgresStore(a.pool)
		a.sink = store.NewPostgresErrorSink(a.pool)
		a.recorder = store.NewPostgresRunRecorder(a.pool)
	}

	src, err := source.New(cfg.Pipeline, a.pool)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = core.NewPipeline(src, a.store, core.NewLoader(a.sink, a.metrics))
	a.pipeline.Recorder = a.recorder
	a.pipeline.Observer = a.metrics
	a.pipeline.EntityTimeout = cfg.Pipeline.EntityTimeout

	slog.Info("pipeline ready",
		"source", cfg.Pipeline.Source,
		"dry_run", dryRun,
		"entities", core.Count(),
		"systems", core.Systems(),
	)
	return a, nil
}

// Close releases the database pool.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
