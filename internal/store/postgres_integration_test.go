//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
)

// startPostgres runs a disposable database with every migration applied.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("dwh"),
		postgres.WithUsername("dwh"),
		postgres.WithPassword("dwh"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, Migrate(url))
	require.NoError(t, Migrate(url), "second migrate is a no-op")

	pool, err := NewPool(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStore_ReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)
	s := NewPostgresStore(pool)

	require.NoError(t, s.Ping(ctx))

	info := core.EntityInfo{Name: "erp_loc_a101", Columns: []string{"cid", "cntry"}}
	rows := []core.Row{{"AW00011000", "Australia"}, {"AW00011001", "n/a"}}

	for range 2 {
		n, err := s.Replace(ctx, info, rows)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		count, err := s.Count(ctx, info.Name)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	}

	_, err := s.Replace(ctx, core.EntityInfo{Name: "erp_loc_a101", Columns: []string{"cid", "missing"}}, rows)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrStoreUnavailable)

	count, err := s.Count(ctx, info.Name)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "failed replace keeps previous contents")
}

func TestPostgresErrorSink(t *testing.T) {
	ctx := context.Background()
	sink := NewPostgresErrorSink(startPostgres(t))
	now := time.Now().UTC().Truncate(time.Second)

	runID := "6f1c1f64-5b0e-4f0a-9b59-8f1b0b7a3c11"
	require.NoError(t, sink.Append(ctx, core.LoadError{
		RunID: runID, Entity: "crm_cust_info", Message: "missing required column: cst_id", Code: "VAL004", OccurredAt: now,
	}))
	require.NoError(t, sink.Append(ctx, core.LoadError{
		Entity: "crm_prd_info", Message: "boom", Code: "ERR000", OccurredAt: now.Add(time.Second),
	}))

	all, err := sink.List(ctx, core.ErrorFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "crm_prd_info", all[0].Entity)
	assert.Empty(t, all[0].RunID)

	byRun, err := sink.List(ctx, core.ErrorFilter{RunID: runID})
	require.NoError(t, err)
	require.Len(t, byRun, 1)
	assert.Equal(t, "VAL004", byRun[0].Code)
	assert.Equal(t, runID, byRun[0].RunID)
}

func TestPostgresRunRecorder(t *testing.T) {
	ctx := context.Background()
	rec := NewPostgresRunRecorder(startPostgres(t))

	_, err := rec.LatestRun(ctx)
	require.ErrorIs(t, err, core.ErrNoRuns)

	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	summary := &core.RunSummary{
		RunID:     "0b8f7d4e-2a8c-4c55-8d3e-5f0e4b1a9c22",
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Second),
		Duration:  3 * time.Second,
		Results: []core.LoadResult{
			{Entity: "crm_cust_info", Status: core.StatusSucceeded, RowsRead: 3, RowsWritten: 2, StartedAt: start, EndedAt: start.Add(time.Second), Duration: time.Second},
			{Entity: "crm_prd_info", Status: core.StatusFailed, Err: assert.AnError, StartedAt: start.Add(time.Second), EndedAt: start.Add(2 * time.Second), Duration: time.Second},
		},
	}
	require.NoError(t, rec.RecordRun(ctx, summary))

	got, err := rec.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, got.RunID)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "crm_cust_info", got.Results[0].Entity)
	assert.EqualValues(t, 2, got.Results[0].RowsWritten)
	assert.True(t, got.Results[1].Failed())
	assert.Equal(t, assert.AnError.Error(), got.Results[1].ErrorMessage())
	assert.Equal(t, 1, got.ErrorCount())
}
