// Package core provides the bronze to silver cleaning logic.
// This package has no storage or transport dependencies beyond the value types it shares with them.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ErrStoreUnavailable marks failures that affect every entity equally, such as
// a destination database that cannot be reached. The pipeline stops on them.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrUnknownEntity is returned when a name is not in the registry.
var ErrUnknownEntity = errors.New("unknown entity")

// ErrNoRuns is returned by a RunRecorder that has not recorded any run yet.
var ErrNoRuns = errors.New("no pipeline runs recorded")

// ErrTransformPanic wraps a panic recovered from an entity transform.
var ErrTransformPanic = errors.New("transform panicked")

// EntityInfo contains descriptive information about an entity.
type EntityInfo struct {
	Name          string   // Bronze and silver table name: "crm_cust_info"
	System        string   // Source system: "CRM", "ERP"
	Label         string   // Display name: "Customers"
	Order         int      // Position in the pipeline run
	SourceFile    string   // Path of the raw file relative to a source dir, without extension
	SourceColumns []string // Bronze column names
	Columns       []string // Silver column names, in Row order
}

// HeaderIndex maps column names (lowercase) to their position in a raw row.
type HeaderIndex map[string]int

// RawRow is one bronze record. NULL cells have Valid=false.
type RawRow []pgtype.Text

// RawBatch is an ordered batch of bronze records for one entity.
type RawBatch struct {
	Header HeaderIndex
	Rows   []RawRow
}

// Len returns the number of records in the batch.
func (b RawBatch) Len() int {
	return len(b.Rows)
}

// Row is one cleaned record. Values follow EntityInfo.Columns order and are
// native Go types or pgtype values so they can be sent with COPY unchanged.
type Row []any

// TransformEnv carries the inputs a transform may depend on besides its batch.
type TransformEnv struct {
	Now time.Time
}

// TransformFunc maps a raw batch to a cleaned batch.
type TransformFunc func(raw RawBatch) ([]Row, error)

// WriteFunc replaces the destination contents with rows and returns the count written.
type WriteFunc func(ctx context.Context, rows []Row) (int64, error)

// EntityDefinition contains everything needed to clean one entity.
type EntityDefinition struct {
	Info      EntityInfo
	Transform func(raw RawBatch, env TransformEnv) ([]Row, error)
}

// Bind returns the definition's transform with env fixed.
func (d EntityDefinition) Bind(env TransformEnv) TransformFunc {
	return func(raw RawBatch) ([]Row, error) {
		return d.Transform(raw, env)
	}
}

// LoadStatus is the outcome of one entity load.
type LoadStatus string

const (
	StatusSucceeded LoadStatus = "succeeded"
	StatusFailed    LoadStatus = "failed"
)

// LoadResult is the explicit success/failure record of one entity load.
type LoadResult struct {
	RunID       string
	Entity      string
	Status      LoadStatus
	RowsRead    int
	RowsWritten int64
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
	Err         error
}

// Failed reports whether the load failed.
func (r LoadResult) Failed() bool {
	return r.Status == StatusFailed
}

// ErrorMessage returns the failure message, or "" for a successful load.
func (r LoadResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunSummary aggregates the per-entity results of one pipeline run.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Results   []LoadResult
}

// ErrorCount returns the number of entities whose load failed.
func (s *RunSummary) ErrorCount() int {
	n := 0
	for _, r := range s.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Succeeded reports whether every entity loaded.
func (s *RunSummary) Succeeded() bool {
	return s.ErrorCount() == 0
}

// RowsWritten returns the total rows written across entities.
func (s *RunSummary) RowsWritten() int64 {
	var n int64
	for _, r := range s.Results {
		n += r.RowsWritten
	}
	return n
}

// Result returns the result for entity, if the run reached it.
func (s *RunSummary) Result(entity string) (LoadResult, bool) {
	for _, r := range s.Results {
		if r.Entity == entity {
			return r, true
		}
	}
	return LoadResult{}, false
}

// LoadError is one entry of the error log.
type LoadError struct {
	RunID      string    `json:"runId,omitempty"`
	Entity     string    `json:"entity"`
	Message    string    `json:"message"`
	Code       string    `json:"code"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ErrorFilter narrows an error log listing.
type ErrorFilter struct {
	Entity string
	RunID  string
	Limit  int
}

// Source provides the current raw batch for an entity.
type Source interface {
	Read(ctx context.Context, info EntityInfo) (RawBatch, error)
}

// Store is the silver destination. Replace must stage rows and swap them in so
// readers see either the previous or the new contents, never a partial state.
type Store interface {
	Ping(ctx context.Context) error
	Replace(ctx context.Context, info EntityInfo, rows []Row) (int64, error)
}

// ErrorSink is the append-only error log.
type ErrorSink interface {
	Append(ctx context.Context, entry LoadError) error
	List(ctx context.Context, filter ErrorFilter) ([]LoadError, error)
}

// RunRecorder persists run summaries for operators.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary *RunSummary) error
	LatestRun(ctx context.Context) (*RunSummary, error)
}

// LoadObserver receives every load result. Implementations must not block.
type LoadObserver interface {
	ObserveLoad(result LoadResult)
}

// RunObserver receives every finished run, including aborted ones.
type RunObserver interface {
	ObserveRun(summary *RunSummary, err error)
}
