package store

import (
	"context"
	"sort"
	"sync"

	"github.com/JonMunkholm/warehouse/internal/core"
)

// MemoryStore keeps silver tables in memory. Used for dry runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]core.Row
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]core.Row)}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Replace stages a copy of rows and swaps it in under the lock. On any error
// the previous contents stay in place.
func (s *MemoryStore) Replace(ctx context.Context, info core.EntityInfo, rows []core.Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkColumns(info, rows); err != nil {
		return 0, err
	}

	staged := make([]core.Row, len(rows))
	for i, r := range rows {
		staged[i] = append(core.Row(nil), r...)
	}

	s.mu.Lock()
	s.tables[info.Name] = staged
	s.mu.Unlock()

	return int64(len(staged)), nil
}

// Rows returns a copy of an entity's current contents.
func (s *MemoryStore) Rows(entity string) []core.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables[entity]
	out := make([]core.Row, len(rows))
	copy(out, rows)
	return out
}

// Tables returns the names of every loaded entity, sorted.
func (s *MemoryStore) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemoryErrorSink is an in-memory error log.
type MemoryErrorSink struct {
	mu      sync.Mutex
	entries []core.LoadError
}

func NewMemoryErrorSink() *MemoryErrorSink {
	return &MemoryErrorSink{}
}

func (s *MemoryErrorSink) Append(_ context.Context, entry core.LoadError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns matching entries, newest first.
func (s *MemoryErrorSink) List(_ context.Context, filter core.ErrorFilter) ([]core.LoadError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := errorLimit(filter.Limit)
	out := make([]core.LoadError, 0)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if filter.Entity != "" && e.Entity != filter.Entity {
			continue
		}
		if filter.RunID != "" && e.RunID != filter.RunID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// MemoryRunRecorder keeps run summaries in memory.
type MemoryRunRecorder struct {
	mu   sync.Mutex
	runs []*core.RunSummary
}

func NewMemoryRunRecorder() *MemoryRunRecorder {
	return &MemoryRunRecorder{}
}

func (r *MemoryRunRecorder) RecordRun(_ context.Context, summary *core.RunSummary) error {
	cp := *summary
	cp.Results = append([]core.LoadResult(nil), summary.Results...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, &cp)
	return nil
}

func (r *MemoryRunRecorder) LatestRun(context.Context) (*core.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.runs) == 0 {
		return nil, core.ErrNoRuns
	}
	return r.runs[len(r.runs)-1], nil
}
