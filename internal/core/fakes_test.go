package core

import (
	"context"
	"errors"
	"sync"
)

type fakeSink struct {
	mu      sync.Mutex
	entries []LoadError
	err     error
}

func (s *fakeSink) Append(_ context.Context, e LoadError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeSink) List(_ context.Context, _ ErrorFilter) ([]LoadError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LoadError(nil), s.entries...), nil
}

type fakeStore struct {
	mu         sync.Mutex
	tables     map[string][]Row
	pingErr    error
	replaceErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: make(map[string][]Row), replaceErr: make(map[string]error)}
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) Replace(ctx context.Context, info EntityInfo, rows []Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceErr[info.Name]; err != nil {
		return 0, err
	}
	s.tables[info.Name] = rows
	return int64(len(rows)), nil
}

type fakeSource struct {
	batches map[string]RawBatch
	errs    map[string]error
}

func (s *fakeSource) Read(_ context.Context, info EntityInfo) (RawBatch, error) {
	if err := s.errs[info.Name]; err != nil {
		return RawBatch{}, err
	}
	b, ok := s.batches[info.Name]
	if !ok {
		return RawBatch{}, errors.New("no batch")
	}
	return b, nil
}

type fakeRecorder struct {
	runs []*RunSummary
	err  error
}

func (r *fakeRecorder) RecordRun(_ context.Context, s *RunSummary) error {
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, s)
	return nil
}

func (r *fakeRecorder) LatestRun(context.Context) (*RunSummary, error) {
	if len(r.runs) == 0 {
		return nil, ErrNoRuns
	}
	return r.runs[len(r.runs)-1], nil
}

type fakeObserver struct {
	mu      sync.Mutex
	loads   []LoadResult
	runs    int
	lastErr error
}

func (o *fakeObserver) ObserveLoad(r LoadResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loads = append(o.loads, r)
}

func (o *fakeObserver) ObserveRun(_ *RunSummary, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
	o.lastErr = err
}
