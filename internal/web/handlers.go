package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/logging"
	"github.com/JonMunkholm/warehouse/internal/web/templates"
)

// RunResponse is the JSON form of a run summary.
type RunResponse struct {
	RunID       string           `json:"runId"`
	StartedAt   time.Time        `json:"startedAt"`
	EndedAt     time.Time        `json:"endedAt"`
	DurationMs  int64            `json:"durationMs"`
	Succeeded   bool             `json:"succeeded"`
	RowsWritten int64            `json:"rowsWritten"`
	ErrorCount  int              `json:"errorCount"`
	Shared      bool             `json:"shared,omitempty"`
	Entities    []EntityResponse `json:"entities"`
	Error       *ErrorResponse   `json:"error,omitempty"`
}

// EntityResponse is one entity's load result.
type EntityResponse struct {
	Entity      string `json:"entity"`
	Status      string `json:"status"`
	RowsRead    int    `json:"rowsRead"`
	RowsWritten int64  `json:"rowsWritten"`
	DurationMs  int64  `json:"durationMs"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
}

func newRunResponse(s *core.RunSummary) RunResponse {
	resp := RunResponse{
		RunID:       s.RunID,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		DurationMs:  s.Duration.Milliseconds(),
		Succeeded:   s.Succeeded(),
		RowsWritten: s.RowsWritten(),
		ErrorCount:  s.ErrorCount(),
		Entities:    make([]EntityResponse, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		e := EntityResponse{
			Entity:      r.Entity,
			Status:      string(r.Status),
			RowsRead:    r.RowsRead,
			RowsWritten: r.RowsWritten,
			DurationMs:  r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			e.Error = r.ErrorMessage()
			e.Code = core.ErrorCode(r.Err)
		}
		resp.Entities = append(resp.Entities, e)
	}
	return resp
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if err := s.opts.Store.Ping(ctx); err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTriggerRun runs the pipeline and answers with its summary.
// Concurrent triggers share one run. A fatal run answers 503 with whatever
// summary it produced; entity failures still answer 200.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	summary, shared, err := s.run(core.ContextWithTrigger(r.Context(), TriggerHTTP))
	if summary == nil {
		if err == nil {
			err = errors.New("pipeline returned no summary")
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	resp := newRunResponse(summary)
	resp.Shared = shared
	status := http.StatusOK
	if err != nil {
		logging.FromContext(r.Context()).Error("triggered run aborted", "run_id", summary.RunID, "error", err)
		e := newErrorResponse(err)
		resp.Error = &e
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Run starts a pipeline run, or joins the one in flight.
// Scheduled refreshes go through here so they never interleave with HTTP triggers.
func (s *Server) Run(ctx context.Context) (*core.RunSummary, error) {
	summary, _, err := s.run(ctx)
	return summary, err
}

func (s *Server) run(ctx context.Context) (*core.RunSummary, bool, error) {
	v, err, shared := s.runs.Do("run", func() (any, error) {
		runCtx, cancel := s.runContext(ctx)
		defer cancel()
		return s.opts.Runner.Run(runCtx)
	})
	summary, _ := v.(*core.RunSummary)
	return summary, shared, err
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.opts.Recorder.LatestRun(r.Context())
	if errors.Is(err, core.ErrNoRuns) {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(summary))
}

// handleListErrors lists error log entries, newest first.
// Query parameters: entity, run, limit.
func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.ErrorFilter{
		Entity: q.Get("entity"),
		RunID:  q.Get("run"),
		Limit:  parseIntParam(r, "limit", 0),
	}

	if filter.Entity != "" {
		if _, err := core.MustGet(filter.Entity); err != nil {
			respondError(w, r, err, http.StatusBadRequest)
			return
		}
	}

	entries, err := s.opts.Errors.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []core.LoadError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"errors": entries})
}

func (s *Server) handleLatestRunPage(w http.ResponseWriter, r *http.Request) {
	summary, err := s.opts.Recorder.LatestRun(r.Context())
	var body templ.Component
	switch {
	case errors.Is(err, core.ErrNoRuns):
		body = templates.NoRuns()
	case err != nil:
		respondError(w, r, err, http.StatusInternalServerError)
		return
	default:
		body = templates.RunReport(summary)
	}
	templ.Handler(templates.Page("Latest run", body)).ServeHTTP(w, r)
}
