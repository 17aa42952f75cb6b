// Package metrics exposes pipeline load metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/warehouse/internal/core"
)

// Run outcomes for the silver_pipeline_runs_total counter.
const (
	OutcomeSucceeded = "succeeded" // every entity loaded
	OutcomePartial   = "partial"   // at least one entity failed
	OutcomeAborted   = "aborted"   // a fatal error stopped the run
)

// Metrics records entity loads and pipeline runs.
// It implements core.LoadObserver and core.RunObserver.
type Metrics struct {
	// Load duration by entity and final status
	LoadDuration *prometheus.HistogramVec

	// Failed loads by entity
	LoadFailures *prometheus.CounterVec

	// Rows written by the last successful load of each entity
	RowsWritten *prometheus.GaugeVec

	// Finished runs by outcome
	Runs *prometheus.CounterVec
}

// New creates the pipeline metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "silver_entity_load_duration_seconds",
			Help:    "Duration of one entity load: read, clean and replace",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"entity", "status"}),

		LoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "silver_entity_load_failures_total",
			Help: "Total failed entity loads",
		}, []string{"entity"}),

		RowsWritten: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "silver_entity_rows_written",
			Help: "Rows written to the silver table by the last successful load",
		}, []string{"entity"}),

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "silver_pipeline_runs_total",
			Help: "Total finished pipeline runs by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveLoad records one entity load.
func (m *Metrics) ObserveLoad(result core.LoadResult) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(result.Entity, string(result.Status)).Observe(result.Duration.Seconds())
	if result.Failed() {
		m.LoadFailures.WithLabelValues(result.Entity).Inc()
		return
	}
	m.RowsWritten.WithLabelValues(result.Entity).Set(float64(result.RowsWritten))
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(summary *core.RunSummary, err error) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(Outcome(summary, err)).Inc()
}

// Outcome classifies a finished run.
func Outcome(summary *core.RunSummary, err error) string {
	switch {
	case err != nil:
		return OutcomeAborted
	case summary != nil && !summary.Succeeded():
		return OutcomePartial
	default:
		return OutcomeSucceeded
	}
}
