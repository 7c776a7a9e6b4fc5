package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels used across the pipeline.
const (
	StageXML       = "xml"
	StageListing   = "listing"
	StageReconcile = "reconcile"
	StageFrequency = "frequency"
	StageCount     = "count"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Extraction metrics
	RecordsExtracted *prometheus.CounterVec
	ListingFailures  prometheus.Counter

	// Reconciliation metrics
	Mismatches prometheus.Counter

	// Worker pool metrics
	UnitErrors *prometheus.CounterVec

	// Stage timing
	StageDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// yields working but unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RecordsExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperscope_records_extracted_total",
				Help: "Records emitted by an extractor",
			},
			[]string{"source"},
		),
		ListingFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "paperscope_listing_failures_total",
				Help: "Listing files that contributed no records because they failed",
			},
		),
		Mismatches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "paperscope_reconcile_mismatches_total",
				Help: "Listing records without an exact title match in the dump",
			},
		),
		UnitErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperscope_pool_unit_errors_total",
				Help: "Worker pool units that failed and were skipped",
			},
			[]string{"stage"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paperscope_stage_duration_seconds",
				Help:    "Wall time of a pipeline stage",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"stage"},
		),
	}
}

// The helpers below are nil-safe so components can take an optional
// *Metrics without guarding every call.

// AddRecords counts records emitted by source.
func (m *Metrics) AddRecords(source string, n int) {
	if m == nil {
		return
	}
	m.RecordsExtracted.WithLabelValues(source).Add(float64(n))
}

// ListingFailed counts one failed listing file.
func (m *Metrics) ListingFailed() {
	if m == nil {
		return
	}
	m.ListingFailures.Inc()
}

// AddMismatches counts reconciliation mismatches.
func (m *Metrics) AddMismatches(n int) {
	if m == nil {
		return
	}
	m.Mismatches.Add(float64(n))
}

// UnitFailed counts one skipped worker unit of stage.
func (m *Metrics) UnitFailed(stage string) {
	if m == nil {
		return
	}
	m.UnitErrors.WithLabelValues(stage).Inc()
}

// ObserveStage records the duration of stage since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
