package reconcile

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/logging"
	"github.com/GriffinCanCode/paperscope/internal/record"
	"github.com/GriffinCanCode/paperscope/internal/workpool"
)

// DefaultMultiplier scales the pool past the CPU count; the stage is
// comparison bound with no I/O.
const DefaultMultiplier = 2

// Options configures an Engine.
type Options struct {
	Workers    int // base worker count; <= 0 means runtime.NumCPU()
	Multiplier int // partitions per worker; <= 0 means DefaultMultiplier
}

// Partitions is the number of listing partitions scanned in parallel.
func (o Options) Partitions() int {
	w := o.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	m := o.Multiplier
	if m <= 0 {
		m = DefaultMultiplier
	}
	return w * m
}

// Mismatch is a listing record with no exact title match. Index is its
// position in the listing input.
type Mismatch struct {
	Index  int           `json:"index"`
	Record record.Record `json:"record"`
}

// Report is the outcome of one reconciliation.
type Report struct {
	Checked    int        `json:"checked"`
	Mismatches []Mismatch `json:"mismatches"`
	// Unchecked counts listing records in partitions that failed.
	Unchecked int `json:"unchecked"`
}

// Indices returns the listing positions of every mismatch.
func (r Report) Indices() []int {
	out := make([]int, len(r.Mismatches))
	for i, m := range r.Mismatches {
		out[i] = m.Index
	}
	return out
}

// Records returns the mismatched listing records.
func (r Report) Records() []record.Record {
	out := make([]record.Record, len(r.Mismatches))
	for i, m := range r.Mismatches {
		out[i] = m.Record
	}
	return out
}

// Engine runs reconciliations.
type Engine struct {
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an Engine. logger and metrics may be nil.
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Engine {
	return &Engine{
		opts:    opts,
		logger:  logging.Component(logger, "reconcile"),
		metrics: metrics,
	}
}

// Reconcile reports every listing record whose title has no exact match in
// dump. Listing records are split into contiguous partitions that share one
// read-only title index; mismatches come back in listing order.
func (e *Engine) Reconcile(listing, dump []record.Record) Report {
	start := time.Now()
	idx := NewIndex(dump)
	spans := workpool.Partition(listing, e.opts.Partitions())

	e.logger.Info("Reconciliation start",
		zap.Int("listing", len(listing)),
		zap.Int("dump_titles", idx.Len()),
		zap.Int("partitions", len(spans)))

	res := workpool.Run(spans, workpool.Options{
		Workers: len(spans),
		Stage:   monitoring.StageReconcile,
		Logger:  e.logger,
		Metrics: e.metrics,
	}, func(_ int, span workpool.Span[record.Record]) ([]Mismatch, error) {
		return scan(span, idx), nil
	})

	rep := Report{Checked: len(listing)}
	for _, part := range res.Values {
		rep.Mismatches = append(rep.Mismatches, part...)
	}
	for _, f := range res.Failed {
		n := len(spans[f.Index].Items)
		rep.Unchecked += n
		rep.Checked -= n
	}

	e.metrics.AddMismatches(len(rep.Mismatches))
	e.metrics.ObserveStage(monitoring.StageReconcile, start)
	if len(rep.Mismatches) > 0 {
		e.logger.Warn("Listing records without a dump match",
			zap.Int("mismatches", len(rep.Mismatches)),
			zap.Int("checked", rep.Checked))
	}
	e.logger.Info("Reconciliation complete",
		zap.Int("checked", rep.Checked),
		zap.Int("unchecked", rep.Unchecked),
		zap.Duration("elapsed", time.Since(start)))
	return rep
}

func scan(span workpool.Span[record.Record], idx Index) []Mismatch {
	var out []Mismatch
	for i, r := range span.Items {
		if !idx.Has(r.Title) {
			out = append(out, Mismatch{Index: span.Offset + i, Record: r})
		}
	}
	return out
}
