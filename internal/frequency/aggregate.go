package frequency

import (
	"slices"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/logging"
	"github.com/GriffinCanCode/paperscope/internal/record"
	"github.com/GriffinCanCode/paperscope/internal/workpool"
)

// DefaultMinWeight drops terms that make up a negligible share of a year.
const DefaultMinWeight = 1e-3

// Options configures an Aggregator.
type Options struct {
	Workers   int        // <= 0 means runtime.NumCPU()
	MinWeight float64    // terms must weigh strictly more; 0 means DefaultMinWeight, < 0 keeps all
	Tokenizer *Tokenizer // nil means DefaultTokenizer()
}

// Weights maps a term to its share of a year's tokens.
type Weights map[string]float64

// Result is the merged output of one aggregation.
type Result struct {
	// Weights holds one map per requested year that produced any term.
	Weights map[int]Weights `json:"weights"`
	// Consumed is how many records each year's worker read. Every requested
	// year is present, zero included.
	Consumed map[int]int `json:"consumed"`
}

// Total is the number of records consumed across all years.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Consumed {
		n += c
	}
	return n
}

// Aggregator computes per-year term weights.
type Aggregator struct {
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an Aggregator. logger and metrics may be nil.
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Aggregator {
	if opts.MinWeight == 0 {
		opts.MinWeight = DefaultMinWeight
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = DefaultTokenizer()
	}
	return &Aggregator{
		opts:    opts,
		logger:  logging.Component(logger, "frequency"),
		metrics: metrics,
	}
}

type yearShare struct {
	year     int
	weights  Weights
	consumed int
}

// Aggregate weights the title terms of records for each of years. Records
// from other years are ignored. records is only read.
func (a *Aggregator) Aggregate(records []record.Record, years []int) Result {
	start := time.Now()

	years = slices.Clone(years)
	slices.Sort(years)
	years = slices.Compact(years)

	buckets := make(map[int][]int, len(years))
	for _, y := range years {
		buckets[y] = nil
	}
	for i, r := range records {
		if b, ok := buckets[r.Year]; ok {
			buckets[r.Year] = append(b, i)
		}
	}

	res := workpool.Run(years, workpool.Options{
		Workers: a.opts.Workers,
		Stage:   monitoring.StageFrequency,
		Logger:  a.logger,
		Metrics: a.metrics,
	}, func(_ int, year int) (yearShare, error) {
		return a.weigh(year, records, buckets[year]), nil
	})

	out := Result{
		Weights:  make(map[int]Weights, len(years)),
		Consumed: make(map[int]int, len(years)),
	}
	for i, share := range res.Values {
		year := years[i]
		out.Consumed[year] = share.consumed
		if len(share.weights) > 0 {
			out.Weights[year] = share.weights
		}
	}

	a.metrics.ObserveStage(monitoring.StageFrequency, start)
	a.logger.Info("Term aggregation complete",
		zap.Int("years", len(years)),
		zap.Int("records", out.Total()),
		zap.Int("failed_years", len(res.Failed)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

func (a *Aggregator) weigh(year int, records []record.Record, idx []int) yearShare {
	counts := make(map[string]int)
	for _, i := range idx {
		for _, tok := range a.opts.Tokenizer.Tokens(records[i].Title) {
			counts[tok]++
		}
	}

	terms := make([]string, 0, len(counts))
	values := make([]float64, 0, len(counts))
	for t, c := range counts {
		terms = append(terms, t)
		values = append(values, float64(c))
	}

	share := yearShare{year: year, consumed: len(idx), weights: make(Weights)}
	total := floats.Sum(values)
	if total == 0 {
		return share
	}

	floats.Scale(1/total, values)
	for i, w := range values {
		if w > a.opts.MinWeight {
			share.weights[terms[i]] = w
		}
	}
	return share
}
