package listing

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/logging"
	"github.com/GriffinCanCode/paperscope/internal/record"
	"github.com/GriffinCanCode/paperscope/internal/source"
	"github.com/GriffinCanCode/paperscope/internal/workpool"
)

// Options configures an Extractor.
type Options struct {
	Workers int    // <= 0 means runtime.NumCPU()
	Engine  Engine // nil means CSSEngine
}

// Extractor parses listing files in parallel.
type Extractor struct {
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an Extractor. logger and metrics may be nil.
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Extractor {
	if opts.Engine == nil {
		opts.Engine = CSSEngine{}
	}
	return &Extractor{
		opts:    opts,
		logger:  logging.Component(logger, "listing"),
		metrics: metrics,
	}
}

// ExtractFile parses a single listing. Venue and year come from the file
// name, so a badly named file fails before it is read.
func (e *Extractor) ExtractFile(path string) ([]record.Record, error) {
	venue, year, err := ParseFilename(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	r, cs, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s listing: %w", cs, err)
	}

	entries, err := e.opts.Engine.Entries(r)
	if err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(entries))
	for _, en := range entries {
		out = append(out, record.New(venue, year, en.Title, en.Authors, en.URL))
	}

	e.logger.Debug("Listing parsed",
		zap.String("path", path),
		zap.String("charset", cs),
		zap.Int("entries", len(out)))
	return out, nil
}

// ExtractFiles parses every path on the worker pool and concatenates the
// results. A file that fails is logged with its path and contributes no
// records; it never stops the batch. Order across files carries no meaning.
func (e *Extractor) ExtractFiles(paths []string) []record.Record {
	start := time.Now()
	e.logger.Info("HTML parsing start",
		zap.Int("files", len(paths)),
		zap.String("engine", e.opts.Engine.Name()))

	res := workpool.Run(paths, workpool.Options{
		Workers: e.opts.Workers,
		Stage:   monitoring.StageListing,
		Logger:  e.logger,
		Metrics: e.metrics,
	}, func(_ int, path string) ([]record.Record, error) {
		recs, err := e.ExtractFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return recs, nil
	})

	total := 0
	for _, v := range res.Values {
		total += len(v)
	}
	out := make([]record.Record, 0, total)
	for _, v := range res.Values {
		out = append(out, v...)
	}
	for range res.Failed {
		e.metrics.ListingFailed()
	}

	e.metrics.AddRecords(monitoring.StageListing, len(out))
	e.metrics.ObserveStage(monitoring.StageListing, start)
	e.logger.Info("HTML parsing complete",
		zap.String("entries", humanize.Comma(int64(len(out)))),
		zap.Int("failed_files", len(res.Failed)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

// ExtractDir discovers listings under root matching pattern and extracts
// them. Only discovery errors are returned.
func (e *Extractor) ExtractDir(root, pattern string) ([]record.Record, error) {
	paths, err := source.DiscoverListings(root, pattern)
	if err != nil {
		return nil, err
	}
	return e.ExtractFiles(paths), nil
}
