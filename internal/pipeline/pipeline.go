package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/paperscope/internal/config"
	"github.com/GriffinCanCode/paperscope/internal/frequency"
	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/listing"
	"github.com/GriffinCanCode/paperscope/internal/logging"
	"github.com/GriffinCanCode/paperscope/internal/reconcile"
	"github.com/GriffinCanCode/paperscope/internal/record"
	"github.com/GriffinCanCode/paperscope/internal/shared/id"
	"github.com/GriffinCanCode/paperscope/internal/xmlstream"
)

// DefaultTopTerms is how many terms per year the report keeps.
const DefaultTopTerms = 25

// Options wires one run.
type Options struct {
	DumpPath string
	// ListingDir may be empty, which skips listing extraction and
	// reconciliation.
	ListingDir  string
	ListingGlob string

	Profile   config.Profile
	XML       xmlstream.Options
	Listing   listing.Options
	Reconcile reconcile.Options
	Aggregate frequency.Options
	TopTerms  int
}

// FromConfig builds Options from loaded configuration and a run profile.
// Unset worker counts resolve to the number of CPUs.
func FromConfig(cfg *config.Config, profile config.Profile) (Options, error) {
	engine, err := listing.EngineByName(cfg.Parse.HTMLEngine)
	if err != nil {
		return Options{}, err
	}

	mode := xmlstream.Lenient
	if cfg.Parse.Strict {
		mode = xmlstream.Strict
	}

	return Options{
		DumpPath:    cfg.Sources.DumpPath,
		ListingDir:  cfg.Sources.ListingDir,
		ListingGlob: cfg.Sources.ListingGlob,
		Profile:     profile,
		XML: xmlstream.Options{
			Mode:      mode,
			RecordTag: cfg.Parse.RecordTag,
			Trim:      cfg.Parse.HeapTrim,
		},
		Listing: listing.Options{
			Workers: config.Resolve(cfg.Workers.Extract),
			Engine:  engine,
		},
		Reconcile: reconcile.Options{
			Workers:    config.Resolve(cfg.Workers.Extract),
			Multiplier: cfg.Workers.ReconcileMultiplier,
		},
		Aggregate: frequency.Options{
			Workers: config.Resolve(cfg.Workers.Aggregate),
		},
		TopTerms: DefaultTopTerms,
	}, nil
}

// Report is everything a run hands to its consumers.
type Report struct {
	RunID   id.RunID       `json:"run_id"`
	Profile config.Profile `json:"profile"`

	DumpRecords    int `json:"dump_records"`
	ListingRecords int `json:"listing_records"`

	// Reconciliation is nil when listings were not processed.
	Reconciliation *reconcile.Report `json:"reconciliation,omitempty"`

	Counts   frequency.Table           `json:"counts"`
	Terms    map[int]frequency.Summary `json:"terms"`
	Consumed map[int]int               `json:"consumed"`

	Elapsed time.Duration `json:"elapsed_ns"`

	records []record.Record
}

// Records returns the admitted dump records.
func (r *Report) Records() []record.Record {
	return r.records
}

// Encode writes r as indented JSON with sorted map keys.
func (r *Report) Encode(w io.Writer) error {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Run executes every stage in order. Only a dump failure or a listing
// discovery failure aborts the run; everything below file level is logged
// and absorbed by the stage that hit it.
func Run(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) (*Report, error) {
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	if opts.TopTerms == 0 {
		opts.TopTerms = DefaultTopTerms
	}

	start := time.Now()
	rep := &Report{RunID: id.NewRunID(), Profile: opts.Profile}
	logger = logging.Component(logger, "pipeline").With(zap.Stringer("run_id", rep.RunID))

	logger.Info("Analysis start",
		zap.String("dump", opts.DumpPath),
		zap.Int("start_year", opts.Profile.StartYear),
		zap.Int("end_year", opts.Profile.EndYear),
		zap.Strings("venues", opts.Profile.Venues))

	counter := frequency.NewCounter(opts.Profile.StartYear, opts.Profile.EndYear, opts.Profile.Venues)
	dump, err := xmlstream.New(opts.XML, logger, metrics).ExtractFile(opts.DumpPath, counter.Keep)
	if err != nil {
		return nil, fmt.Errorf("dump extraction failed: %w", err)
	}
	rep.records = dump
	rep.DumpRecords = len(dump)

	countStart := time.Now()
	rep.Counts = counter.Table()
	metrics.ObserveStage(monitoring.StageCount, countStart)

	if opts.ListingDir != "" {
		html, err := listing.New(opts.Listing, logger, metrics).ExtractDir(opts.ListingDir, opts.ListingGlob)
		if err != nil {
			return nil, fmt.Errorf("listing discovery failed: %w", err)
		}
		rep.ListingRecords = len(html)

		rec := reconcile.New(opts.Reconcile, logger, metrics).Reconcile(html, dump)
		rep.Reconciliation = &rec
	}

	agg := frequency.New(opts.Aggregate, logger, metrics).Aggregate(dump, opts.Profile.Years())
	rep.Terms = agg.Summaries(opts.TopTerms)
	rep.Consumed = agg.Consumed

	rep.Elapsed = time.Since(start)
	logger.Info("Analysis complete",
		zap.Int("dump_records", rep.DumpRecords),
		zap.Int("listing_records", rep.ListingRecords),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}
