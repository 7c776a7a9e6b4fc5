package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/paperscope/internal/config"
	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/logging"
	"github.com/GriffinCanCode/paperscope/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	// Parse flags; defaults come from the environment
	dump := flag.String("dump", cfg.Sources.DumpPath, "XML dump path (plain, gzip, zstd or bzip2)")
	listings := flag.String("listings", cfg.Sources.ListingDir, "Listing directory; empty skips reconciliation")
	glob := flag.String("glob", cfg.Sources.ListingGlob, "Listing file pattern relative to -listings")
	profilePath := flag.String("profile", cfg.ProfilePath, "YAML or TOML run profile")
	strict := flag.Bool("strict", cfg.Parse.Strict, "Validate the dump against its DTD")
	engine := flag.String("engine", cfg.Parse.HTMLEngine, "Listing engine: css or xpath")
	top := flag.Int("top", pipeline.DefaultTopTerms, "Terms per year in the report")
	metricsOut := flag.String("metrics-out", "", "Write Prometheus metrics to this file when done")
	flag.Parse()

	cfg.Sources.DumpPath = *dump
	cfg.Sources.ListingDir = *listings
	cfg.Sources.ListingGlob = *glob
	cfg.Parse.Strict = *strict
	cfg.Parse.HTMLEngine = *engine

	logger, err := logging.New(logging.ForEnvironment(cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	profile, err := config.LoadProfile(*profilePath)
	if err != nil {
		logger.Fatal("Failed to load profile", zap.Error(err))
	}

	opts, err := pipeline.FromConfig(cfg, profile)
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	opts.TopTerms = *top

	logger.Info("Starting analysis",
		zap.String("dump", opts.DumpPath),
		zap.String("listings", opts.ListingDir),
		zap.Int("extract_workers", opts.Listing.Workers),
		zap.Int("reconcile_partitions", opts.Reconcile.Partitions()),
		zap.Int("aggregate_workers", opts.Aggregate.Workers))

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// The core has no cancellation; an interrupt just ends the process
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	type outcome struct {
		report *pipeline.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		rep, err := pipeline.Run(opts, logger.Logger, metrics)
		done <- outcome{rep, err}
	}()

	var out outcome
	select {
	case sig := <-sigChan:
		logger.Warn("Interrupted, abandoning run", zap.Stringer("signal", sig))
		logger.Sync()
		os.Exit(130)
	case out = <-done:
	}

	if *metricsOut != "" {
		if err := prometheus.WriteToTextfile(*metricsOut, reg); err != nil {
			logger.Error("Failed to write metrics", zap.String("path", *metricsOut), zap.Error(err))
		}
	}

	if out.err != nil {
		logger.Fatal("Analysis failed", zap.Error(out.err))
	}
	if err := out.report.Encode(os.Stdout); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}
}
