package config

import (
	"fmt"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Logging LogConfig
	Sources SourceConfig
	Parse   ParseConfig
	Workers WorkerConfig

	// ProfilePath points at a YAML or TOML run profile. Empty means
	// DefaultProfile.
	ProfilePath string `envconfig:"PROFILE"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// SourceConfig locates the two inputs.
type SourceConfig struct {
	DumpPath    string `envconfig:"DUMP_PATH" default:".cache/dblp.xml"`
	ListingDir  string `envconfig:"LISTING_DIR" default:".cache"`
	ListingGlob string `envconfig:"LISTING_GLOB" default:"*-[0-9][0-9][0-9][0-9]"`
}

// ParseConfig controls extractor behavior.
type ParseConfig struct {
	Strict     bool   `envconfig:"PARSE_STRICT" default:"false"`
	RecordTag  string `envconfig:"RECORD_TAG" default:"inproceedings"`
	HeapTrim   bool   `envconfig:"HEAP_TRIM" default:"true"`
	HTMLEngine string `envconfig:"HTML_ENGINE" default:"css"`
}

// WorkerConfig sizes the worker pools. Zero means one worker per CPU.
type WorkerConfig struct {
	Extract             int `envconfig:"EXTRACT_WORKERS" default:"0"`
	ReconcileMultiplier int `envconfig:"RECONCILE_MULTIPLIER" default:"2"`
	Aggregate           int `envconfig:"AGGREGATE_WORKERS" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Sources: SourceConfig{
			DumpPath:    ".cache/dblp.xml",
			ListingDir:  ".cache",
			ListingGlob: "*-[0-9][0-9][0-9][0-9]",
		},
		Parse: ParseConfig{
			Strict:     false,
			RecordTag:  "inproceedings",
			HeapTrim:   true,
			HTMLEngine: "css",
		},
		Workers: WorkerConfig{
			ReconcileMultiplier: 2,
		},
	}
}

// Resolve returns n, or the number of CPUs when n is not positive.
func Resolve(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}
