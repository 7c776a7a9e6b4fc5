// Package config provides 12-factor configuration management for paperscope.
//
// Configuration is loaded from environment variables with sensible defaults.
// What a run analyses (year range, tracked venues) lives in a separate
// profile file, YAML or TOML.
//
// Configuration Sections:
//   - Logging: Log level and output format
//   - Sources: Dump path, listing directory and listing glob
//   - Parse: Strict mode, record tag, heap trim, HTML engine
//   - Workers: Pool sizes and the reconciliation multiplier
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	profile, err := config.LoadProfile(cfg.ProfilePath)
//
// Environment Variables:
//   - LOG_LEVEL, LOG_DEV
//   - DUMP_PATH, LISTING_DIR, LISTING_GLOB
//   - PARSE_STRICT, RECORD_TAG, HEAP_TRIM, HTML_ENGINE
//   - EXTRACT_WORKERS, RECONCILE_MULTIPLIER, AGGREGATE_WORKERS
//   - PROFILE
package config
