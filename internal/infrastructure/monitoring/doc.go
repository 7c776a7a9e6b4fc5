// Package monitoring provides Prometheus metrics for the extraction pipeline.
//
// Metrics:
//   - paperscope_records_extracted_total{source}
//   - paperscope_listing_failures_total
//   - paperscope_reconcile_mismatches_total
//   - paperscope_pool_unit_errors_total{stage}
//   - paperscope_stage_duration_seconds{stage}
//
// Every method on *Metrics tolerates a nil receiver.
//
// Example Usage:
//
//	reg := prometheus.NewRegistry()
//	m := monitoring.NewMetrics(reg)
//	m.AddRecords(monitoring.StageXML, len(records))
package monitoring
