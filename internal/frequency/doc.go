// Package frequency turns dump records into per-year term weights and
// per-venue publication counts.
//
// Aggregate buckets records by year in one pass and hands each year to a
// worker that tokenizes its titles and weights every term by its share of
// the year's tokens. Years never overlap between workers, so merging is a
// plain union.
//
// Counter is the counting pass. It doubles as an XML extractor filter so
// counting happens while the dump streams, and CountByVenue runs the same
// count over a finished record slice.
package frequency
