// Package record defines the bibliographic record shared by every extractor
// and consumer in paperscope.
//
// A Record is the tuple (venue, year, title, authors, url). Both the XML dump
// extractor and the HTML listing extractor emit ordered slices of Records,
// and the reconciliation and frequency stages only ever read them.
//
// Invariants upheld by New:
//   - Venue is upper case
//   - Title is whitespace-normalized with no control characters
//   - Authors and URL are never nil (empty slice / empty string)
//
// Example Usage:
//
//	r := record.New("cvpr", 2021, "  Deep\tNets ", []string{"A. Author"}, "")
//	keep := record.YearRange(2010, 2025)
//	if keep(r) { ... }
package record
