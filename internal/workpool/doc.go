// Package workpool implements the fork/join pool shared by the listing
// extractor, the reconciliation engine and the frequency aggregator.
//
// Work is submitted as one task per unit to a bounded errgroup, joined
// synchronously, and returned positionally. Failures are isolated per unit:
// an error or panic is logged, counted, and the unit yields a zero value.
//
// Example Usage:
//
//	res := workpool.Run(paths, workpool.Options{Workers: 8, Stage: "listing"},
//		func(i int, path string) ([]record.Record, error) { return parse(path) })
//	for _, recs := range res.Values { ... }
package workpool
