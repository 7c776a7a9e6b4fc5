package reconcile

import "github.com/GriffinCanCode/paperscope/internal/record"

// Index is a read-only set of normalized titles. It is safe for concurrent
// lookups once built.
type Index struct {
	titles map[string]struct{}
}

// NewIndex collects the normalized titles of records.
func NewIndex(records []record.Record) Index {
	titles := make(map[string]struct{}, len(records))
	for _, r := range records {
		titles[record.NormalizeTitle(r.Title)] = struct{}{}
	}
	return Index{titles: titles}
}

// Has reports whether title, once normalized, is in the index.
func (x Index) Has(title string) bool {
	_, ok := x.titles[record.NormalizeTitle(title)]
	return ok
}

// Len is the number of distinct titles.
func (x Index) Len() int {
	return len(x.titles)
}
