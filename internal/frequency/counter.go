package frequency

import (
	"github.com/GriffinCanCode/paperscope/internal/record"
)

// Table maps venue to year to publication count.
type Table map[string]map[int]int

// Counter admits records whose year lies in [start, end) and counts those
// from tracked venues as a side effect. Keep has the record.Filter shape,
// so a Counter can ride along with the XML extractor. Not safe for
// concurrent use.
type Counter struct {
	start, end int
	counts     Table
}

// NewCounter tracks venues over [start, end). Every tracked venue starts
// with a zero count for every year in range.
func NewCounter(start, end int, venues []string) *Counter {
	c := &Counter{start: start, end: end, counts: make(Table, len(venues))}
	for _, v := range venues {
		years := make(map[int]int, max(end-start, 0))
		for y := start; y < end; y++ {
			years[y] = 0
		}
		c.counts[record.NormalizeVenue(v)] = years
	}
	return c
}

// Keep reports whether r falls in the year range, counting it when its
// venue is tracked.
func (c *Counter) Keep(r record.Record) bool {
	if r.Year < c.start || r.Year >= c.end {
		return false
	}
	if years, ok := c.counts[r.Venue]; ok {
		years[r.Year]++
	}
	return true
}

// Table returns a copy of the counts without zero-count years. Tracked
// venues with no records at all map to an empty year table.
func (c *Counter) Table() Table {
	out := make(Table, len(c.counts))
	for venue, years := range c.counts {
		kept := make(map[int]int)
		for y, n := range years {
			if n > 0 {
				kept[y] = n
			}
		}
		out[venue] = kept
	}
	return out
}

// CountByVenue counts records per tracked venue and year in [start, end)
// with a single scan.
func CountByVenue(records []record.Record, venues []string, start, end int) Table {
	c := NewCounter(start, end, venues)
	for _, r := range records {
		c.Keep(r)
	}
	return c.Table()
}
