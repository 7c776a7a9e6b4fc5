package frequency

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Term is one weighted term.
type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Summary describes the weight distribution of one year.
type Summary struct {
	Terms  int     `json:"terms"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	Top    []Term  `json:"top"`
}

// Top returns the n heaviest terms, ties broken alphabetically.
func (w Weights) Top(n int) []Term {
	terms := make([]Term, 0, len(w))
	for t, v := range w {
		terms = append(terms, Term{Term: t, Weight: v})
	}
	slices.SortFunc(terms, func(a, b Term) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	if n >= 0 && n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

// Summarize computes distribution statistics over w and keeps its top terms.
func (w Weights) Summarize(top int) Summary {
	if len(w) == 0 {
		return Summary{Top: []Term{}}
	}

	values := make([]float64, 0, len(w))
	for _, v := range w {
		values = append(values, v)
	}
	slices.Sort(values)

	// Sample deviation is undefined below two values and NaN does not encode.
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return Summary{
		Terms:  len(values),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Max:    floats.Max(values),
		Top:    w.Top(top),
	}
}

// Summaries summarizes every year in r.
func (r Result) Summaries(top int) map[int]Summary {
	out := make(map[int]Summary, len(r.Weights))
	for year, w := range r.Weights {
		out[year] = w.Summarize(top)
	}
	return out
}
