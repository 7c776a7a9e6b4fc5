package record

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Record is one publication. Values are treated as immutable once an
// extractor has emitted them; use Clone before changing a copy.
type Record struct {
	Venue   string   `json:"venue"`
	Year    int      `json:"year"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	URL     string   `json:"url"`
}

// Filter decides whether a completed record is admitted to a result set.
// Filters are called from a single goroutine by the XML extractor.
type Filter func(Record) bool

// New builds a Record, enforcing the model invariants.
func New(venue string, year int, title string, authors []string, url string) Record {
	a := make([]string, 0, len(authors))
	a = append(a, authors...)
	return Record{
		Venue:   NormalizeVenue(venue),
		Year:    year,
		Title:   NormalizeTitle(title),
		Authors: a,
		URL:     strings.TrimSpace(url),
	}
}

// NormalizeVenue upper-cases and trims a venue identifier.
func NormalizeVenue(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// NormalizeTitle collapses every run of whitespace or control characters
// into a single space and trims both ends. It is the one normalization used
// by both extractors, so titles from either source compare byte for byte.
func NormalizeTitle(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSeparator), " ")
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}

// Equal reports whether two records carry identical fields.
func (r Record) Equal(o Record) bool {
	return r.Venue == o.Venue &&
		r.Year == o.Year &&
		r.Title == o.Title &&
		r.URL == o.URL &&
		slices.Equal(r.Authors, o.Authors)
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	c := r
	c.Authors = slices.Clone(r.Authors)
	if c.Authors == nil {
		c.Authors = []string{}
	}
	return c
}

func (r Record) String() string {
	return fmt.Sprintf("%s %d %q", r.Venue, r.Year, r.Title)
}

// JoinFragments assembles mixed-content text: each fragment is joined to
// what came before with a single space, then the result is normalized. Both
// extractors build titles this way so split titles converge.
func JoinFragments(frags []string) string {
	return NormalizeTitle(strings.Join(frags, " "))
}
