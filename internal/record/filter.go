package record

// YearRange admits records whose year lies in [start, end).
func YearRange(start, end int) Filter {
	return func(r Record) bool {
		return r.Year >= start && r.Year < end
	}
}

// Venues admits records from any of the given venues (case-insensitive).
func Venues(venues ...string) Filter {
	set := make(map[string]struct{}, len(venues))
	for _, v := range venues {
		set[NormalizeVenue(v)] = struct{}{}
	}
	return func(r Record) bool {
		_, ok := set[r.Venue]
		return ok
	}
}

// All admits a record only if every filter does. Nil filters are skipped.
func All(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}
