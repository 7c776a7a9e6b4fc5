package workpool

// Span is a contiguous, order-preserving slice of a larger input. Offset is
// the position of Items[0] in that input.
type Span[T any] struct {
	Offset int
	Items  []T
}

// Partition splits items into at most parts contiguous spans whose sizes
// differ by at most one. Concatenating the spans yields items unchanged, so
// nothing is lost or duplicated.
func Partition[T any](items []T, parts int) []Span[T] {
	if len(items) == 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > len(items) {
		parts = len(items)
	}

	spans := make([]Span[T], 0, parts)
	size, extra := len(items)/parts, len(items)%parts
	offset := 0
	for p := 0; p < parts; p++ {
		n := size
		if p < extra {
			n++
		}
		spans = append(spans, Span[T]{Offset: offset, Items: items[offset : offset+n]})
		offset += n
	}
	return spans
}
