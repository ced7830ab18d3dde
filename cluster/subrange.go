package cluster

// Range is a half-open byte range [Start, End).
type Range struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Len returns the number of bytes the range spans.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// SplitExact walks [start, end) cluster by cluster, returning one Range
// per full-sized chunk of size, in order, and -- if (end-start) isn't a
// multiple of size -- the trailing partial chunk as remainder. This is
// the Go shape of IntoSubrangesExact (utils/subrange.rs): Go's slices make
// the Rust version's custom iterator unnecessary, but the chunking and
// remainder semantics are exactly its own.
func SplitExact(start, end, size uint64) (subranges []Range, remainder *Range) {
	if size == 0 || end < start {
		return nil, nil
	}

	total := end - start
	numChunks := total / size

	subranges = make([]Range, 0, numChunks)
	for i := uint64(0); i < numChunks; i++ {
		cs := start + i*size
		subranges = append(subranges, Range{Start: cs, End: cs + size})
	}

	if rem := total % size; rem > 0 {
		remStart := start + numChunks*size
		remainder = &Range{Start: remStart, End: end}
	}

	return subranges, remainder
}
