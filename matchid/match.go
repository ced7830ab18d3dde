package matchid

// Match is a single matcher hit: the pattern identified by Id was found
// spanning the closed byte range [Start, EndInclusive] of the image.
type Match struct {
	ID           uint64
	Start        uint64
	EndInclusive uint64
}

// New builds a Match.
func New(id, start, endInclusive uint64) Match {
	return Match{ID: id, Start: start, EndInclusive: endInclusive}
}

// Len returns the number of bytes the match spans.
func (m Match) Len() uint64 {
	return m.EndInclusive - m.Start + 1
}

// ByStart sorts a slice of Match by Start, ascending; ties are left in
// their existing relative order (the caller is expected to use a stable
// sort when that matters, e.g. sort.SliceStable).
type ByStart []Match

func (b ByStart) Len() int           { return len(b) }
func (b ByStart) Less(i, j int) bool { return b[i].Start < b[j].Start }
func (b ByStart) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
