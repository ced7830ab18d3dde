package pattern

// Elem is one outgoing transition of a state, as stored in a built Table.
type Elem struct {
	NextState uint32
	Value     uint16
}

// Table is an immutable, built automaton: a slice of rows, one per state,
// each holding that state's outgoing transitions. A state with no
// transitions is accepting.
type Table struct {
	rows          [][]Elem
	maxPatternLen int
}

// NumStates returns the number of states in the table.
func (t *Table) NumStates() int {
	return len(t.rows)
}

// MaxPatternLength returns the length of the longest inserted pattern.
func (t *Table) MaxPatternLength() int {
	return t.maxPatternLen
}

// IsAccepting reports whether state s has no outgoing transitions.
func (t *Table) IsAccepting(s uint32) bool {
	return len(t.rows[s]) == 0
}

// Lookup finds the transition for a literal byte value out of state s,
// falling back to a wildcard transition if no literal transition exists.
// ok is false if s has neither. elem is the pattern element that matched
// (the literal byte value, or Wildcard) -- callers folding a match-identity
// hash must fold elem, not the raw observed byte, so that wildcard matches
// share one identity regardless of the concrete byte seen.
func (t *Table) Lookup(s uint32, value byte) (next uint32, elem uint16, ok bool) {
	row := t.rows[s]
	for _, e := range row {
		if e.Value == uint16(value) {
			return e.NextState, e.Value, true
		}
	}
	for _, e := range row {
		if e.Value == Wildcard {
			return e.NextState, e.Value, true
		}
	}
	return 0, 0, false
}

// IndexableColumns is the fixed column width of the dense encoding: 256
// literal byte values plus one wildcard column.
const IndexableColumns = 257

// EncodeIndexable returns a dense states x 257 table, flattened
// row-major: column x (0-255) holds the next state on literal byte x;
// column 256 holds the next state on a wildcard transition. Cells with no
// transition hold NoTransition. This is the form the parallel matcher
// consumes for O(1) lookups.
func (t *Table) EncodeIndexable() []uint32 {
	const cols = IndexableColumns
	out := make([]uint32, cols*len(t.rows))
	for j := range out {
		out[j] = NoTransition
	}

	for i, row := range t.rows {
		for _, e := range row {
			col := int(e.Value)
			if e.Value == Wildcard {
				col = cols - 1
			}
			out[i*cols+col] = e.NextState
		}
	}

	return out
}
