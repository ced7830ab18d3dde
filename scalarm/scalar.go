// Package scalarm implements the scalar (one-trail-per-still-live-start)
// automaton walker, grounded directly on the original carver's AcCpu: a
// single matcher instance persists its active trails across successive
// windows of a stream, so a subsequent window only needs to scan the bytes
// past where the previous window left off.
package scalarm

import (
	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pattern"
)

// trail is one still-live walk through the automaton: it started matching
// at Start and has reached State, having folded the elements seen so far
// into Hash.
type trail struct {
	State uint32
	Hash  uint64
	Start uint64
}

// Matcher drives a pattern.Table byte by byte over successive buffers,
// preserving active trails between calls.
type Matcher struct {
	table  *pattern.Table
	trails []trail
}

// New returns a Matcher over table, with no active trails.
func New(table *pattern.Table) *Matcher {
	return &Matcher{table: table}
}

// Table returns the automaton this matcher walks.
func (m *Matcher) Table() *pattern.Table {
	return m.table
}

// Search scans every byte of data, starting new trails at every position
// (as well as advancing/emitting whatever trails are already active from
// a previous call), and returns the matches completed during this call.
// dataOffset is the absolute image position of data[0].
func (m *Matcher) Search(data []byte, dataOffset uint64) []matchid.Match {
	return m.searchFrom(data, dataOffset, 0)
}

// SearchNext is Search for a non-first window of a stream: it skips
// spawning (and advancing -- those bytes were already consumed by the
// previous call) over the leading min(MaxPatternLength, len(data))
// bytes of data, which is exactly the window overlap the streaming
// driver is expected to supply.
func (m *Matcher) SearchNext(data []byte, dataOffset uint64) []matchid.Match {
	skip := m.table.MaxPatternLength()
	if skip > len(data) {
		skip = len(data)
	}
	if skip < 0 {
		skip = 0
	}
	return m.searchFrom(data[skip:], dataOffset+uint64(skip), 0)
}

func (m *Matcher) searchFrom(data []byte, dataOffset uint64, skipSpawnUntil int) []matchid.Match {
	var matches []matchid.Match

	for i, b := range data {
		absPos := dataOffset + uint64(i)

		kept := m.trails[:0]
		for _, tr := range m.trails {
			if m.table.IsAccepting(tr.State) {
				matches = append(matches, matchid.New(tr.Hash, tr.Start, absPos-1))
				continue
			}
			if next, elem, ok := m.table.Lookup(tr.State, b); ok {
				tr.State = next
				tr.Hash = matchid.HashAddElement(tr.Hash, elem)
				kept = append(kept, tr)
			}
		}
		m.trails = kept

		if i >= skipSpawnUntil {
			if next, elem, ok := m.table.Lookup(pattern.RootState, b); ok {
				m.trails = append(m.trails, trail{
					State: next,
					Hash:  matchid.HashAddElement(matchid.HashInit(), elem),
					Start: absPos,
				})
			}
		}
	}

	// A trail that reached the accept state on the final byte of data is
	// complete; emit it now instead of waiting for a byte that may not come.
	if len(data) > 0 {
		end := dataOffset + uint64(len(data)) - 1
		kept := m.trails[:0]
		for _, tr := range m.trails {
			if m.table.IsAccepting(tr.State) {
				matches = append(matches, matchid.New(tr.Hash, tr.Start, end))
				continue
			}
			kept = append(kept, tr)
		}
		m.trails = kept
	}

	return matches
}

// Reset discards all active trails, as if no bytes had ever been scanned.
func (m *Matcher) Reset() {
	m.trails = nil
}
