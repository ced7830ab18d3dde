package pattern

import (
	"fmt"

	"github.com/coregx/searchlight/internal/sparse"
)

// Validate checks the structural invariant that every non-root,
// non-accepting state is reachable from the root by a breadth-first walk
// over the table's transitions, using a sparse set to track visited
// states in O(1) per membership test and insert.
func (t *Table) Validate() error {
	visited := sparse.NewSparseSet(uint32(len(t.rows)))
	queue := []uint32{RootState}
	visited.Insert(RootState)

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, e := range t.rows[s] {
			if visited.Contains(e.NextState) {
				continue
			}
			visited.Insert(e.NextState)
			queue = append(queue, e.NextState)
		}
	}

	for s := uint32(0); s < uint32(len(t.rows)); s++ {
		if s == RootState || t.IsAccepting(s) {
			continue
		}
		if !visited.Contains(s) {
			return fmt.Errorf("pattern: state %d is unreachable from root", s)
		}
	}
	return nil
}
