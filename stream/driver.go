package stream

import (
	"fmt"
	"io"
	"sort"

	"github.com/coregx/searchlight/matchid"
)

// ScalarSearcher is the subset of scalarm.Matcher the driver needs:
// a stateful first-window Search and a stateful, overlap-skipping
// SearchNext for every window after it.
type ScalarSearcher interface {
	Search(data []byte, dataOffset uint64) []matchid.Match
	SearchNext(data []byte, dataOffset uint64) []matchid.Match
}

// RunScalar drives m across source (of the given length, in bytes) in
// blockSize windows, overlapping each by overlap bytes (the longest
// pattern m's table holds, i.e. m.Table().MaxPatternLength()) so the
// stateful matcher never misses a match that straddles a window boundary.
// Matches are returned sorted by start offset, as the original sorts its
// accumulated match vector before carving.
func RunScalar(source io.ReaderAt, length int64, blockSize, overlap int, m ScalarSearcher) ([]matchid.Match, error) {
	if blockSize <= overlap {
		return nil, fmt.Errorf("stream: block size %d must exceed the longest pattern (%d)", blockSize, overlap)
	}

	it := newWindowIterator(source, length, blockSize, blockSize-overlap)

	var matches []matchid.Match
	first := true
	for {
		data, offset, ok, err := it.next()
		if err != nil {
			return nil, fmt.Errorf("stream: reading window at %d: %w", offset, err)
		}
		if !ok {
			break
		}

		if first {
			matches = append(matches, m.Search(data, uint64(offset))...)
			first = false
		} else {
			matches = append(matches, m.SearchNext(data, uint64(offset))...)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches, nil
}

// ParallelSearcher is the subset of parallelm.Matcher the driver needs. A
// parallel matcher carries no state between calls, so every window is
// searched in full, overlap included -- the driver is responsible for
// discarding the duplicate matches that overlap therefore produces.
type ParallelSearcher interface {
	Search(data []byte, dataOffset uint64) []matchid.Match
}

// RunParallel drives m the same way RunScalar does, except every window is
// searched in its entirety (including the overlap region, since m keeps no
// state across calls) and matches already seen at a given (id, start) pair
// from an earlier window are dropped.
func RunParallel(source io.ReaderAt, length int64, blockSize, overlap int, m ParallelSearcher) ([]matchid.Match, error) {
	if blockSize <= overlap {
		return nil, fmt.Errorf("stream: block size %d must exceed the longest pattern (%d)", blockSize, overlap)
	}

	it := newWindowIterator(source, length, blockSize, blockSize-overlap)

	type key struct {
		id    uint64
		start uint64
	}
	seen := make(map[key]struct{})

	var matches []matchid.Match
	for {
		data, offset, ok, err := it.next()
		if err != nil {
			return nil, fmt.Errorf("stream: reading window at %d: %w", offset, err)
		}
		if !ok {
			break
		}

		for _, mt := range m.Search(data, uint64(offset)) {
			k := key{id: mt.ID, start: mt.Start}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			matches = append(matches, mt)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches, nil
}
