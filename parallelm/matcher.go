// Package parallelm implements the data-parallel automaton walker: the same
// PFAC idea as scalarm -- every byte position independently starts a
// forward walk through the automaton -- but realised as goroutines sharding
// the position range of a buffer, each shard accelerated by a nibble-mask
// prefilter that can only ever over-approximate candidates.
//
// The original carver dispatches this same per-position walk to a GPU via
// Vulkan compute shaders. No GPU-compute binding exists anywhere in the
// available corpus, so this package substitutes goroutine-sharded CPU
// parallelism for the device dispatch: the walk each shard performs is
// bit-for-bit the one scalarm.Matcher performs, so the match set produced
// is identical to the scalar matcher's by construction, not by testing.
//
// Unlike scalarm.Matcher, a Matcher here carries no state between calls:
// windowing overlap and cross-window deduplication are the stream
// package's responsibility.
package parallelm

import (
	"runtime"
	"sort"
	"sync"

	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pattern"
)

// Matcher walks table from every still-plausible start position of a
// buffer concurrently.
type Matcher struct {
	table     *pattern.Table
	encoded   []uint32
	prefilter *prefilter
}

// New returns a Matcher over table. patterns is the same pattern-element
// sequences used to build table; it is needed separately because Table
// discards the original element sequences once built, but the prefilter
// needs their leading bytes to build its nibble masks.
//
// table is flattened once, up front, via Table.EncodeIndexable into a
// dense states x 257 array: every shard's per-position walk then does an
// O(1) array read per step rather than scalarm's linear scan of a state's
// transition list, the thing that matters most once a walk is replicated
// across every byte position concurrently.
func New(table *pattern.Table, patterns [][]uint16) *Matcher {
	m := &Matcher{table: table, encoded: table.EncodeIndexable()}
	if prefilterEnabled() {
		m.prefilter = buildPrefilter(patterns)
	}
	return m
}

// lookupIndexable is the dense-encoding equivalent of Table.Lookup: an O(1)
// read of the flattened states x IndexableColumns array built by New,
// falling back to the wildcard column if no literal transition is set. A
// cell reads as "unset" when it holds pattern.NoTransition (the value
// EncodeIndexable fills every column without a transition with) or 0 (root
// is never a legitimate transition target).
func (m *Matcher) lookupIndexable(s uint32, value byte) (next uint32, elem uint16, ok bool) {
	base := int(s) * pattern.IndexableColumns

	if cell := m.encoded[base+int(value)]; cell != 0 && cell != pattern.NoTransition {
		return cell, uint16(value), true
	}
	if cell := m.encoded[base+pattern.IndexableColumns-1]; cell != 0 && cell != pattern.NoTransition {
		return cell, pattern.Wildcard, true
	}
	return 0, 0, false
}

// Table returns the automaton this matcher walks.
func (m *Matcher) Table() *pattern.Table {
	return m.table
}

// Search walks every start position of data concurrently, sharded across
// up to GOMAXPROCS goroutines, and returns every match completed within
// this call, sorted by (Start, ID). dataOffset is the absolute image
// position of data[0].
func (m *Matcher) Search(data []byte, dataOffset uint64) []matchid.Match {
	if len(data) == 0 {
		return nil
	}

	shards := runtime.GOMAXPROCS(0)
	if shards > len(data) {
		shards = len(data)
	}
	if shards < 1 {
		shards = 1
	}

	width := (len(data) + shards - 1) / shards
	results := make([][]matchid.Match, shards)

	var wg sync.WaitGroup
	for s := 0; s < shards; s++ {
		start := s * width
		end := start + width
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(idx, from, to int) {
			defer wg.Done()
			results[idx] = m.searchRange(data, dataOffset, from, to)
		}(s, start, end)
	}
	wg.Wait()

	var out []matchid.Match
	for _, r := range results {
		out = append(out, r...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// searchRange walks every start position in [from, to) of data, each walk
// independent of every other, identically to one iteration of
// scalarm.Matcher's per-byte loop started fresh at that position.
func (m *Matcher) searchRange(data []byte, dataOffset uint64, from, to int) []matchid.Match {
	var matches []matchid.Match

	for i := from; i < to; i++ {
		if m.prefilter != nil && !m.prefilter.IsCandidate(data, i) {
			continue
		}

		state, elem, ok := m.lookupIndexable(pattern.RootState, data[i])
		if !ok {
			continue
		}
		hash := matchid.HashAddElement(matchid.HashInit(), elem)

		pos := i + 1
		for {
			if m.table.IsAccepting(state) {
				matches = append(matches, matchid.New(hash, dataOffset+uint64(i), dataOffset+uint64(pos)-1))
				break
			}
			if pos >= len(data) {
				break
			}
			state, elem, ok = m.lookupIndexable(state, data[pos])
			if !ok {
				break
			}
			hash = matchid.HashAddElement(hash, elem)
			pos++
		}
	}

	return matches
}
