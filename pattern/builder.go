// Package pattern builds the dense, suffix-shared automaton table that the
// scalar and parallel matchers walk.
//
// A table is a DAG of states numbered from 0: state 0 is the root, state 1
// is the terminal accept sink. Construction proceeds pattern by pattern,
// reusing suffix state chains byte-for-byte identical to an already-seen
// pattern tail (suffix sharing), following the teacher's incremental
// Add*-style Builder API but adapted to this automaton's own shape rather
// than a regex NFA's.
package pattern

import (
	"hash/maphash"

	"github.com/coregx/searchlight/internal/conv"
	"github.com/coregx/searchlight/matchid"
)

// RootState and AcceptState are the two states every Builder pre-allocates.
const (
	RootState   uint32 = 0
	AcceptState uint32 = 1
)

// NoTransition marks the absence of a transition in the indexable encoding.
const NoTransition uint32 = ^uint32(0)

// transition is one outgoing edge of a state: on Value, go to Next.
type transition struct {
	Next  uint32
	Value uint16
}

// node is a state under construction: an ordered list of outgoing edges.
type node struct {
	next []transition
}

// Builder incrementally constructs a Table from a set of patterns.
type Builder struct {
	nodes        []node
	suffixSharing bool
	suffixIndex  map[uint64]uint32
	maxPatternLen int
	seed         maphash.Seed
}

// NewBuilder returns a Builder with the root (0) and accept (1) states
// pre-allocated. When suffixSharing is true, identical pattern suffixes
// seen during construction reuse the same state chain instead of
// allocating a fresh one.
func NewBuilder(suffixSharing bool) *Builder {
	return &Builder{
		nodes:         []node{{}, {}},
		suffixSharing: suffixSharing,
		suffixIndex:   make(map[uint64]uint32),
		seed:          maphash.MakeSeed(),
	}
}

// AddPattern inserts one pattern (a non-empty sequence of pattern
// elements, 0x00-0xFF literal or matchid.WildcardElement) into the
// automaton under construction.
func (b *Builder) AddPattern(pat []uint16) error {
	if len(pat) == 0 {
		return ErrEmptyPattern
	}

	curr := uint32(RootState)
	for i, val := range pat {
		if next, ok := b.findTransition(curr, val); ok {
			curr = next
			continue
		}

		suffix := pat[i+1:]
		var next uint32
		switch {
		case i == len(pat)-1:
			next = AcceptState
		default:
			h := hashSuffix(b.seed, suffix)
			if existing, ok := b.suffixIndex[h]; ok {
				next = existing
			} else {
				next = conv.IntToUint32(len(b.nodes))
				b.nodes = append(b.nodes, node{})
				if b.suffixSharing {
					b.suffixIndex[h] = next
				}
			}
		}

		b.nodes[curr].next = append(b.nodes[curr].next, transition{Next: next, Value: val})
		curr = next
	}

	if len(pat) > b.maxPatternLen {
		b.maxPatternLen = len(pat)
	}
	return nil
}

// findTransition returns the existing transition for val from state s, if
// any.
func (b *Builder) findTransition(s uint32, val uint16) (uint32, bool) {
	for _, t := range b.nodes[s].next {
		if t.Value == val {
			return t.Next, true
		}
	}
	return 0, false
}

// hashSuffix hashes the remaining pattern-element suffix, used to decide
// whether a state chain can be shared with an already-inserted pattern.
func hashSuffix(seed maphash.Seed, suffix []uint16) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	buf := make([]byte, 0, len(suffix)*2)
	for _, v := range suffix {
		buf = append(buf, byte(v), byte(v>>8))
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

// Build finalises construction into an immutable Table.
func (b *Builder) Build() *Table {
	table := make([][]Elem, len(b.nodes))
	for i, n := range b.nodes {
		row := make([]Elem, len(n.next))
		for j, t := range n.next {
			row[j] = Elem{NextState: t.Next, Value: t.Value}
		}
		table[i] = row
	}
	return &Table{rows: table, maxPatternLen: b.maxPatternLen}
}

// Wildcard is the one-byte match-any pattern element.
const Wildcard = matchid.WildcardElement
