// Package pairing turns header and footer matches into complete file
// ranges, using each catalogue type's configured pairing strategy.
//
// A type with the PairNext strategy closes an open header with the next
// footer that keeps the fragment within the type's max length: of the run
// of still-open headers at the top of the stack that are in range of that
// footer, the earliest one is paired. PairLast instead waits to see
// whether a later footer also falls in range before committing, so that
// when several footers of the same type cluster together the LAST one
// closes the fragment rather than the first.
//
// Process is a streaming, two-call contract: call it once per batch of
// newly found matches (sorted by Start) with endOfMatches false, and once
// more -- with the final batch, or an empty one -- with endOfMatches
// true, to resolve or drop any headers still open when the search
// concludes. Matches that got resolved (paired, or sized out to a max
// length) are removed from the slice *matches points at; nothing is ever
// added back.
package pairing

import (
	"fmt"
	"sort"

	log "charm.land/log/v2"

	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/matchid"
)

// Part distinguishes a header match from a footer match.
type Part int

const (
	Header Part = iota
	Footer
)

func (p Part) String() string {
	if p == Footer {
		return "footer"
	}
	return "header"
}

type idEntry struct {
	typeIndex int
	ftype     *catalogue.Type
	part      Part
}

// IDMap maps a match identity hash to the catalogue type (and whether it
// is a header or a footer of that type) that produced it. Build one with
// Preprocess before calling Process.
type IDMap map[uint64]idEntry

// Preprocess builds the id-to-type lookup that Process needs, from every
// header and footer pattern in cat. Catalogue.Validate is expected to
// have already rejected configurations with colliding identity hashes;
// Preprocess just warns and lets the later type win, so that a caller who
// skipped validation still gets a usable (if ambiguous) map.
func Preprocess(cat *catalogue.Catalogue) IDMap {
	m := make(IDMap)
	for i := range cat.Types {
		ft := &cat.Types[i]
		for _, h := range ft.Headers {
			id := matchid.HashElements(h.Elements)
			if _, ok := m[id]; ok {
				log.Warn("pairing: collision detected, matches of this byte sequence may be misattributed",
					"header", h.String(), "type", extOrNone(ft))
			}
			m[id] = idEntry{i, ft, Header}
		}
		for _, f := range ft.Footers {
			id := matchid.HashElements(f.Elements)
			if _, ok := m[id]; ok {
				log.Warn("pairing: collision detected, matches of this byte sequence may be misattributed",
					"footer", f.String(), "type", extOrNone(ft))
			}
			m[id] = idEntry{i, ft, Footer}
		}
	}
	return m
}

// Lookup reports the catalogue type and part (header or footer) that
// produced match identity id, for callers -- like cluster size estimation
// -- that need to classify raw matches without running Process.
func (m IDMap) Lookup(id uint64) (ftype *catalogue.Type, part Part, ok bool) {
	e, ok := m[id]
	if !ok {
		return nil, 0, false
	}
	return e.ftype, e.part, true
}

func extOrNone(t *catalogue.Type) string {
	if t.Extension == "" {
		return "<no extension>"
	}
	return t.Extension
}

// Pair is a single complete file range: the half-open byte range
// [Start, End) of the catalogue type at TypeIndex, formed either by
// joining a header match to a footer match, or by sizing a header match
// out to the type's configured max length.
type Pair struct {
	TypeIndex int
	Type      *catalogue.Type
	Start     uint64
	End       uint64
}

func newPair(ft *catalogue.Type, idx int, start, end matchid.Match) Pair {
	return Pair{TypeIndex: idx, Type: ft, Start: start.Start, End: end.EndInclusive + 1}
}

func newSizedPair(ft *catalogue.Type, idx int, start matchid.Match, size uint64) Pair {
	return Pair{TypeIndex: idx, Type: ft, Start: start.Start, End: start.Start + size}
}

// inRange reports whether footer falls within maxSize bytes of header
// (measuring to footer's exclusive end). A nil maxSize means unbounded.
func inRange(header, footer matchid.Match, maxSize *uint64) bool {
	if maxSize == nil {
		return true
	}
	return (footer.EndInclusive+1)-header.Start <= *maxSize
}

// Process resolves the batch of matches (which must be sorted by Start)
// against ids, producing Pairs and removing every match it consumed from
// *matches. See the package doc for the two-call streaming contract.
//
// Process panics if a match's id is missing from ids (a match the
// catalogue's own patterns couldn't have produced), or if a type has
// neither a footer nor a max length configured -- both indicate the
// catalogue was never run through Catalogue.Validate.
func Process(matches *[]matchid.Match, ids IDMap, endOfMatches bool) []Pair {
	var complete []Pair
	matchTracker := make(map[int][]int) // file type index -> indices into ms, in first-seen order
	var toRemove []int

	ms := *matches

	for mi := 0; mi < len(ms); mi++ {
		entry, ok := ids[ms[mi].ID]
		if !ok {
			panic(fmt.Sprintf("pairing: match id %d was not found in the id map", ms[mi].ID))
		}
		ftIdx, ft, part := entry.typeIndex, entry.ftype, entry.part

		switch {
		case ft.HasFooter() && part == Header:
			matchTracker[ftIdx] = append(matchTracker[ftIdx], mi)

		case part == Header:
			if ft.MaxLen == nil {
				panic(fmt.Sprintf("pairing: type %s has neither a footer nor a max length", extOrNone(ft)))
			}
			complete = append(complete, newSizedPair(ft, ftIdx, ms[mi], *ft.MaxLen))
			toRemove = append(toRemove, mi)

		default: // Footer
			stack := matchTracker[ftIdx]

			if ft.Pairing == catalogue.PairNext {
				pairStackIdx, pairMatchIdx, found := -1, -1, false
				for si := len(stack) - 1; si >= 0; si-- {
					if inRange(ms[stack[si]], ms[mi], ft.MaxLen) {
						pairStackIdx, pairMatchIdx, found = si, stack[si], true
					} else {
						break
					}
				}

				if found {
					complete = append(complete, newPair(ft, ftIdx, ms[pairMatchIdx], ms[mi]))
					toRemove = append(toRemove, pairMatchIdx, mi)
					matchTracker[ftIdx] = append(stack[:pairStackIdx:pairStackIdx], stack[pairStackIdx+1:]...)
				} else {
					toRemove = append(toRemove, mi)
				}
			} else { // PairLast
				addFooter := true
				if len(stack) > 0 {
					headerIdx, headerMatchIdx, haveHeader := -1, -1, false
					for si := len(stack) - 1; si >= 0; si-- {
						if ids[ms[stack[si]].ID].part == Header {
							headerIdx, headerMatchIdx, haveHeader = si, stack[si], true
							break
						}
					}

					if haveHeader {
						lastIdx := stack[len(stack)-1]
						if lastIdx != headerMatchIdx &&
							inRange(ms[headerMatchIdx], ms[lastIdx], ft.MaxLen) &&
							!inRange(ms[headerMatchIdx], ms[mi], ft.MaxLen) {
							complete = append(complete, newPair(ft, ftIdx, ms[headerMatchIdx], ms[lastIdx]))
							addFooter = false
							toRemove = append(toRemove, lastIdx, headerMatchIdx)

							stack = stack[:len(stack)-1]
							stack = append(stack[:headerIdx:headerIdx], stack[headerIdx+1:]...)
							matchTracker[ftIdx] = stack
						}
					}
				}

				if addFooter {
					matchTracker[ftIdx] = append(matchTracker[ftIdx], mi)
				}
			}
		}
	}

	// Resolve (or drop) whatever is still pending in the per-type stacks.
	for ftIdx, stack := range matchTracker {
		i := 0
		for i < len(stack) {
			increment := true
			mi := stack[i]
			entry := ids[ms[mi].ID]
			ft, part := entry.ftype, entry.part

			if ft.Pairing == catalogue.PairNext {
				if endOfMatches {
					if !ft.RequiresFooter && ft.MaxLen != nil {
						complete = append(complete, newSizedPair(ft, ftIdx, ms[mi], *ft.MaxLen))
					}
					toRemove = append(toRemove, mi)
				}
			} else if part == Header { // PairLast, header
				pairIdx := -1
				leftRange := false
				for j := i + 1; j < len(stack); j++ {
					if ids[ms[stack[j]].ID].part == Footer && inRange(ms[mi], ms[stack[j]], ft.MaxLen) {
						pairIdx = j
					} else if !inRange(ms[mi], ms[stack[j]], ft.MaxLen) {
						leftRange = true
					}
				}

				if leftRange || endOfMatches {
					switch {
					case pairIdx >= 0:
						complete = append(complete, newPair(ft, ftIdx, ms[mi], ms[stack[pairIdx]]))
						toRemove = append(toRemove, mi, stack[pairIdx])
						stack = append(stack[:pairIdx], stack[pairIdx+1:]...)
						stack = append(stack[:i], stack[i+1:]...)
						increment = false
					case endOfMatches && !ft.RequiresFooter:
						if ft.MaxLen != nil {
							complete = append(complete, newSizedPair(ft, ftIdx, ms[mi], *ft.MaxLen))
						}
						toRemove = append(toRemove, mi)
					case ft.RequiresFooter && leftRange:
						toRemove = append(toRemove, mi)
						stack = append(stack[:i], stack[i+1:]...)
						increment = false
					}
				}
			} else { // PairLast, footer
				precededByHeader := false
				for _, mj := range stack[:i] {
					if ids[ms[mj].ID].part == Header {
						precededByHeader = true
						break
					}
				}
				if !precededByHeader {
					toRemove = append(toRemove, mi)
					stack = append(stack[:i], stack[i+1:]...)
					increment = false
				}
			}

			if increment {
				i++
			}
		}
	}

	sort.Ints(toRemove)
	deduped := toRemove[:0]
	last := -1
	for _, idx := range toRemove {
		if idx != last {
			deduped = append(deduped, idx)
			last = idx
		}
	}

	for i := len(deduped) - 1; i >= 0; i-- {
		idx := deduped[i]
		ms = append(ms[:idx], ms[idx+1:]...)
	}
	*matches = ms

	return complete
}
