// Package catalogue holds the data model for a carve run's configured
// file types: their header/footer byte patterns, pairing strategy, and
// size bounds, plus validation and a tolerant JSON loader.
package catalogue

import (
	"fmt"
	"sort"
	"strings"

	log "charm.land/log/v2"

	"github.com/coregx/searchlight/matchid"
)

// Catalogue is the full set of carvable file types a search-and-carve run
// is configured against.
type Catalogue struct {
	MaxReconstructionSearchLen *uint64 `json:"max_reconstruction_search_len,omitempty"`
	Types                      []Type  `json:"file_type"`
}

type matchPart int

const (
	partHeader matchPart = iota
	partFooter
)

func (p matchPart) String() string {
	if p == partFooter {
		return "footer"
	}
	return "header"
}

type collisionEntry struct {
	typeIdx int
	part    matchPart
	str     MatchString
}

// Validate checks two things about the catalogue: every type must have a
// way to stop carving (a footer or a max length, and RequiresFooter only
// makes sense alongside at least one footer), and no two headers/footers
// across the whole catalogue may hash to the same match identity -- such
// a collision would leave the pairing stage unable to tell which type (or
// part) a match actually belongs to.
func (c *Catalogue) Validate() error {
	bad := false

	for _, ft := range c.Types {
		if !ft.HasFooter() && ft.MaxLen == nil {
			log.Error("catalogue: file type has no footers or a configured max length", "extension", extensionOrNone(ft))
			bad = true
		}
		if !ft.HasFooter() && ft.RequiresFooter {
			log.Error("catalogue: file type requires a footer but has none configured", "extension", extensionOrNone(ft))
			bad = true
		}
	}

	collisions := make(map[uint64][]collisionEntry)
	for i, ft := range c.Types {
		for _, h := range ft.Headers {
			id := matchid.HashElements(h.Elements)
			collisions[id] = append(collisions[id], collisionEntry{i, partHeader, h})
		}
		for _, f := range ft.Footers {
			id := matchid.HashElements(f.Elements)
			collisions[id] = append(collisions[id], collisionEntry{i, partFooter, f})
		}
	}

	ids := make([]uint64, 0, len(collisions))
	for id := range collisions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		set := collisions[id]
		if len(set) == 1 {
			continue
		}
		bad = true

		details := make([]string, len(set))
		for i, e := range set {
			details[i] = fmt.Sprintf("%s in type %s", e.part, extensionOrNone(c.Types[e.typeIdx]))
		}
		log.Error("catalogue: non-unique header/footer", "pattern", set[0].str.String(), "detail", "("+strings.Join(details, ", ")+")")
	}

	if bad {
		return ErrValidation
	}
	return nil
}

func extensionOrNone(t Type) string {
	if t.Extension == "" {
		return "<no extension>"
	}
	return t.Extension
}
