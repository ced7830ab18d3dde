package validate

import (
	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pairing"
)

// Validator analyses the bytes of one carved match pair and reports how
// confident the result is. allMatches is the full match list for the
// image (ZIP's validator cross-references it to find every local file
// header belonging to the archive), and clusterSize is the filesystem's
// estimated allocation unit, used by fragmentation reconstruction.
type Validator interface {
	Validate(fileData []byte, match pairing.Pair, allMatches []matchid.Match, clusterSize uint64, cat *catalogue.Catalogue) Info
}

// Delegating dispatches to a registered Validator by the match pair's
// catalogue type id, defaulting anything without one to Unanalysed --
// the file was carved, but nothing checked whether it's any good.
type Delegating struct {
	validators map[catalogue.TypeID]Validator
}

// NewDelegating builds a Delegating validator with every format this
// package implements wired in.
func NewDelegating() *Delegating {
	return &Delegating{validators: map[catalogue.TypeID]Validator{
		catalogue.JPEG: NewJPEG(),
		catalogue.PNG:  NewPNG(),
		catalogue.ZIP:  NewZIP(),
	}}
}

// Validate implements Validator.
func (d *Delegating) Validate(fileData []byte, match pairing.Pair, allMatches []matchid.Match, clusterSize uint64, cat *catalogue.Catalogue) Info {
	id := catalogue.Unknown
	if match.Type != nil {
		id = match.Type.ID
	}

	v, ok := d.validators[id]
	if !ok {
		return Info{Type: Unanalysed}
	}
	return v.Validate(fileData, match, allMatches, clusterSize, cat)
}
