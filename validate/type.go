// Package validate analyses a carved-out match pair's bytes against its
// format's structure, producing a confidence verdict and (where
// fragmentation analysis succeeded) the byte ranges the real file
// actually occupies.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/coregx/searchlight/fragment"
)

// Type is the outcome of validating a carved file against its format.
type Type int

const (
	// Correct means the file parsed cleanly end to end and every
	// structural check (checksums, mandatory segments, chunk
	// conformance) passed.
	Correct Type = iota
	// Partial means the file could be parsed up to some point but ran
	// out of data, or a fragmentation-reconstruction search failed to
	// find a plausible gap.
	Partial
	// FormatError means the file parsed, but violates its format's
	// specification in some way that doesn't corrupt the data itself.
	FormatError
	// Corrupted means structural parsing succeeded but a checksum
	// mismatched, or otherwise indicates the bytes themselves are bad.
	Corrupted
	// Unrecognised means the bytes didn't look like this format at all
	// from the very first structural check.
	Unrecognised
	// Unanalysed means no validator exists for this format, or this
	// validator explicitly declined to analyse the match (e.g. an
	// unsupported compression method, or a multi-disk ZIP archive).
	Unanalysed
)

func (t Type) String() string {
	switch t {
	case Correct:
		return "correct"
	case Partial:
		return "partial"
	case FormatError:
		return "format_error"
	case Corrupted:
		return "corrupted"
	case Unrecognised:
		return "unrecognised"
	default:
		return "unanalysed"
	}
}

// severity ranks outcomes from best to worst, for Worst to compare by.
var severity = map[Type]int{
	Correct:      0,
	Partial:      1,
	FormatError:  2,
	Corrupted:    3,
	Unrecognised: 4,
	Unanalysed:   5,
}

// Worst returns whichever of t and other represents the less favourable
// outcome, for validators (like ZIP's) that combine verdicts across
// several sub-components of one file into a single overall verdict.
func (t Type) Worst(other Type) Type {
	if severity[other] > severity[t] {
		return other
	}
	return t
}

// MarshalJSON renders the verdict in its lowercase wire form, matching
// catalogue.TypeID's convention for enums carried in a carve log.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses the lowercase wire form written by MarshalJSON.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("validate: type: %w", err)
	}
	switch s {
	case "correct":
		*t = Correct
	case "partial":
		*t = Partial
	case "format_error":
		*t = FormatError
	case "corrupted":
		*t = Corrupted
	case "unrecognised":
		*t = Unrecognised
	default:
		*t = Unanalysed
	}
	return nil
}

// Info is the result of validating one carved file.
type Info struct {
	Type Type
	// Fragments is the set of byte ranges that make up the file, when the
	// validator did fragmentation analysis. A nil slice means the
	// validator didn't attempt reconstruction (the file is presumed
	// contiguous, [Start, End) of the originating match pair).
	Fragments []fragment.Fragment
}
