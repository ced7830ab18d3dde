package pattern

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by this package.
var (
	// ErrEmptyPattern indicates a pattern with no elements was rejected.
	ErrEmptyPattern = errors.New("pattern: empty pattern")

	// ErrInvalidState indicates a state ID outside the built table's range.
	ErrInvalidState = errors.New("pattern: invalid state id")
)

// BuildError wraps a failure to add a pattern to a Builder with the
// pattern's index among those submitted so far, for diagnostics.
type BuildError struct {
	PatternIndex int
	Err          error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pattern: failed to add pattern %d: %v", e.PatternIndex, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
