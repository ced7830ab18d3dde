// Package stream drives a matcher across successive windows of a large,
// randomly-addressable byte source, so the whole image never has to be
// held in memory at once.
//
// Windowing is grounded on searchlight.rs's own loop over
// Mmap::gapped_windows(block_size, block_size-max_pat_len): windows of
// blockSize bytes are cut at a stride of blockSize-overlap, each
// overlap-byte overlap with the previous window giving a stateful matcher
// (scalarm.Matcher) enough trailing context to complete a match that
// started in the previous window.
package stream

import "io"

// DefaultBlockSize is the window size used when the caller has no
// matcher-specific preference, mirroring searchlight.rs's
// DEFAULT_BLOCK_SIZE (1 MiB).
const DefaultBlockSize = 1024 * 1024

// windowIterator replays the exact cursor arithmetic of the original's
// GappedWindows iterator (src/lib/utils/iter.rs): each call takes up to
// windowSize bytes from the current cursor, then advances the cursor by
// windowGap -- not by the number of bytes actually returned -- and stops
// once windowGap would run the cursor past the end of the addressable
// range. Because the advance is compared against the *remaining* length
// rather than the window just emitted, a source whose length is an exact
// multiple of windowGap yields one extra, empty, trailing window; this is
// preserved rather than special-cased away, matching the original's own
// behaviour in that case.
type windowIterator struct {
	source    io.ReaderAt
	pos       int64
	remaining int64
	valid     bool
	windowSize int
	windowGap  int
}

func newWindowIterator(source io.ReaderAt, length int64, windowSize, windowGap int) *windowIterator {
	return &windowIterator{
		source:     source,
		remaining:  length,
		valid:      true,
		windowSize: windowSize,
		windowGap:  windowGap,
	}
}

// next returns the next window and its absolute offset in source, or
// ok=false once the source is exhausted.
func (w *windowIterator) next() (data []byte, offset int64, ok bool, err error) {
	if !w.valid {
		return nil, 0, false, nil
	}

	take := int64(w.windowSize)
	if take > w.remaining {
		take = w.remaining
	}

	buf := make([]byte, take)
	if take > 0 {
		if _, rerr := io.ReadFull(io.NewSectionReader(w.source, w.pos, take), buf); rerr != nil {
			return nil, 0, false, rerr
		}
	}
	offset = w.pos

	if int64(w.windowGap) > w.remaining {
		w.valid = false
	} else {
		w.pos += int64(w.windowGap)
		w.remaining -= int64(w.windowGap)
	}

	return buf, offset, true, nil
}
