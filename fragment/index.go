package fragment

import "fmt"

// Index presents a list of Fragments as one virtual contiguous byte
// sequence over the underlying image data, so that a validator can walk
// a reconstructed file's bytes without caring where its clusters actually
// sit in the image.
type Index struct {
	data  []byte
	frags []Fragment
	start uint64
	len   uint64
}

// NewIndex builds an Index over the full span of frags.
func NewIndex(data []byte, frags []Fragment) *Index {
	var total uint64
	for _, f := range frags {
		total += f.Len()
	}
	return &Index{data: data, frags: frags, len: total}
}

// NewSlicedIndex builds an Index restricted to [startOffset, len-endOffset)
// of the virtual byte sequence frags describes. It panics if that range
// is empty or inverted.
func NewSlicedIndex(data []byte, frags []Fragment, startOffset, endOffset uint64) *Index {
	var total uint64
	for _, f := range frags {
		total += f.Len()
	}

	lenFromEnd := saturatingSub(total, endOffset)
	if lenFromEnd <= startOffset {
		panic(fmt.Sprintf("fragment: offset of %d from end (len %d) is before offset from start (index 0) of %d", endOffset, total, startOffset))
	}

	return &Index{data: data, frags: frags, start: startOffset, len: saturatingSub(lenFromEnd, startOffset)}
}

// Len reports the number of bytes visible through the index.
func (fi *Index) Len() uint64 { return fi.len }

// At returns the byte at the given virtual index, e.g. for
// frags = [4:7, 10:15], At(0) is data[4] and At(3) is data[10].
func (fi *Index) At(index uint64) byte {
	if index >= fi.len {
		panic(fmt.Sprintf("fragment: index %d out of bounds for len %d", index, fi.len))
	}
	index += fi.start

	var counter uint64
	for _, f := range fi.frags {
		span := f.Len()
		if counter+span > index {
			return fi.data[f.Start+(index-counter)]
		}
		counter += span
	}

	panic("fragment: index not found in any fragment, frags did not cover the full length")
}

// Bytes materialises the full virtual byte sequence into a new slice.
// Unlike At, which is suited to a one-off lookup, this avoids an O(n)
// fragment scan per byte when a validator needs to read the whole thing.
func (fi *Index) Bytes() []byte {
	out := make([]byte, 0, fi.len)

	remaining := fi.len
	skip := fi.start

	for _, f := range fi.frags {
		span := f.Len()
		if skip >= span {
			skip -= span
			continue
		}

		start := f.Start + skip
		skip = 0

		avail := f.End - start
		if avail > remaining {
			avail = remaining
		}

		out = append(out, fi.data[start:start+avail]...)
		remaining -= avail
		if remaining == 0 {
			break
		}
	}

	return out
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
