package validate

import (
	"encoding/binary"
	"math"

	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pairing"
)

const (
	jpegEOI  = 0xd9
	jpegAPP0 = 0xe0
	jpegAPP1 = 0xe1
	jpegSOF0 = 0xc0
	jpegSOF2 = 0xc2
	jpegSOS  = 0xda

	entropyThreshold = 0.6
	ff00Threshold    = 1
)

// JPEG walks a JPEG bitstream's marker segments from the carved header,
// tracking whether the mandatory APPn and SOFn segments were seen, and
// attempts to reconstruct scan data (the bytes after an SOS marker,
// which carry no explicit length) cluster by cluster when it looks like
// it might be fragmented.
//
// Written from https://www.w3.org/Graphics/JPEG/jfif3.pdf and
// https://www.w3.org/Graphics/JPEG/itu-t81.pdf.
type JPEG struct{}

// NewJPEG builds a JPEG validator.
func NewJPEG() *JPEG { return &JPEG{} }

// Validate implements Validator.
func (j *JPEG) Validate(fileData []byte, match pairing.Pair, _ []matchid.Match, clusterSize uint64, cat *catalogue.Catalogue) Info {
	var seenAppN, seenSofN bool
	var frags []fragment.Fragment

	i := match.Start

	for {
		if i+1 >= uint64(len(fileData)) {
			return j.incompleteResult(seenAppN, seenSofN, frags)
		}

		if fileData[i] != 0xff || fileData[i+1] == 0x00 {
			return j.incompleteResult(seenAppN, seenSofN, frags)
		}

		next := fileData[i+1]

		switch {
		case (next^0xd0) < 0x09 || next == 0x01:
			// SOI/EOI-less restart and bare markers: no length field.
			frags = fragment.Simplify(append(frags, fragment.Fragment{Start: i, End: i + 2}))
			i += 2

		case next == jpegEOI:
			end := i + 2 + clusterSize
			if end > uint64(len(fileData)) {
				end = uint64(len(fileData))
			}
			frags = fragment.Simplify(append(frags, fragment.Fragment{Start: i, End: end}))

			typ := FormatError
			if seenAppN && seenSofN {
				typ = Correct
			}
			return Info{Type: typ, Fragments: frags}

		case next == jpegSOS:
			chunkFrags, nextIdx, ok := reconstructJPEGScanData(fileData, i, clusterSize, cat)
			if !ok {
				frags = append(frags, fragment.Fragment{Start: i, End: nextIdx})
				return Info{Type: Partial, Fragments: frags}
			}
			frags = append(frags, chunkFrags...)
			i = nextIdx

		default:
			if next == jpegAPP0 || next == jpegAPP1 {
				seenAppN = true
			} else if next == jpegSOF0 || next == jpegSOF2 {
				seenSofN = true
			}

			if i+4 > uint64(len(fileData)) {
				return Info{Type: Partial, Fragments: frags}
			}
			segLen := uint64(binary.BigEndian.Uint16(fileData[i+2 : i+4]))
			frags = fragment.Simplify(append(frags, fragment.Fragment{Start: i, End: i + segLen + 2}))
			i += segLen + 2
		}
	}
}

func (j *JPEG) incompleteResult(seenAppN, seenSofN bool, frags []fragment.Fragment) Info {
	if seenAppN || seenSofN {
		return Info{Type: Partial, Fragments: frags}
	}
	return Info{Type: Unrecognised, Fragments: frags}
}

// reconstructJPEGScanData attempts to reconstruct scan data (assumed
// in-order) by classifying each cluster after the scan marker as either
// scan data or not, stopping once a cluster's classification points at
// the likely end of the scan (the next marker byte sequence).
func reconstructJPEGScanData(fileData []byte, scanMarkerIdx, clusterSize uint64, cat *catalogue.Catalogue) (frags []fragment.Fragment, next uint64, ok bool) {
	fragStart := nextMultipleOf(scanMarkerIdx+1, clusterSize)
	frags = []fragment.Fragment{{Start: scanMarkerIdx, End: fragStart}}

	maxSearch := ^uint64(0)
	if cat.MaxReconstructionSearchLen != nil {
		maxSearch = *cat.MaxReconstructionSearchLen
	}

	clusterIdx := fragStart
	for {
		searchOffset := (clusterIdx + clusterSize) - scanMarkerIdx
		if searchOffset > maxSearch || clusterIdx+clusterSize > uint64(len(fileData)) {
			return nil, clusterIdx, false
		}

		cluster := fileData[clusterIdx : clusterIdx+clusterSize]
		isData, likelyEnd, hasEnd := classifyJPEGData(cluster)

		switch {
		case !isData:
			// Not classified as scan data; keep scanning.
		case !hasEnd:
			frags = append(frags, fragment.Fragment{Start: clusterIdx, End: clusterIdx + clusterSize})
		default:
			frags = append(frags, fragment.Fragment{Start: clusterIdx, End: clusterIdx + uint64(likelyEnd)})
			frags = fragment.Simplify(frags)
			return frags, clusterIdx + uint64(likelyEnd), true
		}

		clusterIdx += clusterSize
	}
}

// classifyJPEGData attempts to classify a cluster of file data as JPEG
// scan data or not, by calculating the Shannon entropy and comparing it
// to a threshold, and by checking whether 0xff bytes are followed by
// bytes valid within a JPEG-compressed datastream (RST markers in
// sequence, or a stuffed 0xff00). Returns whether the cluster is likely
// scan data, and if so, the index of the likely end of the scan data --
// the first 0xff not followed by a RST marker or a stuffed 0x00.
func classifyJPEGData(cluster []byte) (isLikely bool, likelyEnd int, hasEnd bool) {
	entropy := shannonEntropy(cluster)

	countFF00 := 0
	firstFFXX := -1
	currRSTMarker := -1
	rstOrderingValid := true

	for i := 0; i < len(cluster)-1; i++ {
		if cluster[i] != 0xff {
			continue
		}

		switch b := cluster[i+1]; {
		case b == 0x00:
			if firstFFXX < 0 {
				countFF00++
			}
		case b >= 0xd0 && b <= 0xd7:
			if currRSTMarker >= 0 {
				if int(b) == currRSTMarker+1 || (currRSTMarker == 0xd7 && b == 0xd0) {
					currRSTMarker = int(b)
				} else {
					rstOrderingValid = false
				}
			} else {
				currRSTMarker = int(b)
			}
		default:
			if firstFFXX < 0 {
				firstFFXX = i
			}
		}
	}

	entropyValid := entropy > entropyThreshold
	contentsValid := countFF00 >= ff00Threshold && rstOrderingValid
	isLikely = entropyValid && contentsValid

	if isLikely && firstFFXX >= 0 {
		return true, firstFFXX, true
	}
	return isLikely, 0, false
}

func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	n := float64(len(data))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}
