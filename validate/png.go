package validate

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pairing"
)

const (
	pngIHDR = 0x49484452 // "IHDR"
	pngIDAT = 0x49444154 // "IDAT"
	pngPLTE = 0x504c5445 // "PLTE"
	pngIEND = 0x49454e44 // "IEND"

	pngIHDRLen = 13
)

// PNG walks a carved header's chunk stream, checking each chunk's CRC-32
// and, for IHDR and PLTE, conformance with the PNG spec's colour-type,
// bit-depth, and compression/filter/interlace method rules. Stops at the
// first IEND chunk, or the first chunk whose declared length runs past
// the end of the available data. A chunk whose CRC doesn't match its
// declared data -- the signature of a gap of foreign data interposed
// somewhere inside the chunk -- is handed to reconstructChunkData, which
// tries every single-gap cluster arrangement before giving up.
//
// Written from https://www.w3.org/TR/png-3/.
type PNG struct{}

// NewPNG builds a PNG validator.
func NewPNG() *PNG { return &PNG{} }

// Validate implements Validator.
func (p *PNG) Validate(fileData []byte, match pairing.Pair, _ []matchid.Match, clusterSize uint64, cat *catalogue.Catalogue) Info {
	var requiresPLTE, plteForbidden, seenPLTE, seenIEND bool
	worst := Correct
	var frags []fragment.Fragment

	i := match.Start
	for {
		if i+8 > uint64(len(fileData)) {
			worst = worst.Worst(Partial)
			break
		}

		dataLen := uint64(binary.BigEndian.Uint32(fileData[i : i+4]))
		chunkEnd := i + 12 + dataLen
		if chunkEnd > uint64(len(fileData)) {
			worst = worst.Worst(Partial)
			break
		}

		chunkType := binary.BigEndian.Uint32(fileData[i+4 : i+8])
		crc := binary.BigEndian.Uint32(fileData[i+8+dataLen : i+12+dataLen])
		calcCRC := crc32.ChecksumIEEE(fileData[i+4 : i+8+dataLen])
		intact := crc == calcCRC

		var chunkFrags []fragment.Fragment
		nextIdx := chunkEnd
		if !intact {
			if rfrags, rend, ok := p.reconstructChunkData(fileData, i, dataLen, clusterSize, cat); ok {
				chunkFrags, nextIdx, intact = rfrags, rend, true
			}
		}
		if chunkFrags == nil {
			chunkFrags = []fragment.Fragment{{Start: i, End: chunkEnd}}
		}

		var typ Type
		switch chunkType {
		case pngIHDR:
			typ = p.validateIHDR(fileData, i, dataLen, intact, &requiresPLTE, &plteForbidden)
		case pngPLTE:
			seenPLTE = true
			typ = conformanceVerdict(dataLen%3 == 0, intact)
		default:
			if intact {
				typ = Correct
			} else {
				typ = Corrupted
			}
		}
		worst = worst.Worst(typ)
		frags = fragment.Simplify(append(frags, chunkFrags...))

		if chunkType == pngIEND {
			seenIEND = true
		}

		i = nextIdx

		if seenIEND {
			break
		}
	}

	if requiresPLTE && !seenPLTE {
		worst = worst.Worst(FormatError)
	}
	if plteForbidden && seenPLTE {
		worst = worst.Worst(FormatError)
	}

	if frags == nil {
		frags = []fragment.Fragment{{Start: match.Start, End: i}}
	}
	return Info{Type: worst, Fragments: frags}
}

// reconstructChunkData attempts to reconstruct a chunk whose CRC didn't
// match as declared, assuming a single gap of foreign data is interposed
// somewhere within the chunk's data bytes (tightly packed clusters either
// side), by trying every single-gap cluster arrangement fragment.Generate
// proposes -- growing the candidate gap outward cluster by cluster, as
// reconstructJPEGScanData does for scan data -- and recomputing the CRC
// over each candidate's stitched-together type+data bytes. Returns the
// chunk's (possibly widened) fragment list, the index just past its CRC
// field, and whether a matching arrangement was found.
func (p *PNG) reconstructChunkData(fileData []byte, chunkStart, dataLen, clusterSize uint64, cat *catalogue.Catalogue) ([]fragment.Fragment, uint64, bool) {
	if clusterSize == 0 {
		// No cluster size to align a gap search against -- nothing to try.
		return nil, 0, false
	}

	dataStart := chunkStart + 8

	maxSearch := ^uint64(0)
	if cat != nil && cat.MaxReconstructionSearchLen != nil {
		maxSearch = *cat.MaxReconstructionSearchLen
	}

	fragStart := nextMultipleOf(dataStart, clusterSize)

	for gapClusters := uint64(1); ; gapClusters++ {
		gapSize := gapClusters * clusterSize
		physicalEnd := dataStart + dataLen + gapSize
		if physicalEnd-chunkStart > maxSearch || physicalEnd+4 > uint64(len(fileData)) {
			return nil, 0, false
		}

		fragEnd := prevMultipleOf(physicalEnd, clusterSize)
		if fragEnd <= fragStart {
			continue
		}

		totalClusters := (fragEnd - fragStart) / clusterSize
		if gapClusters > totalClusters {
			return nil, 0, false
		}
		clustersNeeded := totalClusters - gapClusters

		prefix := fileData[dataStart:fragStart]
		suffix := fileData[fragEnd:physicalEnd]

		declaredCRC := binary.BigEndian.Uint32(fileData[physicalEnd : physicalEnd+4])
		chunkType := fileData[chunkStart+4 : chunkStart+8]

		for _, dataFrags := range fragment.Generate(clusterSize, fragStart, fragEnd, clustersNeeded) {
			h := crc32.NewIEEE()
			h.Write(chunkType)
			h.Write(prefix)
			for _, r := range dataFrags {
				h.Write(fileData[r.Start:r.End])
			}
			h.Write(suffix)

			if h.Sum32() != declaredCRC {
				continue
			}

			result := append([]fragment.Fragment{{Start: chunkStart, End: fragStart}}, dataFrags...)
			result = append(result, fragment.Fragment{Start: fragEnd, End: physicalEnd + 4})
			return fragment.Simplify(result), physicalEnd + 4, true
		}
	}
}

func (p *PNG) validateIHDR(fileData []byte, chunkStart, dataLen uint64, intact bool, requiresPLTE, plteForbidden *bool) Type {
	if dataLen != pngIHDRLen {
		return conformanceVerdict(false, intact)
	}

	data := fileData[chunkStart+8:]
	bitDepth := data[8]
	colourType := data[9]
	compressionMethod := data[10]
	filterMethod := data[11]
	interlaceMethod := data[12]

	switch colourType {
	case 3:
		*requiresPLTE = true
	case 0, 4:
		*plteForbidden = true
	}

	bitDepthValid := (colourType == 0 && (bitDepth == 1 || bitDepth == 2 || bitDepth == 4 || bitDepth == 8 || bitDepth == 16)) ||
		((colourType == 2 || colourType == 4 || colourType == 6) && (bitDepth == 8 || bitDepth == 16)) ||
		(colourType == 3 && (bitDepth == 1 || bitDepth == 2 || bitDepth == 4 || bitDepth == 8))

	specConformant := bitDepthValid && compressionMethod == 0 && filterMethod == 0 && interlaceMethod < 2

	return conformanceVerdict(specConformant, intact)
}

func conformanceVerdict(specConformant, intact bool) Type {
	switch {
	case specConformant && intact:
		return Correct
	case intact:
		return FormatError
	default:
		return Corrupted
	}
}
