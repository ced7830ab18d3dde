package validate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"sort"

	"github.com/klauspost/compress/flate"

	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pairing"
)

const (
	zipLocalFileHeaderSig   = 0x04034b50
	zipCentralDirHeaderSig  = 0x02014b50
	zipDataDescriptorSig    = 0x08074b50
	zipLocalFileHeaderSize  = 30
	zipDataDescriptorSize   = 12
	zipCentralDirHeaderSize = 46
	zipEOCDSize             = 22
	zipDataDescriptorFlag   = 0b1000

	zipCompressionStore   = 0
	zipCompressionDeflate = 8
)

// zipLocalFileHeaderID is the match identity of a ZIP local file header
// signature, computed the same way the catalogue would hash a header
// pattern of "PK\x03\x04" -- so that validateZIP can pick local file
// header matches back out of the full match list regardless of which
// catalogue type id fired them.
var zipLocalFileHeaderID = matchid.HashElements(catalogue.NewMatchString("PK\\x03\\x04").Elements)

var (
	errUnsupportedCompression = errors.New("validate: unsupported ZIP compression method")
	errDecompression          = errors.New("validate: ZIP decompression failed")
)

type centralDirEntry struct {
	crc              uint32
	compressedSize   uint32
	fileHeaderOffset uint32
	fileName         []byte
	extraField       []byte
	len              uint64
}

func decodeCentralDirEntry(data []byte) (*centralDirEntry, bool) {
	if len(data) < 0x2e {
		return nil, false
	}
	if binary.LittleEndian.Uint32(data[0x00:0x04]) != zipCentralDirHeaderSig {
		return nil, false
	}

	crc := binary.LittleEndian.Uint32(data[0x10:0x14])
	compressedSize := binary.LittleEndian.Uint32(data[0x14:0x18])
	fileNameLen := uint64(binary.LittleEndian.Uint16(data[0x1c:0x1e]))
	extraLen := uint64(binary.LittleEndian.Uint16(data[0x1e:0x20]))
	fileHeaderOffset := binary.LittleEndian.Uint32(data[0x2a:0x2e])

	if uint64(len(data)) < 0x2e+fileNameLen+extraLen {
		return nil, false
	}

	return &centralDirEntry{
		crc:              crc,
		compressedSize:   compressedSize,
		fileHeaderOffset: fileHeaderOffset,
		fileName:         data[0x2e : 0x2e+fileNameLen],
		extraField:       data[0x2e+fileNameLen : 0x2e+fileNameLen+extraLen],
		len:              zipCentralDirHeaderSize + fileNameLen + extraLen,
	}, true
}

func (c *centralDirEntry) same(l *localFileHeader) bool {
	// If the local file header's data-descriptor flag (bit 3) is set, a
	// data descriptor carries the CRC and compressed size instead -- fall
	// back to the file name as the only available indicator in that case.
	return (c.crc == l.crc || l.hasDataDescriptor) &&
		(c.compressedSize == l.compressedSize || l.hasDataDescriptor) &&
		bytes.Equal(c.fileName, l.fileName)
}

type localFileHeader struct {
	idx               uint64
	hasDataDescriptor bool
	compressionMethod uint16
	crc               uint32
	compressedSize    uint32
	fileName          []byte
	extraField        []byte
	offset            uint32 // from the matching central directory entry
	len               uint64
}

func decodeLocalFileHeader(data []byte, idx uint64) (*localFileHeader, bool) {
	if len(data) < 0x1e {
		return nil, false
	}
	if binary.LittleEndian.Uint32(data[0x00:0x04]) != zipLocalFileHeaderSig {
		return nil, false
	}

	flags := binary.LittleEndian.Uint16(data[0x06:0x08])
	compressionMethod := binary.LittleEndian.Uint16(data[0x08:0x0a])
	crc := binary.LittleEndian.Uint32(data[0x0e:0x12])
	compressedSize := binary.LittleEndian.Uint32(data[0x12:0x16])
	fileNameLen := uint64(binary.LittleEndian.Uint16(data[0x1a:0x1c]))
	extraLen := uint64(binary.LittleEndian.Uint16(data[0x1c:0x1e]))

	if uint64(len(data)) < 0x1e+fileNameLen+extraLen {
		return nil, false
	}

	return &localFileHeader{
		idx:               idx,
		hasDataDescriptor: flags&zipDataDescriptorFlag != 0,
		compressionMethod: compressionMethod,
		crc:               crc,
		compressedSize:    compressedSize,
		fileName:          data[0x1e : 0x1e+fileNameLen],
		extraField:        data[0x1e+fileNameLen : 0x1e+fileNameLen+extraLen],
		len:               zipLocalFileHeaderSize + fileNameLen + extraLen,
	}, true
}

func (l *localFileHeader) updateWith(c *centralDirEntry) {
	l.crc = c.crc
	l.compressedSize = c.compressedSize
	l.offset = c.fileHeaderOffset
}

type dataDescriptor struct {
	crc uint32
	len uint64
}

func decodeDataDescriptor(data []byte) dataDescriptor {
	first := binary.LittleEndian.Uint32(data[0x00:0x04])
	if first == zipDataDescriptorSig {
		return dataDescriptor{crc: binary.LittleEndian.Uint32(data[0x04:0x08]), len: zipDataDescriptorSize + 4}
	}
	return dataDescriptor{crc: first, len: zipDataDescriptorSize}
}

// zipCRCCalc computes the CRC-32 of the logical data described by
// dataSlices, decompressing first if compressionMethod calls for it.
func zipCRCCalc(dataSlices [][]byte, compressionMethod uint16) (uint32, error) {
	switch compressionMethod {
	case zipCompressionStore:
		h := crc32.NewIEEE()
		for _, s := range dataSlices {
			h.Write(s)
		}
		return h.Sum32(), nil

	case zipCompressionDeflate:
		readers := make([]io.Reader, len(dataSlices))
		for i, s := range dataSlices {
			readers[i] = bytes.NewReader(s)
		}
		fr := flate.NewReader(io.MultiReader(readers...))
		defer fr.Close()

		h := crc32.NewIEEE()
		if _, err := io.Copy(h, fr); err != nil {
			return 0, errDecompression
		}
		return h.Sum32(), nil

	default:
		return 0, errUnsupportedCompression
	}
}

type localFileValidation struct {
	typ   Type
	frags []fragment.Fragment
}

// ZIP cross-references the central directory against local file header
// matches to locate every entry in the archive, checks each entry's CRC
// (decompressing DEFLATE streams to do so), and for an entry whose
// recomputed CRC doesn't match its declared CRC -- the signature of a single gap of
// non-ZIP data in the middle of its compressed stream -- tries every
// single-gap cluster arrangement between it and the next entry, looking
// for one whose stitched-together bytes recompute to the declared CRC.
//
// Written from https://pkwaredownloads.blob.core.windows.net/pem/APPNOTE.txt.
// Deliberately out of scope (as in the original): ZIP64, multi-disk
// archives, encryption, and digital signatures.
type ZIP struct{}

// NewZIP builds a ZIP validator.
func NewZIP() *ZIP { return &ZIP{} }

// Validate implements Validator.
func (z *ZIP) Validate(fileData []byte, match pairing.Pair, allMatches []matchid.Match, clusterSize uint64, _ *catalogue.Catalogue) Info {
	if match.Type == nil || len(match.Type.Footers) == 0 {
		return Info{Type: Unanalysed}
	}

	footerLen := uint64(len(match.Type.Footers[0].Elements))
	if footerLen > match.End {
		return Info{Type: Partial}
	}
	eocdIdx := match.End - footerLen

	if eocdIdx+zipEOCDSize > uint64(len(fileData)) {
		return Info{Type: Partial}
	}

	sig := fileData[eocdIdx : eocdIdx+4]
	if !bytes.Equal(sig, []byte{0x50, 0x4b, 0x05, 0x06}) {
		return Info{Type: Unrecognised}
	}

	eocdCommentLen := uint64(binary.LittleEndian.Uint16(fileData[eocdIdx+0x14 : eocdIdx+0x16]))
	eocdLen := eocdCommentLen + zipEOCDSize

	cdDiskNo := binary.LittleEndian.Uint16(fileData[eocdIdx+4 : eocdIdx+6])
	cdStartDiskNo := binary.LittleEndian.Uint16(fileData[eocdIdx+6 : eocdIdx+8])
	if cdDiskNo != cdStartDiskNo || cdDiskNo > 0 {
		return Info{Type: Unanalysed}
	}

	cdTotalEntries := binary.LittleEndian.Uint16(fileData[eocdIdx+10 : eocdIdx+12])
	cdSize := uint64(binary.LittleEndian.Uint32(fileData[eocdIdx+12 : eocdIdx+16]))

	if cdSize > eocdIdx {
		return Info{Type: Partial}
	}
	centralDirIdx := eocdIdx - cdSize

	var centralDir []*centralDirEntry
	for i := centralDirIdx; i < eocdIdx; {
		rec, ok := decodeCentralDirEntry(fileData[i:])
		if !ok {
			break
		}
		i += rec.len
		centralDir = append(centralDir, rec)
	}

	var localHeaders []*localFileHeader
	for _, m := range allMatches {
		if m.ID != zipLocalFileHeaderID || m.Start >= uint64(len(fileData)) {
			continue
		}
		rec, ok := decodeLocalFileHeader(fileData[m.Start:], m.Start)
		if !ok {
			continue
		}
		for _, cdfh := range centralDir {
			if cdfh.same(rec) {
				rec.updateWith(cdfh)
				localHeaders = append(localHeaders, rec)
				break
			}
		}
	}
	sort.Slice(localHeaders, func(i, j int) bool { return localHeaders[i].offset < localHeaders[j].offset })

	fileFrags := []fragment.Fragment{{Start: centralDirIdx, End: eocdIdx + eocdLen}}
	worst := Correct

	for i, h := range localHeaders {
		nextIdx := centralDirIdx
		if i+1 < len(localHeaders) {
			nextIdx = uint64(localHeaders[i+1].offset)
		}

		info := z.validateFile(fileData, h, nextIdx, clusterSize)
		if info.typ != Unrecognised {
			fileFrags = append(fileFrags, info.frags...)
			worst = worst.Worst(info.typ)
		}
	}

	sort.Slice(fileFrags, func(i, j int) bool { return fileFrags[i].Start < fileFrags[j].Start })
	fileFrags = fragment.Simplify(fileFrags)

	if uint64(cdTotalEntries) != uint64(len(localHeaders)) {
		worst = worst.Worst(Corrupted)
	}

	return Info{Type: worst, Fragments: fileFrags}
}

func (z *ZIP) validateFile(fileData []byte, header *localFileHeader, nextHeaderIdx, clusterSize uint64) localFileValidation {
	dataIdx := header.idx + header.len

	var ddLen uint64
	if header.hasDataDescriptor {
		ddIdx := dataIdx + uint64(header.compressedSize)
		if ddIdx+4 > uint64(len(fileData)) {
			return localFileValidation{typ: Partial}
		}
		ddLen = decodeDataDescriptor(fileData[ddIdx:]).len
	}

	unfragEnd := dataIdx + uint64(header.compressedSize) + ddLen
	if unfragEnd > uint64(len(fileData)) {
		return localFileValidation{typ: Partial}
	}

	unfragCRC, err := zipCRCCalc([][]byte{fileData[dataIdx : dataIdx+uint64(header.compressedSize)]}, header.compressionMethod)
	switch {
	case errors.Is(err, errUnsupportedCompression):
		// Can't reconstruct what we can't decompress; hand it back as-is.
		return localFileValidation{typ: Unanalysed, frags: []fragment.Fragment{{Start: header.idx, End: unfragEnd}}}
	case errors.Is(err, errDecompression):
		// Almost certainly means the data is fragmented or corrupt; force
		// a CRC mismatch below so reconstruction gets a chance to run.
		if header.crc == 0 {
			unfragCRC = 1
		} else {
			unfragCRC = 0
		}
	}

	if unfragCRC == header.crc {
		return localFileValidation{typ: Correct, frags: []fragment.Fragment{{Start: header.idx, End: unfragEnd}}}
	}

	// Out-of-scope cases (out-of-order fragments, or the gap extending
	// past the next header/central directory) are reported corrupted
	// rather than attempted.
	if unfragEnd >= nextHeaderIdx {
		return localFileValidation{typ: Corrupted, frags: []fragment.Fragment{{Start: header.idx, End: unfragEnd}}}
	}

	dataFrags, endIdx, ok := z.reconstructFileData(fileData, header, dataIdx, nextHeaderIdx, clusterSize)
	if !ok {
		return localFileValidation{typ: Partial, frags: []fragment.Fragment{{Start: header.idx, End: unfragEnd}}}
	}

	dataFrags = append([]fragment.Fragment{{Start: header.idx, End: dataIdx}}, dataFrags...)
	if header.hasDataDescriptor {
		dd := decodeDataDescriptor(fileData[endIdx:])
		dataFrags = append(dataFrags, fragment.Fragment{Start: endIdx, End: endIdx + dd.len})
	}

	return localFileValidation{typ: Correct, frags: fragment.Simplify(dataFrags)}
}

// reconstructFileData attempts to reconstruct fragmented ZIP file data,
// assuming the file's compressed stream is interrupted by exactly one
// gap of non-ZIP data (tightly packed segments either side), by trying
// every single-gap cluster arrangement fragment.Generate proposes and
// recomputing the CRC over each candidate's stitched-together bytes.
func (z *ZIP) reconstructFileData(fileData []byte, header *localFileHeader, dataIdx, nextHeaderIdx, clusterSize uint64) ([]fragment.Fragment, uint64, bool) {
	ddLen := uint64(zipDataDescriptorSize)
	if sigIdx := nextHeaderIdx - (zipDataDescriptorSize + 4); sigIdx+4 <= uint64(len(fileData)) {
		if binary.LittleEndian.Uint32(fileData[sigIdx:sigIdx+4]) == zipDataDescriptorSig {
			ddLen = zipDataDescriptorSize + 4
		}
	}

	fragStart := nextMultipleOf(dataIdx, clusterSize)
	fragEnd := prevMultipleOf(nextHeaderIdx-ddLen, clusterSize)
	if fragEnd < fragStart || dataIdx+uint64(header.compressedSize)+ddLen > nextHeaderIdx {
		return nil, 0, false
	}

	bytesSkipped := nextHeaderIdx - (dataIdx + uint64(header.compressedSize) + ddLen)
	if bytesSkipped%clusterSize != 0 {
		return nil, 0, false
	}

	clustersSkipped := bytesSkipped / clusterSize
	totalClusters := (fragEnd - fragStart) / clusterSize
	if clustersSkipped > totalClusters {
		return nil, 0, false
	}
	clustersNeeded := totalClusters - clustersSkipped

	prefix := fileData[dataIdx:fragStart]
	suffix := fileData[fragEnd : nextHeaderIdx-ddLen]

	for _, dataFrags := range fragment.Generate(clusterSize, fragStart, fragEnd, clustersNeeded) {
		slices := make([][]byte, 0, len(dataFrags)+2)
		slices = append(slices, prefix)
		for _, r := range dataFrags {
			slices = append(slices, fileData[r.Start:r.End])
		}
		slices = append(slices, suffix)

		calcCRC, err := zipCRCCalc(slices, header.compressionMethod)
		if err != nil {
			continue
		}
		if calcCRC == header.crc {
			result := append([]fragment.Fragment{{Start: dataIdx, End: fragStart}}, dataFrags...)
			result = append(result, fragment.Fragment{Start: fragEnd, End: nextHeaderIdx - ddLen})
			return fragment.Simplify(result), nextHeaderIdx, true
		}
	}

	return nil, 0, false
}
