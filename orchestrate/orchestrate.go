// Package orchestrate ties pattern-table construction, the streaming
// matcher, cluster-size estimation, pairing and validation into one
// end-to-end carve of a disk image, and can replay a previously written
// carve log without repeating discovery.
//
// Grounded on searchlight.rs's Searchlight::process_image_file and
// Searchlight::process_log_file, adapted to take an injected io.ReaderAt
// for image access and an injected Sink for output, rather than
// memory-mapping the image and writing directly to the filesystem --
// neither is a concern any [MODULE] of the specification calls out, and
// both are easy to vary (an in-memory image for tests, a sink that
// streams to object storage) behind a narrow interface.
package orchestrate

import (
	"bytes"
	"fmt"
	"io"

	log "charm.land/log/v2"

	"github.com/coregx/searchlight/carvelog"
	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/cluster"
	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pairing"
	"github.com/coregx/searchlight/parallelm"
	"github.com/coregx/searchlight/pattern"
	"github.com/coregx/searchlight/scalarm"
	"github.com/coregx/searchlight/stream"
	"github.com/coregx/searchlight/validate"
)

// DefaultBlockSize is the size of the windows the search phase loads and
// scans the image in, matching the original's DEFAULT_BLOCK_SIZE.
const DefaultBlockSize = 1024 * 1024

// Sink receives the bytes that make up one carved file, addressed as a
// list of byte ranges into source (more than one when a validator
// reconstructed a fragmented file). Unless Config.SkipCarving is set,
// exactly one WriteFile call is made per candidate that validates as
// anything other than validate.Unrecognised.
type Sink interface {
	WriteFile(verdict validate.Type, filename string, source io.ReaderAt, fragments []fragment.Fragment) error
}

// Config controls one carve run.
type Config struct {
	// BlockSize is the window size the search phase loads at a time.
	// Zero means DefaultBlockSize.
	BlockSize int
	// ClusterSize overrides automatic cluster-size estimation. Zero means
	// estimate from header match offsets, falling back to 1 (effectively
	// unclustered) when no candidate size gets a clear majority.
	ClusterSize uint64
	// Parallel selects the goroutine-sharded matcher over the
	// single-trail scalar one.
	Parallel bool
	// SkipCarving runs discovery, pairing and validation and produces a
	// log, but never calls Sink.WriteFile.
	SkipCarving bool
}

// Orchestrator runs carve operations against one catalogue.
type Orchestrator struct {
	cat       *catalogue.Catalogue
	validator validate.Validator
	cfg       Config

	table    *pattern.Table
	patterns [][]uint16
	ids      pairing.IDMap
}

// New builds an Orchestrator from a validated catalogue. validator
// defaults to validate.NewDelegating() when nil.
func New(cat *catalogue.Catalogue, validator validate.Validator, cfg Config) (*Orchestrator, error) {
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrate: invalid catalogue: %w", err)
	}
	if validator == nil {
		validator = validate.NewDelegating()
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	table, patterns, err := buildTable(cat)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: building pattern table: %w", err)
	}

	return &Orchestrator{
		cat:       cat,
		validator: validator,
		cfg:       cfg,
		table:     table,
		patterns:  patterns,
		ids:       pairing.Preprocess(cat),
	}, nil
}

func buildTable(cat *catalogue.Catalogue) (*pattern.Table, [][]uint16, error) {
	b := pattern.NewBuilder(true)
	var patterns [][]uint16
	for _, ft := range cat.Types {
		for _, h := range ft.Headers {
			if err := b.AddPattern(h.Elements); err != nil {
				return nil, nil, err
			}
			patterns = append(patterns, h.Elements)
		}
		for _, f := range ft.Footers {
			if err := b.AddPattern(f.Elements); err != nil {
				return nil, nil, err
			}
			patterns = append(patterns, f.Elements)
		}
	}
	return b.Build(), patterns, nil
}

// CarveImage searches source (length bytes) for every header and footer
// pattern configured in the catalogue, pairs the results into candidate
// files, validates each one, and -- unless cfg.SkipCarving is set --
// writes every candidate that didn't validate as Unrecognised to sink.
// imagePath is recorded in the returned log, for a later CarveFromLog
// replay against the same image.
func (o *Orchestrator) CarveImage(source io.ReaderAt, length int64, imagePath string, sink Sink) (*carvelog.Document, error) {
	// Read into one buffer rather than windowing source directly: validators
	// slice fileData at arbitrary absolute offsets for gap reconstruction,
	// which an io.ReaderAt window can't support once a candidate's fragments
	// fall outside the window that found its header.
	data := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(source, 0, length), data); err != nil {
		return nil, fmt.Errorf("orchestrate: reading image: %w", err)
	}
	reader := bytes.NewReader(data)

	overlap := o.table.MaxPatternLength()
	blockSize := o.cfg.BlockSize
	if blockSize <= overlap {
		blockSize = overlap + DefaultBlockSize
	}

	log.Info("starting search phase", "image", imagePath, "length", length, "block_size", blockSize)

	var matches []matchid.Match
	var err error
	if o.cfg.Parallel {
		matches, err = stream.RunParallel(reader, length, blockSize, overlap, parallelm.New(o.table, o.patterns))
	} else {
		matches, err = stream.RunScalar(reader, length, blockSize, overlap, scalarm.New(o.table))
	}
	if err != nil {
		return nil, fmt.Errorf("orchestrate: search phase: %w", err)
	}

	numMatches := len(matches)

	clusterSize := o.cfg.ClusterSize
	if clusterSize == 0 {
		clusterSize = o.estimateClusterSize(matches)
	}

	allMatches := append([]matchid.Match(nil), matches...)
	pairs := pairing.Process(&matches, o.ids, true)

	log.Info("search complete", "potential_files", len(pairs), "individual_matches", numMatches)

	doc := carvelog.New(imagePath)
	numCarved := 0

	for _, pair := range pairs {
		info := o.validator.Validate(data, pair, allMatches, clusterSize, o.cat)
		if info.Type == validate.Unrecognised {
			continue
		}

		frags := info.Fragments
		if len(frags) == 0 {
			frags = []fragment.Fragment{{Start: pair.Start, End: pair.End}}
		}

		filename := fragmentFilename(frags, pair.Type)

		if !o.cfg.SkipCarving {
			if err := sink.WriteFile(info.Type, filename, reader, frags); err != nil {
				return nil, fmt.Errorf("orchestrate: writing %s: %w", filename, err)
			}
			numCarved++
		}

		typeID := catalogue.Unknown
		if pair.Type != nil {
			typeID = pair.Type.ID
		}
		doc.AddEntry(typeID, filename, info.Type, frags)
	}

	if !o.cfg.SkipCarving {
		log.Info("carve complete", "files_written", numCarved)
	}

	return doc, nil
}

// estimateClusterSize votes on a cluster size using every header match's
// start offset, falling back to 1 (unclustered) when no clear majority
// size is found.
func (o *Orchestrator) estimateClusterSize(matches []matchid.Match) uint64 {
	var headers []matchid.Match
	for _, m := range matches {
		if _, part, ok := o.ids.Lookup(m.ID); ok && part == pairing.Header {
			headers = append(headers, m)
		}
	}

	size, ok := cluster.EstimateSize(headers)
	if !ok {
		size = 1
	}
	log.Info("estimated cluster size", "size", size)
	return size
}

// CarveFromLog replays a previously written log: for every entry it
// writes the recorded fragments straight out of source to sink, without
// repeating discovery, pairing or validation. source must be the same
// image the log was generated from (doc.ImagePath records which one).
func (o *Orchestrator) CarveFromLog(doc *carvelog.Document, source io.ReaderAt, sink Sink) error {
	log.Info("replaying carve log", "image", doc.ImagePath, "files", len(doc.Files))

	for _, entry := range doc.Files {
		if err := sink.WriteFile(entry.Validation, entry.Filename, source, entry.Fragments); err != nil {
			return fmt.Errorf("orchestrate: replaying %s: %w", entry.Filename, err)
		}
	}

	log.Info("replay complete", "files_written", len(doc.Files))
	return nil
}

// fragmentFilename builds a carved file's name from the span of its
// fragments (<min start>-<max end>.<extension>), matching the original's
// "{start_idx}-{end_idx}.{ext}" scheme.
func fragmentFilename(frags []fragment.Fragment, ftype *catalogue.Type) string {
	start, end := frags[0].Start, frags[0].End
	for _, f := range frags[1:] {
		if f.Start < start {
			start = f.Start
		}
		if f.End > end {
			end = f.End
		}
	}

	ext := "dat"
	if ftype != nil && ftype.Extension != "" {
		ext = ftype.Extension
	}

	return fmt.Sprintf("%d-%d.%s", start, end, ext)
}
