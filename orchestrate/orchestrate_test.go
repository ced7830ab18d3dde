package orchestrate

import (
	"bytes"
	"io"
	"testing"

	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/validate"
)

type recordedWrite struct {
	verdict   validate.Type
	filename  string
	fragments []fragment.Fragment
}

type fakeSink struct {
	writes []recordedWrite
}

func (s *fakeSink) WriteFile(verdict validate.Type, filename string, source io.ReaderAt, fragments []fragment.Fragment) error {
	s.writes = append(s.writes, recordedWrite{verdict, filename, fragments})
	return nil
}

func jpegCatalogue() *catalogue.Catalogue {
	return &catalogue.Catalogue{
		Types: []catalogue.Type{
			{
				Headers:        []catalogue.MatchString{catalogue.NewMatchString("\\xff\\xd8")},
				Footers:        []catalogue.MatchString{catalogue.NewMatchString("\\xff\\xd9")},
				Extension:      "jpg",
				ID:             catalogue.JPEG,
				RequiresFooter: true,
			},
		},
	}
}

func TestCarveImageFindsAndWritesAFile(t *testing.T) {
	cat := jpegCatalogue()
	o, err := New(cat, nil, Config{BlockSize: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// SOI, EOI -- no APPn/SOFn, so the JPEG validator reports FormatError,
	// which is still carved (only Unrecognised is dropped).
	image := []byte{0x00, 0x00, 0xff, 0xd8, 0xff, 0xd9, 0x00, 0x00}

	sink := &fakeSink{}
	doc, err := o.CarveImage(bytes.NewReader(image), int64(len(image)), "test.dd", sink)
	if err != nil {
		t.Fatalf("CarveImage: %v", err)
	}

	if len(sink.writes) != 1 {
		t.Fatalf("got %d writes, want 1: %+v", len(sink.writes), sink.writes)
	}
	if sink.writes[0].verdict != validate.FormatError {
		t.Errorf("verdict = %v, want FormatError", sink.writes[0].verdict)
	}

	if len(doc.Files) != 1 {
		t.Fatalf("got %d log entries, want 1", len(doc.Files))
	}
	if doc.Files[0].FileTypeID != catalogue.JPEG {
		t.Errorf("FileTypeID = %v, want JPEG", doc.Files[0].FileTypeID)
	}
	if doc.ImagePath != "test.dd" {
		t.Errorf("ImagePath = %q, want test.dd", doc.ImagePath)
	}
}

func TestCarveImageSkipCarvingStillProducesLog(t *testing.T) {
	cat := jpegCatalogue()
	o, err := New(cat, nil, Config{BlockSize: 64, SkipCarving: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	image := []byte{0xff, 0xd8, 0xff, 0xd9}
	sink := &fakeSink{}
	doc, err := o.CarveImage(bytes.NewReader(image), int64(len(image)), "test.dd", sink)
	if err != nil {
		t.Fatalf("CarveImage: %v", err)
	}

	if len(sink.writes) != 0 {
		t.Fatalf("expected no writes with SkipCarving, got %d", len(sink.writes))
	}
	if len(doc.Files) != 1 {
		t.Fatalf("expected the candidate to still be logged, got %d entries", len(doc.Files))
	}
}

func TestCarveImageNoMatchesProducesEmptyLog(t *testing.T) {
	cat := jpegCatalogue()
	o, err := New(cat, nil, Config{BlockSize: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	image := []byte{0x01, 0x02, 0x03, 0x04}
	sink := &fakeSink{}
	doc, err := o.CarveImage(bytes.NewReader(image), int64(len(image)), "test.dd", sink)
	if err != nil {
		t.Fatalf("CarveImage: %v", err)
	}
	if len(doc.Files) != 0 {
		t.Fatalf("expected no entries, got %d", len(doc.Files))
	}
	if len(sink.writes) != 0 {
		t.Fatalf("expected no writes, got %d", len(sink.writes))
	}
}

func TestCarveFromLogReplaysWithoutReanalysis(t *testing.T) {
	cat := jpegCatalogue()
	o, err := New(cat, nil, Config{BlockSize: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	image := []byte{0xff, 0xd8, 0xff, 0xd9}
	sink := &fakeSink{}
	doc, err := o.CarveImage(bytes.NewReader(image), int64(len(image)), "test.dd", sink)
	if err != nil {
		t.Fatalf("CarveImage: %v", err)
	}

	replaySink := &fakeSink{}
	if err := o.CarveFromLog(doc, bytes.NewReader(image), replaySink); err != nil {
		t.Fatalf("CarveFromLog: %v", err)
	}

	if len(replaySink.writes) != len(doc.Files) {
		t.Fatalf("got %d replayed writes, want %d", len(replaySink.writes), len(doc.Files))
	}
}

func TestNewRejectsInvalidCatalogue(t *testing.T) {
	cat := &catalogue.Catalogue{Types: []catalogue.Type{{}}} // no footer, no max length
	if _, err := New(cat, nil, Config{}); err == nil {
		t.Fatal("expected an error for an invalid catalogue")
	}
}
