// Package iosink provides a reference orchestrate.Sink: it writes each
// carved file's fragments, concatenated in order, to
// <dir>/<verdict>/<filename>, atomically so a crash never leaves a
// half-written file for a later scan to trip over.
//
// Grounded on the output-writing tail of searchlight.rs's
// process_image_file and process_log_file (create the verdict
// subdirectory, concatenate every fragment's bytes in Start order, write
// the result out under a name derived from the carve).
package iosink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/validate"
)

// FileSink writes carved files beneath one root directory.
type FileSink struct {
	dir string
}

// New builds a FileSink rooted at dir. dir is created (along with any
// missing parents) the first time a file is written beneath it.
func New(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// WriteFile implements orchestrate.Sink.
func (s *FileSink) WriteFile(verdict validate.Type, filename string, source io.ReaderAt, fragments []fragment.Fragment) error {
	dirPath := filepath.Join(s.dir, verdict.String())
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("iosink: creating %s: %w", dirPath, err)
	}

	var buf bytes.Buffer
	for _, f := range fragments {
		n := int64(f.End - f.Start)
		if _, err := io.Copy(&buf, io.NewSectionReader(source, int64(f.Start), n)); err != nil {
			return fmt.Errorf("iosink: reading fragment [%d,%d): %w", f.Start, f.End, err)
		}
	}

	path := filepath.Join(dirPath, filename)
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("iosink: writing %s: %w", path, err)
	}
	return nil
}
