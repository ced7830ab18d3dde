// Package carvelog records what a carve run found, so a later run can
// reproduce the same output files from the same image without re-running
// discovery, pairing and validation.
package carvelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/coregx/searchlight/catalogue"
	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/validate"
)

// Entry records one carved file: which catalogue type it was identified
// as, the name it was (or would be) written out under, the validator's
// verdict, and the byte ranges of the source image that make it up.
type Entry struct {
	FileTypeID catalogue.TypeID    `json:"file_type_id"`
	Filename   string              `json:"filename"`
	Validation validate.Type       `json:"validation"`
	Fragments  []fragment.Fragment `json:"fragments"`
}

// Document is the full carve log for one image: every entry produced by
// a run, in the order they were carved.
type Document struct {
	ImagePath string  `json:"image_path"`
	Files     []Entry `json:"files"`
}

// New builds an empty Document for the image at imagePath.
func New(imagePath string) *Document {
	return &Document{ImagePath: imagePath}
}

// AddEntry appends one carved file's record to the log.
func (d *Document) AddEntry(fileTypeID catalogue.TypeID, filename string, validation validate.Type, fragments []fragment.Fragment) {
	d.Files = append(d.Files, Entry{
		FileTypeID: fileTypeID,
		Filename:   filename,
		Validation: validation,
		Fragments:  fragments,
	})
}

// Write serialises the log as indented JSON and writes it atomically to
// <dirPath>/log.json -- a crash or concurrent reader never observes a
// half-written log.
func (d *Document) Write(dirPath string) error {
	buf, err := json.MarshalIndent(d, "", "\t")
	if err != nil {
		return fmt.Errorf("carvelog: marshal: %w", err)
	}

	path := filepath.Join(dirPath, "log.json")
	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("carvelog: write %s: %w", path, err)
	}
	return nil
}

// Load reads and parses a previously written log.json.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("carvelog: read %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("carvelog: parse %s: %w", path, err)
	}
	return &doc, nil
}
