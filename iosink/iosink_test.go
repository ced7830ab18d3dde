package iosink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/coregx/searchlight/fragment"
	"github.com/coregx/searchlight/validate"
)

func TestWriteFileSingleFragment(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	source := bytes.NewReader([]byte("0123456789"))
	if err := s.WriteFile(validate.Correct, "3-7.dat", source, []fragment.Fragment{{Start: 3, End: 7}}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "correct", "3-7.dat"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "3456" {
		t.Errorf("got %q, want %q", got, "3456")
	}
}

func TestWriteFileConcatenatesMultipleFragmentsInOrder(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	source := bytes.NewReader([]byte("abcdefghijklmnop"))
	frags := []fragment.Fragment{
		{Start: 0, End: 4},
		{Start: 10, End: 14},
	}
	if err := s.WriteFile(validate.Partial, "reconstructed.bin", source, frags); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "partial", "reconstructed.bin"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "abcdklmn" {
		t.Errorf("got %q, want %q", got, "abcdklmn")
	}
}

func TestWriteFileCreatesVerdictSubdirectory(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	source := bytes.NewReader([]byte("x"))
	if err := s.WriteFile(validate.Unanalysed, "a.dat", source, []fragment.Fragment{{Start: 0, End: 1}}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "unanalysed")); err != nil {
		t.Errorf("expected the unanalysed subdirectory to exist: %v", err)
	}
}
