package stream_test

import (
	"bytes"
	"testing"

	"github.com/coregx/searchlight/pattern"
	"github.com/coregx/searchlight/scalarm"
	"github.com/coregx/searchlight/stream"
)

func buildTable(t *testing.T, patterns ...[]uint16) *pattern.Table {
	t.Helper()
	b := pattern.NewBuilder(true)
	for _, p := range patterns {
		if err := b.AddPattern(p); err != nil {
			t.Fatalf("AddPattern: %v", err)
		}
	}
	return b.Build()
}

func TestRunScalarFindsMatchStraddlingWindowBoundary(t *testing.T) {
	pat := []uint16{0xDE, 0xAD, 0xBE, 0xEF}
	table := buildTable(t, pat)

	data := make([]byte, 64)
	copy(data[30:], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	m := scalarm.New(table)

	matches, err := stream.RunScalar(bytes.NewReader(data), int64(len(data)), 32, table.MaxPatternLength(), m)
	if err != nil {
		t.Fatalf("RunScalar: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(matches), matches)
	}
	if matches[0].Start != 30 || matches[0].EndInclusive != 33 {
		t.Errorf("match = %+v, want start=30 end=33", matches[0])
	}
}

func TestRunScalarRejectsTooSmallBlockSize(t *testing.T) {
	table := buildTable(t, []uint16{1, 2, 3, 4, 5, 6, 7, 8})
	m := scalarm.New(table)

	_, err := stream.RunScalar(bytes.NewReader(make([]byte, 16)), 16, 4, table.MaxPatternLength(), m)
	if err == nil {
		t.Fatal("expected an error for a block size not exceeding the longest pattern")
	}
}

func TestRunScalarNoDuplicatesAcrossManyWindows(t *testing.T) {
	pat := []uint16{1, 2, 3}
	table := buildTable(t, pat)

	data := make([]byte, 256)
	starts := []int{0, 16, 30, 50, 90, 140, 200, 253}
	for _, start := range starts {
		copy(data[start:], []byte{1, 2, 3})
	}

	m := scalarm.New(table)
	matches, err := stream.RunScalar(bytes.NewReader(data), int64(len(data)), 16, table.MaxPatternLength(), m)
	if err != nil {
		t.Fatalf("RunScalar: %v", err)
	}

	want := map[uint64]bool{0: true, 16: true, 30: true, 50: true, 90: true, 140: true, 200: true, 253: true}
	if len(matches) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(matches), len(want), matches)
	}
	for _, m := range matches {
		if !want[m.Start] {
			t.Errorf("unexpected match start %d", m.Start)
		}
	}
}
