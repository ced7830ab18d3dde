package scalarm

import (
	"testing"

	"github.com/coregx/searchlight/matchid"
	"github.com/coregx/searchlight/pattern"
)

func buildMatcher(t *testing.T, patterns ...[]uint16) *Matcher {
	t.Helper()
	b := pattern.NewBuilder(true)
	for _, p := range patterns {
		if err := b.AddPattern(p); err != nil {
			t.Fatalf("AddPattern: %v", err)
		}
	}
	return New(b.Build())
}

func TestSearchElfDiscovery(t *testing.T) {
	buf := []byte{1, 2, 3, 8, 4, 1, 2, 3, 1, 1, 2, 1, 2, 3, 0, 5, 9, 1, 2}
	p := []uint16{1, 2, 3}

	m := buildMatcher(t, p)
	matches := m.Search(buf, 0)

	wantID := matchid.HashElements(p)
	want := []matchid.Match{
		{ID: wantID, Start: 0, EndInclusive: 2},
		{ID: wantID, Start: 5, EndInclusive: 7},
		{ID: wantID, Start: 11, EndInclusive: 13},
	}

	if len(matches) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(matches), len(want), matches)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, matches[i], want[i])
		}
	}
}

func TestSearchWildcard(t *testing.T) {
	// Same buffer as TestSearchElfDiscovery, with two trailing bytes (03, 00)
	// appended so a fourth "01 02 03" literal prefix appears at position 17,
	// with a byte available afterward for the wildcard element to consume.
	buf := []byte{1, 2, 3, 8, 4, 1, 2, 3, 1, 1, 2, 1, 2, 3, 0, 5, 9, 1, 2, 3, 0}
	p := []uint16{1, 2, 3, pattern.Wildcard}

	m := buildMatcher(t, p)
	matches := m.Search(buf, 0)

	wantID := matchid.HashElements(p)
	wantStarts := []uint64{0, 5, 11, 17}

	if len(matches) != len(wantStarts) {
		t.Fatalf("got %d matches, want %d: %+v", len(matches), len(wantStarts), matches)
	}
	for i, start := range wantStarts {
		m := matches[i]
		if m.ID != wantID {
			t.Errorf("match %d id = %d, want %d (wildcard matches must share identity)", i, m.ID, wantID)
		}
		if m.Start != start {
			t.Errorf("match %d start = %d, want %d", i, m.Start, start)
		}
		if m.Len() != 4 {
			t.Errorf("match %d length = %d, want 4", i, m.Len())
		}
	}
}

func TestSearchStatefulAcrossWindows(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 8, 4, 1, 2, 3, 4, 5, 1, 1, 2, 1, 2, 3, 4, 5, 0, 5, 9, 1, 2}
	p := []uint16{1, 2, 3, 4, 5}

	m := buildMatcher(t, p)

	var matches []matchid.Match
	matches = append(matches, m.Search(buf[:8], 0)...)
	matches = append(matches, m.SearchNext(buf[3:10], 3)...)
	matches = append(matches, m.SearchNext(buf[5:], 5)...)

	wantID := matchid.HashElements(p)
	want := []matchid.Match{
		{ID: wantID, Start: 0, EndInclusive: 4},
		{ID: wantID, Start: 7, EndInclusive: 11},
		{ID: wantID, Start: 15, EndInclusive: 19},
	}

	if len(matches) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(matches), len(want), matches)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, matches[i], want[i])
		}
	}
}
