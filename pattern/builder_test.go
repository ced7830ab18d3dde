package pattern

import (
	"reflect"
	"testing"
)

func TestAddPatternSuffixSharing(t *testing.T) {
	patterns := [][]uint16{
		{45, 32, 23, 97},
		{87, 34, 12},
		{87, 45, 12},
		{29, 45, 32, 23, 97},
	}

	b := NewBuilder(true)
	for _, p := range patterns {
		if err := b.AddPattern(p); err != nil {
			t.Fatalf("AddPattern(%v): %v", p, err)
		}
	}

	expected := []node{
		{next: []transition{{Next: 2, Value: 45}, {Next: 5, Value: 87}, {Next: 7, Value: 29}}},
		{},
		{next: []transition{{Next: 3, Value: 32}}},
		{next: []transition{{Next: 4, Value: 23}}},
		{next: []transition{{Next: 1, Value: 97}}},
		{next: []transition{{Next: 6, Value: 34}, {Next: 6, Value: 45}}},
		{next: []transition{{Next: 1, Value: 12}}},
		{next: []transition{{Next: 2, Value: 45}}},
	}

	if !reflect.DeepEqual(b.nodes, expected) {
		t.Fatalf("unexpected IR\n got: %#v\nwant: %#v", b.nodes, expected)
	}
}

func TestEncodeIndexableSingleLiteralPattern(t *testing.T) {
	b := NewBuilder(true)
	if err := b.AddPattern([]uint16{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	table := b.Build()
	encoded := table.EncodeIndexable()

	if got, want := len(encoded), IndexableColumns*table.NumStates(); got != want {
		t.Fatalf("encoded length = %d, want %d", got, want)
	}

	// state 0 --1--> state 2, state 2 --2--> state 3, state 3 --3--> accept(1)
	row := func(state int) []uint32 {
		return encoded[state*IndexableColumns : (state+1)*IndexableColumns]
	}

	if got := row(0)[1]; got != 2 {
		t.Errorf("row0[1] = %d, want 2", got)
	}
	if got := row(2)[2]; got != 3 {
		t.Errorf("row2[2] = %d, want 3", got)
	}
	if got := row(3)[3]; got != 1 {
		t.Errorf("row3[3] = %d, want 1 (accept)", got)
	}
	// accept state (1) has no transitions: every column is NoTransition.
	for col, v := range row(1) {
		if v != NoTransition {
			t.Fatalf("accept row column %d = %d, want NoTransition", col, v)
		}
	}
}

func TestAddPatternEmptyRejected(t *testing.T) {
	b := NewBuilder(true)
	if err := b.AddPattern(nil); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}

func TestAddPatternWithoutSuffixSharing(t *testing.T) {
	// Without suffix sharing, two patterns sharing a tail must not merge
	// into the same state chain.
	b := NewBuilder(false)
	if err := b.AddPattern([]uint16{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPattern([]uint16{9, 2, 3}); err != nil {
		t.Fatal(err)
	}

	table := b.Build()
	// Each pattern contributes two fresh intermediate states (root and
	// accept are shared, but no suffix state is): root + accept + 2 + 2.
	if got, want := table.NumStates(), 6; got != want {
		t.Fatalf("NumStates() = %d, want %d (no suffix sharing should not merge tails)", got, want)
	}
}
