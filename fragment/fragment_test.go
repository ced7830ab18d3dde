package fragment

import (
	"reflect"
	"testing"
)

func TestGenerate(t *testing.T) {
	got := Generate(2, 10, 20, 3)

	want := [][]Fragment{
		{{Start: 14, End: 20}},
		{{Start: 10, End: 12}, {Start: 16, End: 20}},
		{{Start: 10, End: 14}, {Start: 18, End: 20}},
		{{Start: 10, End: 16}},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Generate(2, 10, 20, 3) = %+v, want %+v", got, want)
	}
}

func TestGeneratePanicsOffClusterBoundary(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a range not on cluster boundaries")
		}
	}()
	Generate(2, 10, 21, 3)
}

func TestSimplify(t *testing.T) {
	in := []Fragment{
		{Start: 0, End: 5},
		{Start: 5, End: 10},
		{Start: 11, End: 15},
		{Start: 14, End: 20},
		{Start: 20, End: 30},
		{Start: 30, End: 40},
	}

	want := []Fragment{
		{Start: 0, End: 10},
		{Start: 11, End: 15},
		{Start: 14, End: 40},
	}

	got := Simplify(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Simplify(%+v) = %+v, want %+v", in, got, want)
	}
}
