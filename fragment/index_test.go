package fragment

import (
	"reflect"
	"testing"
)

func rangeData() []byte {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(20 + i)
	}
	return data
}

func TestIndex(t *testing.T) {
	data := rangeData()
	frags := []Fragment{{Start: 4, End: 7}, {Start: 10, End: 15}}
	want := []byte{24, 25, 26, 30, 31, 32, 33, 34}

	idx := NewIndex(data, frags)
	if idx.Len() != uint64(len(want)) {
		t.Fatalf("Len() = %d, want %d", idx.Len(), len(want))
	}

	got := make([]byte, 0, idx.Len())
	for i := uint64(0); i < idx.Len(); i++ {
		got = append(got, idx.At(i))
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(idx.Bytes(), want) {
		t.Errorf("Bytes() = %v, want %v", idx.Bytes(), want)
	}
}

func TestSlicedIndex(t *testing.T) {
	data := rangeData()
	frags := []Fragment{{Start: 4, End: 7}, {Start: 10, End: 15}}
	want := []byte{25, 26, 30, 31, 32}

	idx := NewSlicedIndex(data, frags, 1, 2)
	if idx.Len() != uint64(len(want)) {
		t.Fatalf("Len() = %d, want %d", idx.Len(), len(want))
	}

	got := make([]byte, 0, idx.Len())
	for i := uint64(0); i < idx.Len(); i++ {
		got = append(got, idx.At(i))
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSlicedIndexPanicsWhenOffsetsCross(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when start/end offsets cross")
		}
	}()
	NewSlicedIndex(rangeData(), []Fragment{{Start: 4, End: 7}, {Start: 10, End: 15}}, 4, 5)
}

func TestIndexAtPanicsOutOfBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-bounds index")
		}
	}()
	idx := NewIndex(rangeData(), []Fragment{{Start: 4, End: 7}})
	idx.At(3)
}
