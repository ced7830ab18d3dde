package catalogue

import (
	"reflect"
	"testing"
)

func TestParseMatchString(t *testing.T) {
	testStr := "\\x7f\\0\\r\\t\\s\\n\\xy1\\x9aPK..\U0001F929\\."

	want := []uint16{
		0x007f, 0x0000, uint16('\r'), uint16('\t'), uint16('\n'), 0x009a,
		uint16('P'), uint16('K'), 0x8000, 0x8000, 0xf0, 0x9f, 0xa4, 0xa9, uint16('.'),
	}

	got := ParseMatchString(testStr)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMatchString(%q) = %#x, want %#x", testStr, got, want)
	}
}

func TestParseMatchStringWildcard(t *testing.T) {
	got := ParseMatchString("AB.CD")
	want := []uint16{uint16('A'), uint16('B'), 0x8000, uint16('C'), uint16('D')}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#x, want %#x", got, want)
	}
}

func TestParseMatchStringEscapedDot(t *testing.T) {
	got := ParseMatchString("A\\.B")
	want := []uint16{uint16('A'), uint16('.'), uint16('B')}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#x, want %#x", got, want)
	}
}
