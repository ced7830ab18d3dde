package catalogue

import (
	"strings"
	"testing"
)

func TestLoadJSONTolerantOfCommentsAndTrailingCommas(t *testing.T) {
	src := `{
		// JPEG, with a trailing comma below and a comment here
		"file_type": [
			{
				"headers": ["\\xff\\xd8"],
				"footers": ["\\xff\\xd9"],
				"extension": "jpg",
				"type_id": "jpeg",
			},
		],
	}`

	cat, err := LoadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	if len(cat.Types) != 1 {
		t.Fatalf("got %d types, want 1", len(cat.Types))
	}
	ft := cat.Types[0]
	if ft.Extension != "jpg" || ft.ID != JPEG {
		t.Errorf("type = %+v, want extension=jpg id=JPEG", ft)
	}
	if len(ft.Headers) != 1 || len(ft.Headers[0].Elements) != 2 {
		t.Errorf("headers = %+v, want one 2-element pattern", ft.Headers)
	}
}
