package catalogue

import "testing"

func maxLen(n uint64) *uint64 { return &n }

func TestValidateRejectsTypeWithNoFooterOrMaxLen(t *testing.T) {
	cat := Catalogue{Types: []Type{
		{Headers: []MatchString{NewMatchString("\\xff\\xd8")}, Extension: "jpg"},
	}}

	if err := cat.Validate(); err == nil {
		t.Fatal("expected an error for a type with neither a footer nor a max length")
	}
}

func TestValidateRejectsRequiresFooterWithoutOne(t *testing.T) {
	cat := Catalogue{Types: []Type{
		{
			Headers:        []MatchString{NewMatchString("\\xff\\xd8")},
			MaxLen:         maxLen(1024),
			RequiresFooter: true,
		},
	}}

	if err := cat.Validate(); err == nil {
		t.Fatal("expected an error for RequiresFooter set with no footer configured")
	}
}

func TestValidateRejectsDuplicateHeaderAcrossTypes(t *testing.T) {
	header := NewMatchString("\\xca\\xfe\\xba\\xbe")
	cat := Catalogue{Types: []Type{
		{Headers: []MatchString{header}, MaxLen: maxLen(1024), Extension: "a"},
		{Headers: []MatchString{header}, MaxLen: maxLen(1024), Extension: "b"},
	}}

	if err := cat.Validate(); err == nil {
		t.Fatal("expected an error for a header byte sequence shared by two types")
	}
}

func TestValidateAcceptsWellFormedCatalogue(t *testing.T) {
	cat := Catalogue{Types: []Type{
		{
			Headers:   []MatchString{NewMatchString("\\xff\\xd8")},
			Footers:   []MatchString{NewMatchString("\\xff\\xd9")},
			Extension: "jpg",
			ID:        JPEG,
		},
		{
			Headers:   []MatchString{NewMatchString("\\x89PNG\\r\\n\\x1a\\n")},
			MaxLen:    maxLen(1 << 20),
			Extension: "png",
			ID:        PNG,
		},
	}}

	if err := cat.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
