package catalogue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coregx/searchlight/matchid"
)

// MatchString is a parsed header/footer pattern: a sequence of literal
// byte values and wildcard elements.
type MatchString struct {
	Elements []uint16
}

// NewMatchString parses s through ParseMatchString.
func NewMatchString(s string) MatchString {
	return MatchString{Elements: ParseMatchString(s)}
}

// String renders the pattern back out in its escaped \xXX / '.' form,
// mirroring config.rs's MatchString Display impl.
func (m MatchString) String() string {
	var sb strings.Builder
	for _, e := range m.Elements {
		if e == matchid.WildcardElement {
			sb.WriteByte('.')
		} else {
			fmt.Fprintf(&sb, "\\x%02x", e)
		}
	}
	return sb.String()
}

// UnmarshalJSON parses a JSON string value through ParseMatchString,
// the Go shape of config.rs's #[serde(from = "String")] MatchString.
func (m *MatchString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("catalogue: match string: %w", err)
	}
	m.Elements = ParseMatchString(s)
	return nil
}

// MarshalJSON re-encodes the match string through its Display form.
func (m MatchString) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
