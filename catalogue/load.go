package catalogue

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tailscale/hujson"
)

// LoadJSON reads a Catalogue from r, tolerating the JSON-with-comments
// dialect (human JSON): comments and trailing commas are standardised
// away before strict decoding, so a hand-edited config file can carry
// `//` explanations next to its header/footer patterns.
func LoadJSON(r io.Reader) (*Catalogue, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalogue: reading config: %w", err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("catalogue: parsing config: %w", err)
	}

	var cat Catalogue
	if err := json.Unmarshal(std, &cat); err != nil {
		return nil, fmt.Errorf("catalogue: decoding config: %w", err)
	}

	return &cat, nil
}
