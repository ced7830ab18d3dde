package catalogue

import (
	"strconv"

	"github.com/coregx/searchlight/matchid"
)

// ParseMatchString parses a header/footer specification into a pattern-
// element sequence. It recognises the escapes \\, \n, \t, \r, \0, \xXX
// and \. (a literal '.'), and a bare '.' as a one-byte wildcard
// (matchid.WildcardElement). Any other escape, or a \xXX sequence whose
// two characters aren't valid hex digits, is silently dropped rather than
// rejected -- directly mirroring str_parse.rs's own "ignore errors"
// parse_match_str.
//
// Iteration is over runes rather than the original's Unicode grapheme
// clusters: the two only diverge on multi-codepoint clusters (combining
// marks, ZWJ emoji sequences, regional indicators), none of which a
// match-string specification has reason to contain, and ordinary
// multi-byte codepoints -- including the single-codepoint emoji the
// original's own test exercises -- are folded into pattern elements
// identically either way (each UTF-8 byte becomes its own element).
func ParseMatchString(s string) []uint16 {
	gcs := []rune(s)
	var buf []uint16
	escaped := false

	for i := 0; i < len(gcs); {
		if escaped {
			escaped = false
			switch gcs[i] {
			case '\\':
				buf = append(buf, uint16('\\'))
			case 'n':
				buf = append(buf, uint16('\n'))
			case 't':
				buf = append(buf, uint16('\t'))
			case 'r':
				buf = append(buf, uint16('\r'))
			case '0':
				buf = append(buf, 0)
			case '.':
				buf = append(buf, uint16('.'))
			case 'x':
				if i+2 < len(gcs) {
					hexStr := string(gcs[i+1]) + string(gcs[i+2])
					if val, err := strconv.ParseUint(hexStr, 16, 8); err == nil {
						buf = append(buf, uint16(val))
					}
				}
				i += 3
				continue
			}
		} else {
			switch gcs[i] {
			case '\\':
				escaped = true
			case '.':
				buf = append(buf, matchid.WildcardElement)
			default:
				for _, b := range []byte(string(gcs[i])) {
					buf = append(buf, uint16(b))
				}
			}
		}
		i++
	}

	return buf
}
