package binpatch

import (
	"encoding/hex"
	"strings"
)

// DecodePattern converts an even-length hex string into the exact byte
// sequence it spells. Each adjacent digit pair becomes one byte, most
// significant nibble first, so leading "00" pairs are kept. Upper and lower
// case digits are accepted; prefixes and separators are not.
func DecodePattern(pattern string) ([]byte, error) {
	return decodeNamedPattern("", pattern)
}

// EncodePattern renders data as an upper-case hex string accepted by
// DecodePattern.
func EncodePattern(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

func decodeNamedPattern(name, pattern string) ([]byte, error) {
	if pattern == "" {
		return nil, &InvalidPatternError{Name: name, Value: pattern, Position: -1, Reason: "pattern is empty"}
	}
	for i := 0; i < len(pattern); i++ {
		if !isHexDigit(pattern[i]) {
			return nil, &InvalidPatternError{
				Name:     name,
				Value:    pattern,
				Position: i,
				Reason:   "non-hex character " + quoteByte(pattern[i]),
			}
		}
	}
	if len(pattern)%2 != 0 {
		return nil, &InvalidPatternError{Name: name, Value: pattern, Position: -1, Reason: "odd number of hex digits"}
	}

	out := make([]byte, len(pattern)/2)
	if _, err := hex.Decode(out, []byte(pattern)); err != nil {
		return nil, &InvalidPatternError{Name: name, Value: pattern, Position: -1, Reason: err.Error()}
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func quoteByte(c byte) string {
	if c >= 0x20 && c < 0x7f {
		return "'" + string(rune(c)) + "'"
	}
	return "0x" + hex.EncodeToString([]byte{c})
}
