package speech

import "strings"

// SplitWords lowercases text, strips punctuation other than apostrophes and
// hyphens, and splits on whitespace. It is the canonical word extraction used
// when a provider does not deliver per-word output.
func SplitWords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '\'', r == '-', r == '_':
			return r
		default:
			return ' '
		}
	}, text)

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
