package rhyme

import (
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/offbeat-labs/flowcanvas/internal/lexicon"
)

// editDistance computes the Levenshtein distance between two phoneme
// sequences at symbol granularity, ignoring stress markers. Each distinct
// base symbol is interned to a single private-use rune so the string-level
// distance counts whole-phoneme edits, never character edits inside a
// symbol ("CH" vs "SH" is one edit, not two).
func editDistance(seq1, seq2 []string) int {
	interner := make(map[string]rune, len(seq1)+len(seq2))
	return matchr.Levenshtein(internSequence(seq1, interner), internSequence(seq2, interner))
}

func internSequence(seq []string, interner map[string]rune) string {
	var sb strings.Builder
	sb.Grow(len(seq))
	for _, phoneme := range seq {
		base := lexicon.BaseSymbol(phoneme)
		r, ok := interner[base]
		if !ok {
			// Private Use Area, one code point per distinct symbol.
			r = rune(0xE000 + len(interner))
			interner[base] = r
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
