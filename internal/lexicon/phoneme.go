package lexicon

import "strings"

// vowelSymbols is the ARPABET vowel set. Phonemes outside this set are
// treated as consonants.
var vowelSymbols = map[string]struct{}{
	"AA": {}, "AE": {}, "AH": {}, "AO": {}, "AW": {}, "AY": {},
	"EH": {}, "ER": {}, "EY": {}, "IH": {}, "IY": {}, "OW": {},
	"OY": {}, "UH": {}, "UW": {},
}

// BaseSymbol strips the trailing stress digit (0, 1, or 2) from an ARPABET
// phoneme, returning the bare symbol. Symbols without a stress digit are
// returned unchanged.
func BaseSymbol(phoneme string) string {
	return strings.TrimRight(phoneme, "012")
}

// IsVowel reports whether phoneme is an ARPABET vowel, ignoring stress.
func IsVowel(phoneme string) bool {
	_, ok := vowelSymbols[BaseSymbol(phoneme)]
	return ok
}

// IsStressedVowel reports whether phoneme is a vowel carrying primary or
// secondary stress.
func IsStressedVowel(phoneme string) bool {
	if !IsVowel(phoneme) {
		return false
	}
	return strings.HasSuffix(phoneme, "1") || strings.HasSuffix(phoneme, "2")
}

// Vowels returns the vowel subsequence of phonemes, in order.
func Vowels(phonemes []string) []string {
	var out []string
	for _, p := range phonemes {
		if IsVowel(p) {
			out = append(out, p)
		}
	}
	return out
}

// Consonants returns the consonant subsequence of phonemes, in order.
func Consonants(phonemes []string) []string {
	var out []string
	for _, p := range phonemes {
		if !IsVowel(p) {
			out = append(out, p)
		}
	}
	return out
}

// SymbolsEqual reports whether two phonemes share the same base symbol,
// ignoring stress digits.
func SymbolsEqual(p1, p2 string) bool {
	return BaseSymbol(p1) == BaseSymbol(p2)
}

// SequencesEqual reports whether two phoneme sequences are symbol-for-symbol
// equal, ignoring stress digits.
func SequencesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !SymbolsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
