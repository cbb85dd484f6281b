package lexicon

import "strings"

// UnknownPhoneme is the sentinel emitted by Fallback when no character of the
// input maps to a phoneme. Downstream comparison treats it like any other
// consonant symbol.
const UnknownPhoneme = "UNK"

// Fallback converts word to a phoneme sequence using a fixed rule table.
// It is deterministic, never fails, and is intended only for words absent
// from the store: the output is a rough approximation, good enough for
// rhyme-nucleus comparison but not a real pronunciation.
//
// Digraphs are handled before single letters: "ay"→EY1, "ee"→IY1, "ow"→OW1,
// "ch"→CH, "sh"→SH, "th"→TH, "qu"→K W, and "igh"→AY1. Vowels default to a
// primary-stressed guess so nucleus extraction has a stress anchor.
func Fallback(word string) []string {
	var phonemes []string
	chars := strings.ToLower(word)

	for i := 0; i < len(chars); i++ {
		char := chars[i]
		var next byte
		if i+1 < len(chars) {
			next = chars[i+1]
		}

		switch char {
		case 'a':
			if next == 'y' {
				phonemes = append(phonemes, "EY1")
				i++
			} else {
				phonemes = append(phonemes, "AE1")
			}
		case 'e':
			if next == 'e' {
				phonemes = append(phonemes, "IY1")
				i++
			} else {
				phonemes = append(phonemes, "EH1")
			}
		case 'i':
			if strings.HasPrefix(chars[i:], "igh") {
				phonemes = append(phonemes, "AY1")
				i += 2
			} else {
				phonemes = append(phonemes, "IH1")
			}
		case 'o':
			if next == 'w' {
				phonemes = append(phonemes, "OW1")
				i++
			} else {
				phonemes = append(phonemes, "AA1")
			}
		case 'u':
			phonemes = append(phonemes, "AH1")
		case 'b':
			phonemes = append(phonemes, "B")
		case 'c':
			if next == 'h' {
				phonemes = append(phonemes, "CH")
				i++
			} else {
				phonemes = append(phonemes, "K")
			}
		case 'd':
			phonemes = append(phonemes, "D")
		case 'f':
			phonemes = append(phonemes, "F")
		case 'g':
			phonemes = append(phonemes, "G")
		case 'h':
			phonemes = append(phonemes, "HH")
		case 'j':
			phonemes = append(phonemes, "JH")
		case 'k':
			phonemes = append(phonemes, "K")
		case 'l':
			phonemes = append(phonemes, "L")
		case 'm':
			phonemes = append(phonemes, "M")
		case 'n':
			phonemes = append(phonemes, "N")
		case 'p':
			phonemes = append(phonemes, "P")
		case 'q':
			if next == 'u' {
				i++
			}
			phonemes = append(phonemes, "K", "W")
		case 'r':
			phonemes = append(phonemes, "R")
		case 's':
			if next == 'h' {
				phonemes = append(phonemes, "SH")
				i++
			} else {
				phonemes = append(phonemes, "S")
			}
		case 't':
			if next == 'h' {
				phonemes = append(phonemes, "TH")
				i++
			} else {
				phonemes = append(phonemes, "T")
			}
		case 'v':
			phonemes = append(phonemes, "V")
		case 'w':
			phonemes = append(phonemes, "W")
		case 'x':
			phonemes = append(phonemes, "K", "S")
		case 'y':
			phonemes = append(phonemes, "Y")
		case 'z':
			phonemes = append(phonemes, "Z")
		}
	}

	if len(phonemes) == 0 {
		return []string{UnknownPhoneme}
	}
	return phonemes
}
