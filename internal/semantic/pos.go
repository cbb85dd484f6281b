package semantic

import "strings"

// WordType is a coarse part-of-speech class used for similarity scoring.
type WordType string

const (
	TypeNoun      WordType = "noun"
	TypeVerb      WordType = "verb"
	TypeAdjective WordType = "adjective"
	TypeAdverb    WordType = "adverb"
	TypeUnknown   WordType = "unknown"
)

// Small curated lexicons plus suffix rules stand in for a full tagger.
// Improv speech is short and informal, so a coarse guess is enough for the
// scoring formulas downstream; misclassification only shifts a candidate
// between the 0.5 and 0.3 similarity bands.

var functionWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {},
	"by": {}, "from": {}, "up": {}, "down": {}, "out": {}, "off": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"me": {}, "him": {}, "her": {}, "us": {}, "them": {}, "my": {}, "your": {},
	"his": {}, "its": {}, "our": {}, "their": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "is": {}, "am": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "do": {}, "does": {},
	"did": {}, "have": {}, "has": {}, "had": {}, "will": {}, "would": {},
	"can": {}, "could": {}, "should": {}, "shall": {}, "may": {}, "might": {},
	"not": {}, "no": {}, "so": {}, "as": {}, "than": {}, "then": {},
	"there": {}, "here": {}, "when": {}, "where": {}, "what": {}, "who": {},
	"how": {}, "why": {}, "which": {},
}

var commonVerbs = map[string]struct{}{
	"go": {}, "went": {}, "gone": {}, "run": {}, "ran": {}, "walk": {},
	"jump": {}, "fly": {}, "flew": {}, "swim": {}, "say": {}, "said": {},
	"tell": {}, "told": {}, "speak": {}, "spoke": {}, "sing": {}, "sang": {},
	"dance": {}, "eat": {}, "ate": {}, "drink": {}, "drank": {}, "see": {},
	"saw": {}, "look": {}, "watch": {}, "hear": {}, "heard": {}, "listen": {},
	"feel": {}, "felt": {}, "touch": {}, "take": {}, "took": {}, "give": {},
	"gave": {}, "make": {}, "made": {}, "build": {}, "built": {}, "break": {},
	"broke": {}, "find": {}, "found": {}, "lose": {}, "lost": {}, "win": {},
	"won": {}, "play": {}, "work": {}, "sleep": {}, "slept": {}, "wake": {},
	"woke": {}, "think": {}, "thought": {}, "know": {}, "knew": {},
	"want": {}, "need": {}, "love": {}, "hate": {}, "come": {}, "came": {},
	"leave": {}, "left": {}, "stay": {}, "move": {}, "stop": {}, "start": {},
	"open": {}, "close": {}, "throw": {}, "threw": {}, "catch": {},
	"caught": {}, "hold": {}, "held": {}, "drop": {}, "push": {}, "pull": {},
	"climb": {}, "fall": {}, "fell": {}, "rise": {}, "rose": {}, "shine": {},
	"burn": {}, "freeze": {}, "melt": {}, "grow": {}, "grew": {}, "die": {},
	"live": {}, "laugh": {}, "cry": {}, "shout": {}, "whisper": {},
}

var commonAdjectives = map[string]struct{}{
	"big": {}, "small": {}, "tiny": {}, "huge": {}, "tall": {}, "short": {},
	"long": {}, "wide": {}, "deep": {}, "high": {}, "low": {}, "fast": {},
	"slow": {}, "hot": {}, "cold": {}, "warm": {}, "cool": {}, "wet": {},
	"dry": {}, "hard": {}, "soft": {}, "heavy": {}, "loud": {}, "quiet": {},
	"bright": {}, "dark": {}, "old": {}, "new": {}, "young": {}, "good": {},
	"bad": {}, "great": {}, "terrible": {}, "happy": {}, "sad": {},
	"angry": {}, "scared": {}, "brave": {}, "strange": {}, "weird": {},
	"wild": {}, "calm": {}, "crazy": {}, "funny": {}, "serious": {},
	"beautiful": {}, "ugly": {}, "rich": {}, "poor": {}, "empty": {},
	"full": {}, "clean": {}, "dirty": {}, "sharp": {}, "round": {},
	"red": {}, "blue": {}, "green": {}, "yellow": {}, "black": {},
	"white": {}, "purple": {}, "golden": {}, "silver": {},
}

var verbSuffixes = []string{"ing", "ize", "ise", "ify"}

var adjectiveSuffixes = []string{"ful", "ous", "ive", "able", "ible", "less", "ish"}

// Classify assigns a coarse part-of-speech class to a single word.
// Unrecognized content words default to noun, which mirrors how general
// English skews; function words come back unknown so they never score.
func Classify(word string) WordType {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return TypeUnknown
	}
	if _, ok := functionWords[w]; ok {
		return TypeUnknown
	}
	if _, ok := commonVerbs[w]; ok {
		return TypeVerb
	}
	if _, ok := commonAdjectives[w]; ok {
		return TypeAdjective
	}
	if len(w) > 3 && strings.HasSuffix(w, "ly") {
		return TypeAdverb
	}
	for _, suffix := range verbSuffixes {
		if len(w) > len(suffix)+1 && strings.HasSuffix(w, suffix) {
			return TypeVerb
		}
	}
	for _, suffix := range adjectiveSuffixes {
		if len(w) > len(suffix)+1 && strings.HasSuffix(w, suffix) {
			return TypeAdjective
		}
	}
	return TypeNoun
}

// IsContentWord reports whether the word carries enough meaning to seed
// associations: any noun, verb, adjective or adverb.
func IsContentWord(word string) bool {
	return Classify(word) != TypeUnknown
}
