// Package rhyme implements the phonetic rhyme matcher.
//
// Given a query word, the matcher scans the lexicon vocabulary and scores
// every candidate against every pronunciation-variant pairing. Comparison
// centres on the rhyme nucleus — the phoneme suffix starting at the last
// stressed vowel — with secondary assonance and consonance checks for words
// whose nuclei diverge. Already-spoken words are tracked so they can be
// excluded or rank-penalised on repeat.
//
// A Matcher owns mutable usage state and is not safe for concurrent use;
// the orchestrating event loop is its single writer.
package rhyme

import (
	"sort"
	"strings"

	"github.com/offbeat-labs/flowcanvas/internal/lexicon"
)

// Class labels how a candidate rhymes with the query.
type Class string

const (
	// ClassPerfect means the rhyme nuclei are identical (ignoring stress).
	ClassPerfect Class = "perfect"

	// ClassNear means the nuclei differ but their normalised similarity
	// exceeds 0.8.
	ClassNear Class = "near"

	// ClassAssonance means the full vowel subsequences match.
	ClassAssonance Class = "assonance"

	// ClassConsonance means the positional consonant similarity exceeds 0.7.
	ClassConsonance Class = "consonance"

	// ClassSlant is the catch-all for weak phonetic kinship.
	ClassSlant Class = "slant"
)

// Match is a single scored rhyme candidate. Produced fresh per query and
// never persisted.
type Match struct {
	// Word is the candidate vocabulary word.
	Word string

	// Phonemes is the candidate pronunciation variant that produced this
	// match.
	Phonemes []string

	// Class is the rhyme classification.
	Class Class

	// Distance is the stress-insensitive edit distance between the two
	// rhyme nuclei.
	Distance int

	// Score is the match quality in [0, 1]. Perfect rhymes score 1.0.
	Score float64
}

// Options controls a FindRhymes query.
type Options struct {
	// MaxResults caps the number of returned matches. Zero means the
	// default of 50.
	MaxResults int

	// IncludeUsed keeps already-spoken words in the result set. They are
	// still rank-penalised by usage count.
	IncludeUsed bool

	// MinScore drops matches scoring below this floor. The orchestrator
	// queries with 0.4; zero means the default of 0.3.
	MinScore float64
}

const (
	defaultMaxResults = 50
	defaultMinScore   = 0.3

	// usagePenalty is subtracted from the raw score once per prior use so
	// repeated candidates sink in rank without being excluded.
	usagePenalty = 0.1
)

// Matcher searches the lexicon for phonetically related words.
type Matcher struct {
	store *lexicon.Store
	used  map[string]struct{}
	usage map[string]int
}

// New creates a Matcher over the given pronunciation store.
func New(store *lexicon.Store) *Matcher {
	return &Matcher{
		store: store,
		used:  make(map[string]struct{}),
		usage: make(map[string]int),
	}
}

// MarkUsed records that word has been spoken and increments its usage
// counter. Case-insensitive.
func (m *Matcher) MarkUsed(word string) {
	key := strings.ToLower(word)
	m.used[key] = struct{}{}
	m.usage[key]++
}

// IsUsed reports whether word has been marked used.
func (m *Matcher) IsUsed(word string) bool {
	_, ok := m.used[strings.ToLower(word)]
	return ok
}

// UsageCount returns how many times word has been marked used.
func (m *Matcher) UsageCount(word string) int {
	return m.usage[strings.ToLower(word)]
}

// UsedWords returns every word marked used, sorted, for session snapshots.
func (m *Matcher) UsedWords() []string {
	words := make([]string, 0, len(m.used))
	for word := range m.used {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// ResetUsage clears all usage tracking, typically at session start.
func (m *Matcher) ResetUsage() {
	m.used = make(map[string]struct{})
	m.usage = make(map[string]int)
}

// FindRhymes scores every vocabulary word against word and returns the top
// candidates. Unknown query words fall back to the deterministic G2P
// pronunciation, so the result is never an error — at worst it is empty.
func (m *Matcher) FindRhymes(word string, opts Options) []Match {
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MinScore <= 0 {
		opts.MinScore = defaultMinScore
	}

	queryKey := strings.ToLower(word)
	sourceVariants := m.store.Pronunciations(word)

	var matches []Match
	for _, candidate := range m.store.Words() {
		if candidate == queryKey {
			continue
		}
		if !opts.IncludeUsed && m.IsUsed(candidate) {
			continue
		}

		for _, source := range sourceVariants {
			for _, target := range m.store.Lookup(candidate) {
				class, distance, score := compare(source, target)
				if score >= opts.MinScore {
					matches = append(matches, Match{
						Word:     candidate,
						Phonemes: target,
						Class:    class,
						Distance: distance,
						Score:    score,
					})
				}
			}
		}
	}

	// Rank by score with a usage penalty so repeated candidates sink
	// without being excluded.
	sort.SliceStable(matches, func(i, j int) bool {
		si := matches[i].Score - usagePenalty*float64(m.UsageCount(matches[i].Word))
		sj := matches[j].Score - usagePenalty*float64(m.UsageCount(matches[j].Word))
		return si > sj
	})

	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches
}

// PhoneticDistance returns the minimum edit distance between any
// pronunciation pairing of the two words, or 999 when either word is
// unknown. Used by the analytics layer for rhyme-variety tracking.
func (m *Matcher) PhoneticDistance(word1, word2 string) int {
	variants1 := m.store.Lookup(word1)
	variants2 := m.store.Lookup(word2)
	if len(variants1) == 0 || len(variants2) == 0 {
		return 999
	}

	best := -1
	for _, p1 := range variants1 {
		for _, p2 := range variants2 {
			if d := editDistance(p1, p2); best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// compare classifies and scores the relationship between two pronunciations.
func compare(source, target []string) (Class, int, float64) {
	nucleus1 := nucleus(source)
	nucleus2 := nucleus(target)

	if lexicon.SequencesEqual(nucleus1, nucleus2) {
		return ClassPerfect, 0, 1.0
	}

	distance := editDistance(nucleus1, nucleus2)
	longer := max(len(nucleus1), max(len(nucleus2), 1))
	similarity := 1 - float64(distance)/float64(longer)

	if similarity > 0.8 {
		return ClassNear, distance, similarity
	}

	if lexicon.SequencesEqual(lexicon.Vowels(source), lexicon.Vowels(target)) {
		return ClassAssonance, distance, 0.7
	}

	if consonantSimilarity(lexicon.Consonants(source), lexicon.Consonants(target)) > 0.7 {
		return ClassConsonance, distance, 0.6
	}

	return ClassSlant, distance, similarity
}

// nucleus extracts the rhyme nucleus: the suffix starting at the last
// primary- or secondary-stressed vowel. When no stressed vowel exists the
// last vowel of any stress anchors the nucleus; with no vowels at all the
// whole sequence is used.
func nucleus(phonemes []string) []string {
	for i := len(phonemes) - 1; i >= 0; i-- {
		if lexicon.IsStressedVowel(phonemes[i]) {
			return phonemes[i:]
		}
	}
	for i := len(phonemes) - 1; i >= 0; i-- {
		if lexicon.IsVowel(phonemes[i]) {
			return phonemes[i:]
		}
	}
	return phonemes
}

// consonantSimilarity is the positional match count over the shorter
// sequence, divided by the longer length. Two empty sequences are identical.
func consonantSimilarity(cons1, cons2 []string) float64 {
	if len(cons1) == 0 && len(cons2) == 0 {
		return 1
	}
	if len(cons1) == 0 || len(cons2) == 0 {
		return 0
	}

	matches := 0
	shorter := min(len(cons1), len(cons2))
	for i := 0; i < shorter; i++ {
		if lexicon.SymbolsEqual(cons1[i], cons2[i]) {
			matches++
		}
	}
	return float64(matches) / float64(max(len(cons1), len(cons2)))
}
