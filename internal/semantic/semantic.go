// Package semantic implements the association engine: seed-text vocabulary
// matching, entity extraction, story-thread detection, compound generation
// and theme tracking.
//
// The Associator owns its entity log and thread list; callers mutate it
// only through the exported methods. Like the other engines it is written
// for a single-goroutine event loop and is not concurrency-safe.
package semantic

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/offbeat-labs/flowcanvas/pkg/speech"
)

// Category bands a suggestion by how far it strays from the obvious.
type Category string

const (
	CategorySafe  Category = "safe"
	CategoryWacky Category = "wacky"
	CategoryWild  Category = "wild"
)

// Match is a scored association between a spoken word and a seed word.
type Match struct {
	Word          string
	Similarity    float64
	Category      Category
	MetaphorScore float64
}

// EntityKind classifies an extracted entity.
type EntityKind string

const (
	KindPerson  EntityKind = "person"
	KindPlace   EntityKind = "place"
	KindThing   EntityKind = "thing"
	KindConcept EntityKind = "concept"
)

// Entity is a single extracted span. Immutable once logged.
type Entity struct {
	Text      string
	Kind      EntityKind
	Timestamp time.Time
}

// Thread groups related entities into an ongoing story line. Threads are
// never deleted, only marked closed.
type Thread struct {
	ID          string
	Entities    []Entity
	Theme       string
	Sentiment   Sentiment
	Open        bool
	CreatedAt   time.Time
	LastUpdated time.Time
}

// ThemeCount pairs a tracked theme with its occurrence count.
type ThemeCount struct {
	Theme string
	Count int
}

// Associator holds the seed vocabulary and accumulated narrative state.
type Associator struct {
	seedText  string
	seedWords []string
	seedSet   map[string]struct{}
	entities  []Entity
	threads   []*Thread
	themes    map[string]int
}

// New creates an empty Associator. Call SetSeedText before expecting
// matches or compounds.
func New() *Associator {
	return &Associator{
		seedSet: make(map[string]struct{}),
		themes:  make(map[string]int),
	}
}

// SetSeedText replaces the association vocabulary with the content words
// of text. Prior seed words are discarded, not merged; insertion order is
// preserved for compound generation.
func (a *Associator) SetSeedText(text string) {
	a.seedText = text
	a.seedWords = a.seedWords[:0]
	a.seedSet = make(map[string]struct{})

	for _, word := range speech.SplitWords(text) {
		if !IsContentWord(word) {
			continue
		}
		if _, seen := a.seedSet[word]; seen {
			continue
		}
		a.seedSet[word] = struct{}{}
		a.seedWords = append(a.seedWords, word)
	}
}

// SeedText returns the raw seed text last set.
func (a *Associator) SeedText() string { return a.seedText }

// FindMatches scores every seed word against the current word and returns
// the top 20 associations ranked by category preference plus similarity.
// An empty seed vocabulary yields no matches.
func (a *Associator) FindMatches(word string, weirdness float64) []Match {
	if len(a.seedWords) == 0 {
		return nil
	}

	wordType := Classify(word)
	var matches []Match
	for _, seed := range a.seedWords {
		similarity := wordSimilarity(word, seed, wordType, Classify(seed))
		if similarity <= 0 {
			continue
		}
		metaphor := MetaphorPotential(word, seed)
		matches = append(matches, Match{
			Word:          seed,
			Similarity:    similarity,
			Category:      categorize(similarity, weirdness, metaphor),
			MetaphorScore: metaphor,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return rankScore(matches[i], weirdness) > rankScore(matches[j], weirdness)
	})
	if len(matches) > 20 {
		matches = matches[:20]
	}
	return matches
}

func rankScore(m Match, weirdness float64) float64 {
	return categoryScore(m.Category, weirdness) + m.Similarity
}

// categoryScore expresses the performer's weirdness preference: a high
// dial favours wild candidates, a low dial favours safe ones, and wacky
// sits in the middle regardless.
func categoryScore(c Category, weirdness float64) float64 {
	switch c {
	case CategoryWild:
		return weirdness
	case CategoryWacky:
		return 0.5
	default:
		return 1 - weirdness
	}
}

// categorize bands a match by similarity adjusted for metaphor potential.
// Raising the weirdness dial widens the wild band.
func categorize(similarity, weirdness, metaphor float64) Category {
	adjusted := similarity + metaphor*weirdness
	switch {
	case adjusted < 0.3+weirdness*0.4:
		return CategoryWild
	case adjusted < 0.6+weirdness*0.2:
		return CategoryWacky
	default:
		return CategorySafe
	}
}

// wordSimilarity is a deliberately shallow proxy for semantic distance:
// identical words score zero (nothing to suggest), shared part of speech
// scores 0.5, a long common substring scores up to 0.7, and everything
// else gets a 0.3 floor.
func wordSimilarity(word1, word2 string, type1, type2 WordType) float64 {
	if strings.EqualFold(word1, word2) {
		return 0
	}
	if type1 == type2 && type1 != TypeUnknown {
		return 0.5
	}
	if common := longestCommonSubstring(word1, word2); common > 3 {
		longer := max(len(word1), len(word2))
		return min(0.7, float64(common)/float64(longer))
	}
	return 0.3
}

func longestCommonSubstring(str1, str2 string) int {
	s1 := strings.ToLower(str1)
	s2 := strings.ToLower(str2)
	longest := 0
	for i := range s1 {
		for j := range s2 {
			k := 0
			for i+k < len(s1) && j+k < len(s2) && s1[i+k] == s2[j+k] {
				k++
			}
			longest = max(longest, k)
		}
	}
	return longest
}

var abstractConcepts = []string{
	"love", "hate", "fear", "joy", "pain", "hope", "dream", "time",
	"truth", "freedom", "justice", "power", "soul", "mind", "spirit",
}

// MetaphorPotential scores how productively two words collide: pairing an
// abstract concept with a concrete one is the richest combination.
func MetaphorPotential(word1, word2 string) float64 {
	if isAbstract(word1) != isAbstract(word2) {
		return 0.9
	}
	type1, type2 := Classify(word1), Classify(word2)
	if type1 == type2 && type1 != TypeUnknown {
		return 0.6
	}
	return 0.3
}

func isAbstract(word string) bool {
	w := strings.ToLower(word)
	for _, concept := range abstractConcepts {
		if strings.Contains(w, concept) || strings.Contains(concept, w) {
			return true
		}
	}
	return false
}

// GenerateCompounds pairs the last 10 spoken words with the first 20 seed
// words in both orders, emitting hyphen joins and portmanteaus. Up to 30
// candidates, unfiltered for plausibility.
func (a *Associator) GenerateCompounds(recentWords []string) []string {
	recent := recentWords
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	seeds := a.seedWords
	if len(seeds) > 20 {
		seeds = seeds[:20]
	}

	var compounds []string
	for _, word1 := range recent {
		for _, word2 := range seeds {
			compounds = append(compounds, word1+"-"+word2, word2+"-"+word1)
			if blend := Portmanteau(word1, word2); blend != "" {
				compounds = append(compounds, blend)
			}
			if blend := Portmanteau(word2, word1); blend != "" {
				compounds = append(compounds, blend)
			}
		}
	}
	if len(compounds) > 30 {
		compounds = compounds[:30]
	}
	return compounds
}

// Portmanteau blends two words, preferring a splice where a 1-3 character
// suffix of word1 matches a prefix of word2, and falling back to a 60/40
// positional blend. Words shorter than 3 characters produce nothing.
func Portmanteau(word1, word2 string) string {
	if len(word1) < 3 || len(word2) < 3 {
		return ""
	}
	for overlap := min(3, len(word1)-1); overlap >= 1; overlap-- {
		end1 := word1[len(word1)-overlap:]
		start2 := word2[:overlap]
		if strings.EqualFold(end1, start2) {
			return word1 + word2[overlap:]
		}
	}
	split1 := len(word1) * 6 / 10
	split2 := len(word2) * 4 / 10
	return word1[:split1] + word2[split2:]
}

// UpdateThreads extracts the utterance's entities and folds each into an
// existing thread when a same-kind entity textually overlaps, or opens a
// new thread seeded by that entity. Returns the full thread list.
func (a *Associator) UpdateThreads(text string, timestamp time.Time) []*Thread {
	for _, entity := range a.ExtractEntities(text, timestamp) {
		if thread := a.matchingThread(entity); thread != nil {
			thread.Entities = append(thread.Entities, entity)
			thread.LastUpdated = timestamp
			continue
		}
		a.threads = append(a.threads, &Thread{
			ID:          uuid.NewString(),
			Entities:    []Entity{entity},
			Theme:       entity.Text,
			Sentiment:   DetectSentiment(text),
			Open:        true,
			CreatedAt:   timestamp,
			LastUpdated: timestamp,
		})
	}
	return a.threads
}

func (a *Associator) matchingThread(entity Entity) *Thread {
	for _, thread := range a.threads {
		for _, existing := range thread.Entities {
			if existing.Kind != entity.Kind {
				continue
			}
			if textOverlaps(existing.Text, entity.Text) {
				return thread
			}
		}
	}
	return nil
}

func textOverlaps(text1, text2 string) bool {
	t1 := strings.ToLower(text1)
	t2 := strings.ToLower(text2)
	return t1 == t2 || strings.Contains(t1, t2) || strings.Contains(t2, t1)
}

// Threads returns every thread, open or closed.
func (a *Associator) Threads() []*Thread { return a.threads }

// OpenThreads returns the threads not yet marked closed.
func (a *Associator) OpenThreads() []*Thread {
	var open []*Thread
	for _, thread := range a.threads {
		if thread.Open {
			open = append(open, thread)
		}
	}
	return open
}

// CloseThread marks the thread with the given ID as closed. Unknown IDs
// are ignored.
func (a *Associator) CloseThread(id string) {
	for _, thread := range a.threads {
		if thread.ID == id {
			thread.Open = false
			return
		}
	}
}

// TrackTheme increments the occurrence count for a theme label.
func (a *Associator) TrackTheme(theme string) {
	a.themes[theme]++
}

// DominantThemes returns the topN most frequent themes, most frequent
// first. Ties break alphabetically so the order is stable.
func (a *Associator) DominantThemes(topN int) []ThemeCount {
	counts := make([]ThemeCount, 0, len(a.themes))
	for theme, count := range a.themes {
		counts = append(counts, ThemeCount{Theme: theme, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Theme < counts[j].Theme
	})
	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// Reset clears entities, threads and themes. The seed vocabulary survives
// a reset so a new session keeps its show prompt.
func (a *Associator) Reset() {
	a.entities = nil
	a.threads = nil
	a.themes = make(map[string]int)
}
