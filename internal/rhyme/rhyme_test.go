package rhyme

import (
	"testing"

	"github.com/offbeat-labs/flowcanvas/internal/lexicon"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	store, err := lexicon.New()
	if err != nil {
		t.Fatalf("lexicon.New() error: %v", err)
	}
	return New(store)
}

func matchFor(matches []Match, word string) (Match, bool) {
	for _, m := range matches {
		if m.Word == word {
			return m, true
		}
	}
	return Match{}, false
}

func TestFindRhymes_PerfectFamily(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	matches := m.FindRhymes("cat", Options{})
	if len(matches) == 0 {
		t.Fatal("FindRhymes(cat) returned no matches")
	}

	for _, word := range []string{"hat", "bat", "rat"} {
		match, ok := matchFor(matches, word)
		if !ok {
			t.Fatalf("FindRhymes(cat) missing %q", word)
		}
		if match.Class != ClassPerfect {
			t.Errorf("%q class = %q, want %q", word, match.Class, ClassPerfect)
		}
		if match.Score != 1.0 {
			t.Errorf("%q score = %v, want 1.0", word, match.Score)
		}
		if match.Distance != 0 {
			t.Errorf("%q distance = %d, want 0", word, match.Distance)
		}
	}
}

func TestFindRhymes_PerfectSymmetry(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	forward, ok := matchFor(m.FindRhymes("cat", Options{}), "hat")
	if !ok {
		t.Fatal("FindRhymes(cat) missing hat")
	}
	backward, ok := matchFor(m.FindRhymes("hat", Options{}), "cat")
	if !ok {
		t.Fatal("FindRhymes(hat) missing cat")
	}
	if (forward.Class == ClassPerfect) != (backward.Class == ClassPerfect) {
		t.Errorf("perfect classification is asymmetric: cat->hat %q, hat->cat %q",
			forward.Class, backward.Class)
	}
}

func TestFindRhymes_ExcludesQueryWord(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	if _, ok := matchFor(m.FindRhymes("Cat", Options{}), "cat"); ok {
		t.Error("FindRhymes(Cat) returned the query word itself")
	}
}

func TestFindRhymes_PerfectOutranksSlant(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	matches := m.FindRhymes("cat", Options{})
	var lastPerfect, firstOther = -1, -1
	for i, match := range matches {
		if match.Class == ClassPerfect {
			lastPerfect = i
		} else if firstOther == -1 {
			firstOther = i
		}
	}
	if firstOther != -1 && firstOther < lastPerfect {
		t.Errorf("non-perfect match at rank %d precedes perfect match at rank %d",
			firstOther, lastPerfect)
	}
}

func TestFindRhymes_UnknownWordUsesFallback(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	// "splat" is not in the dictionary; the G2P fallback yields
	// S P L AE1 T, which rhymes perfectly with the -AE1 T family.
	match, ok := matchFor(m.FindRhymes("splat", Options{}), "cat")
	if !ok {
		t.Fatal("FindRhymes(splat) missing cat")
	}
	if match.Class != ClassPerfect {
		t.Errorf("splat/cat class = %q, want %q", match.Class, ClassPerfect)
	}
}

func TestFindRhymes_MinScoreFloor(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	for _, match := range m.FindRhymes("cat", Options{MinScore: 0.9}) {
		if match.Score < 0.9 {
			t.Errorf("match %q score %v below floor 0.9", match.Word, match.Score)
		}
	}
}

func TestFindRhymes_MaxResults(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	matches := m.FindRhymes("cat", Options{MaxResults: 3})
	if len(matches) > 3 {
		t.Errorf("got %d matches, want at most 3", len(matches))
	}
}

func TestFindRhymes_UsedWordsExcluded(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	if _, ok := matchFor(m.FindRhymes("cat", Options{}), "hat"); !ok {
		t.Fatal("precondition failed: hat should rhyme with cat")
	}

	m.MarkUsed("Hat")
	if _, ok := matchFor(m.FindRhymes("cat", Options{}), "hat"); ok {
		t.Error("used word hat still present with IncludeUsed=false")
	}
	if _, ok := matchFor(m.FindRhymes("cat", Options{IncludeUsed: true}), "hat"); !ok {
		t.Error("used word hat missing with IncludeUsed=true")
	}
}

func TestFindRhymes_UsagePenaltyDemotes(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	rank := func(word string) int {
		for i, match := range m.FindRhymes("cat", Options{IncludeUsed: true}) {
			if match.Word == word {
				return i
			}
		}
		return -1
	}

	before := rank("hat")
	if before == -1 {
		t.Fatal("hat not found before marking used")
	}
	for i := 0; i < 3; i++ {
		m.MarkUsed("hat")
	}
	after := rank("hat")
	if after == -1 {
		t.Fatal("hat not found after marking used")
	}
	if after <= before {
		t.Errorf("hat rank after 3 uses = %d, want worse than %d", after, before)
	}
}

func TestUsageTracking(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	if m.IsUsed("dog") {
		t.Error("IsUsed(dog) = true before MarkUsed")
	}
	m.MarkUsed("Dog")
	m.MarkUsed("dog")
	if !m.IsUsed("DOG") {
		t.Error("IsUsed(DOG) = false after MarkUsed")
	}
	if got := m.UsageCount("dog"); got != 2 {
		t.Errorf("UsageCount(dog) = %d, want 2", got)
	}

	m.ResetUsage()
	if m.IsUsed("dog") || m.UsageCount("dog") != 0 {
		t.Error("usage state survived ResetUsage")
	}
}

func TestPhoneticDistance(t *testing.T) {
	t.Parallel()
	m := newTestMatcher(t)

	tests := []struct {
		name         string
		word1, word2 string
		want         int
	}{
		{name: "identical", word1: "cat", word2: "cat", want: 0},
		{name: "single substitution", word1: "cat", word2: "hat", want: 1},
		{name: "unknown first", word1: "zzzqx", word2: "cat", want: 999},
		{name: "unknown second", word1: "cat", word2: "zzzqx", want: 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := m.PhoneticDistance(tt.word1, tt.word2); got != tt.want {
				t.Errorf("PhoneticDistance(%q, %q) = %d, want %d",
					tt.word1, tt.word2, got, tt.want)
			}
		})
	}
}

func TestNucleus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		phonemes []string
		want     []string
	}{
		{
			name:     "last stressed vowel onward",
			phonemes: []string{"K", "AE1", "T"},
			want:     []string{"AE1", "T"},
		},
		{
			name:     "secondary stress counts",
			phonemes: []string{"B", "AH0", "L", "UW2", "N"},
			want:     []string{"UW2", "N"},
		},
		{
			name:     "unstressed fallback",
			phonemes: []string{"DH", "AH0"},
			want:     []string{"AH0"},
		},
		{
			name:     "no vowels at all",
			phonemes: []string{"SH", "T"},
			want:     []string{"SH", "T"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := nucleus(tt.phonemes)
			if !lexicon.SequencesEqual(got, tt.want) {
				t.Errorf("nucleus(%v) = %v, want %v", tt.phonemes, got, tt.want)
			}
		})
	}
}

func TestEditDistance_SymbolGranularity(t *testing.T) {
	t.Parallel()

	// Multi-character symbols must count as single units.
	if got := editDistance([]string{"CH", "IY1", "Z"}, []string{"SH", "IY1", "Z"}); got != 1 {
		t.Errorf("editDistance(CH IY Z, SH IY Z) = %d, want 1", got)
	}
	// Stress markers are ignored.
	if got := editDistance([]string{"AE1", "T"}, []string{"AE2", "T"}); got != 0 {
		t.Errorf("editDistance(AE1 T, AE2 T) = %d, want 0", got)
	}
}

func TestConsonantSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		cons1, cons2 []string
		want         float64
	}{
		{name: "both empty", cons1: nil, cons2: nil, want: 1},
		{name: "one empty", cons1: []string{"K"}, cons2: nil, want: 0},
		{name: "identical", cons1: []string{"K", "T"}, cons2: []string{"K", "T"}, want: 1},
		{name: "half positional", cons1: []string{"K", "T"}, cons2: []string{"K", "P"}, want: 0.5},
		{name: "length mismatch", cons1: []string{"K", "T"}, cons2: []string{"K", "T", "S", "T"}, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := consonantSimilarity(tt.cons1, tt.cons2); got != tt.want {
				t.Errorf("consonantSimilarity(%v, %v) = %v, want %v",
					tt.cons1, tt.cons2, got, tt.want)
			}
		})
	}
}
