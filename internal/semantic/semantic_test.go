package semantic

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSetSeedText_DeduplicatesAndFilters(t *testing.T) {
	t.Parallel()
	a := New()

	a.SetSeedText("the neon dragon and the neon castle")
	want := []string{"neon", "dragon", "castle"}
	if diff := cmp.Diff(want, a.seedWords); diff != "" {
		t.Errorf("seed words mismatch (-want +got):\n%s", diff)
	}
}

func TestSetSeedText_ReplacesPriorVocabulary(t *testing.T) {
	t.Parallel()
	a := New()

	a.SetSeedText("dragon castle")
	a.SetSeedText("ocean whale")
	want := []string{"ocean", "whale"}
	if diff := cmp.Diff(want, a.seedWords); diff != "" {
		t.Errorf("seed words after replacement (-want +got):\n%s", diff)
	}
}

func TestFindMatches_EmptySeed(t *testing.T) {
	t.Parallel()
	a := New()

	if got := a.FindMatches("dragon", 0.5); got != nil {
		t.Errorf("FindMatches with empty seed = %v, want nil", got)
	}
}

func TestFindMatches_ExcludesIdenticalWord(t *testing.T) {
	t.Parallel()
	a := New()
	a.SetSeedText("dragon castle")

	for _, m := range a.FindMatches("Dragon", 0.5) {
		if m.Word == "dragon" {
			t.Error("identical word surfaced as its own match")
		}
	}
}

func TestFindMatches_CapsAtTwenty(t *testing.T) {
	t.Parallel()
	a := New()
	a.SetSeedText("dragon castle ocean whale thunder mountain river forest " +
		"crystal shadow ember frost raven tiger comet anchor lantern marble " +
		"velvet copper silver garnet")

	if got := len(a.FindMatches("storm", 0.5)); got > 20 {
		t.Errorf("got %d matches, want at most 20", got)
	}
}

func TestCategorize_WeirdnessWidensWildBand(t *testing.T) {
	t.Parallel()

	// The same similarity lands in a wilder band as the dial rises.
	if got := categorize(0.5, 0.0, 0.0); got != CategoryWacky {
		t.Errorf("categorize(0.5, w=0) = %q, want %q", got, CategoryWacky)
	}
	if got := categorize(0.5, 1.0, 0.0); got != CategoryWild {
		t.Errorf("categorize(0.5, w=1) = %q, want %q", got, CategoryWild)
	}
	if got := categorize(0.9, 0.0, 0.0); got != CategorySafe {
		t.Errorf("categorize(0.9, w=0) = %q, want %q", got, CategorySafe)
	}
}

func TestCategoryScore_PreferenceFlips(t *testing.T) {
	t.Parallel()

	if categoryScore(CategoryWild, 0.9) <= categoryScore(CategorySafe, 0.9) {
		t.Error("high weirdness should rank wild above safe")
	}
	if categoryScore(CategorySafe, 0.1) <= categoryScore(CategoryWild, 0.1) {
		t.Error("low weirdness should rank safe above wild")
	}
}

func TestMetaphorPotential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		word1, word2 string
		want         float64
	}{
		{name: "abstract meets concrete", word1: "freedom", word2: "hammer", want: 0.9},
		{name: "two abstracts same type", word1: "truth", word2: "justice", want: 0.6},
		{name: "same type concretes", word1: "hammer", word2: "castle", want: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MetaphorPotential(tt.word1, tt.word2); got != tt.want {
				t.Errorf("MetaphorPotential(%q, %q) = %v, want %v",
					tt.word1, tt.word2, got, tt.want)
			}
		})
	}
}

func TestPortmanteau(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		word1, word2 string
		want         string
	}{
		{name: "single char overlap", word1: "rock", word2: "kick", want: "rockick"},
		{name: "no overlap blends", word1: "dragon", word2: "castle", want: "drastle"},
		{name: "first too short", word1: "ox", word2: "castle", want: ""},
		{name: "second too short", word1: "dragon", word2: "ox", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Portmanteau(tt.word1, tt.word2); got != tt.want {
				t.Errorf("Portmanteau(%q, %q) = %q, want %q",
					tt.word1, tt.word2, got, tt.want)
			}
		})
	}
}

func TestGenerateCompounds(t *testing.T) {
	t.Parallel()
	a := New()
	a.SetSeedText("dragon")

	compounds := a.GenerateCompounds([]string{"rock"})
	joined := map[string]bool{}
	for _, c := range compounds {
		joined[c] = true
	}
	if !joined["rock-dragon"] || !joined["dragon-rock"] {
		t.Errorf("compounds missing hyphen joins in both orders: %v", compounds)
	}
	if len(compounds) > 30 {
		t.Errorf("got %d compounds, want at most 30", len(compounds))
	}
}

func TestGenerateCompounds_NoSeed(t *testing.T) {
	t.Parallel()
	a := New()

	if got := a.GenerateCompounds([]string{"rock"}); len(got) != 0 {
		t.Errorf("compounds without seed = %v, want none", got)
	}
}

func TestUpdateThreads_GroupsOverlappingEntities(t *testing.T) {
	t.Parallel()
	a := New()
	now := time.Now()

	a.UpdateThreads("the dragon roared", now)
	threads := a.UpdateThreads("the dragon slept", now.Add(10*time.Second))

	var dragonThreads []*Thread
	for _, th := range threads {
		if th.Theme == "dragon" {
			dragonThreads = append(dragonThreads, th)
		}
	}
	if len(dragonThreads) != 1 {
		t.Fatalf("got %d dragon threads, want 1", len(dragonThreads))
	}
	th := dragonThreads[0]
	if len(th.Entities) != 2 {
		t.Errorf("dragon thread has %d entities, want 2", len(th.Entities))
	}
	if !th.LastUpdated.After(th.CreatedAt) {
		t.Error("LastUpdated did not advance on second mention")
	}
	if th.ID == "" {
		t.Error("thread has empty ID")
	}
}

func TestUpdateThreads_NewEntityOpensNewThread(t *testing.T) {
	t.Parallel()
	a := New()
	now := time.Now()

	a.UpdateThreads("dragon", now)
	threads := a.UpdateThreads("castle", now)
	if len(threads) < 2 {
		t.Errorf("got %d threads, want at least 2", len(threads))
	}
}

func TestCloseThread(t *testing.T) {
	t.Parallel()
	a := New()

	threads := a.UpdateThreads("dragon", time.Now())
	if len(threads) == 0 {
		t.Fatal("no thread created")
	}
	id := threads[0].ID

	if len(a.OpenThreads()) == 0 {
		t.Fatal("expected an open thread")
	}
	a.CloseThread(id)
	for _, th := range a.OpenThreads() {
		if th.ID == id {
			t.Error("closed thread still reported open")
		}
	}
	// Closed threads are retained, not deleted.
	if len(a.Threads()) == 0 {
		t.Error("closing a thread deleted it")
	}
}

func TestExtractEntities(t *testing.T) {
	t.Parallel()
	a := New()

	entities := a.ExtractEntities("We met Alice in Paris", time.Now())

	kinds := map[string]EntityKind{}
	for _, e := range entities {
		kinds[e.Text] = e.Kind
	}
	if kinds["Alice"] != KindPerson {
		t.Errorf("Alice kind = %q, want %q", kinds["Alice"], KindPerson)
	}
	if kinds["Paris"] != KindPlace {
		t.Errorf("Paris kind = %q, want %q", kinds["Paris"], KindPlace)
	}
}

func TestExtractEntities_RepeatedCallsDuplicate(t *testing.T) {
	t.Parallel()
	a := New()
	now := time.Now()

	first := a.ExtractEntities("the dragon", now)
	second := a.ExtractEntities("the dragon", now)
	if len(first) == 0 || len(second) == 0 {
		t.Fatal("expected entities from both calls")
	}
	if got := len(a.Entities()); got != len(first)+len(second) {
		t.Errorf("entity log has %d entries, want %d", got, len(first)+len(second))
	}
}

func TestDetectSentiment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Sentiment
	}{
		{name: "positive", text: "what a wonderful happy dream", want: SentimentPositive},
		{name: "negative", text: "the monster filled me with fear", want: SentimentNegative},
		{name: "tie is neutral", text: "love and hate", want: SentimentNeutral},
		{name: "no hits", text: "the chair stood there", want: SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectSentiment(tt.text); got != tt.want {
				t.Errorf("DetectSentiment(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want WordType
	}{
		{word: "run", want: TypeVerb},
		{word: "singing", want: TypeVerb},
		{word: "bright", want: TypeAdjective},
		{word: "beautiful", want: TypeAdjective},
		{word: "quickly", want: TypeAdverb},
		{word: "the", want: TypeUnknown},
		{word: "dragon", want: TypeNoun},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.word); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestDominantThemes(t *testing.T) {
	t.Parallel()
	a := New()

	a.TrackTheme("dragons")
	a.TrackTheme("dragons")
	a.TrackTheme("castles")

	want := []ThemeCount{{Theme: "dragons", Count: 2}, {Theme: "castles", Count: 1}}
	if diff := cmp.Diff(want, a.DominantThemes(5)); diff != "" {
		t.Errorf("DominantThemes mismatch (-want +got):\n%s", diff)
	}
	if got := a.DominantThemes(1); len(got) != 1 {
		t.Errorf("DominantThemes(1) returned %d themes", len(got))
	}
}

func TestReset_KeepsSeedVocabulary(t *testing.T) {
	t.Parallel()
	a := New()
	a.SetSeedText("dragon castle")
	a.UpdateThreads("dragon", time.Now())
	a.TrackTheme("dragons")

	a.Reset()
	if len(a.Threads()) != 0 || len(a.Entities()) != 0 {
		t.Error("Reset left narrative state behind")
	}
	if len(a.DominantThemes(5)) != 0 {
		t.Error("Reset left themes behind")
	}
	if len(a.FindMatches("rock", 0.5)) == 0 {
		t.Error("Reset discarded the seed vocabulary")
	}
}
