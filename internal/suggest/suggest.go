// Package suggest is the orchestrator tying the rhyme, semantic and
// narrative engines together. On every utterance it queries all three,
// fuses the candidates into one ranked and deduplicated suggestion set,
// applies the performer's controls (pins, weirdness, density) and notifies
// subscribers.
//
// The Orchestrator is built for a single event-loop goroutine: all
// mutation happens synchronously inside the calling goroutine and no
// internal locking is performed.
package suggest

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/offbeat-labs/flowcanvas/internal/lexicon"
	"github.com/offbeat-labs/flowcanvas/internal/narrative"
	"github.com/offbeat-labs/flowcanvas/internal/rhyme"
	"github.com/offbeat-labs/flowcanvas/internal/semantic"
	"github.com/offbeat-labs/flowcanvas/pkg/speech"
)

// Origin identifies which engine proposed a suggestion.
type Origin string

const (
	OriginRhyme    Origin = "rhyme"
	OriginSemantic Origin = "semantic"
	OriginCallback Origin = "callback"
	OriginCompound Origin = "compound"
)

// Metadata carries origin-specific detail for display.
type Metadata struct {
	RhymeClass        rhyme.Class `json:"rhymeClass,omitempty"`
	MetaphorScore     float64     `json:"metaphorScore,omitempty"`
	CallbackTimestamp time.Time   `json:"callbackTimestamp,omitzero"`
	CallbackContext   string      `json:"callbackContext,omitempty"`
}

// Suggestion is one candidate word in the live set.
type Suggestion struct {
	Word     string            `json:"word"`
	Origin   Origin            `json:"origin"`
	Category semantic.Category `json:"category"`
	Score    float64           `json:"score"`
	Pinned   bool              `json:"pinned"`
	Metadata Metadata          `json:"metadata"`
}

// Subscriber callbacks. Invoked synchronously from the mutating call.
type (
	SuggestionsFunc func([]Suggestion)
	PhaseFunc       func(narrative.PhaseState)
	TranscriptFunc  func(text string, words []string)
)

const (
	defaultWeirdness = 0.5
	defaultDensity   = 0.7

	// minVisible is the floor the density dial can never cut below.
	minVisible = 10

	rhymeQueryMax      = 30
	rhymeQueryMinScore = 0.4
	compoundScore      = 0.6
	compoundTake       = 10
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNow replaces the wall clock for the orchestrator and its narrative
// tracker.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator owns the live suggestion set and the pin index.
type Orchestrator struct {
	now     func() time.Time
	lex     *lexicon.Store
	rhymes  *rhyme.Matcher
	assoc   *semantic.Associator
	tracker *narrative.Tracker

	current []*Suggestion
	byWord  map[string]*Suggestion
	pinned  map[string]struct{}

	weirdness float64
	density   float64

	sessionID    string
	sessionStart time.Time
	transcript   []string
	lastWords    []string

	onSuggestions SuggestionsFunc
	onPhase       PhaseFunc
	onTranscript  TranscriptFunc
}

// New creates an Orchestrator over the given pronunciation store with a
// fresh session.
func New(lex *lexicon.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		now:       time.Now,
		lex:       lex,
		weirdness: defaultWeirdness,
		density:   defaultDensity,
		byWord:    make(map[string]*Suggestion),
		pinned:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.rhymes = rhyme.New(lex)
	o.assoc = semantic.New()
	o.tracker = narrative.New(narrative.WithNow(o.now))
	o.sessionID = uuid.NewString()
	o.sessionStart = o.now()
	return o
}

// OnSuggestions registers the subscriber notified after every regeneration
// and pin change.
func (o *Orchestrator) OnSuggestions(fn SuggestionsFunc) { o.onSuggestions = fn }

// OnPhase registers the subscriber notified after each phase recomputation.
func (o *Orchestrator) OnPhase(fn PhaseFunc) { o.onPhase = fn }

// OnTranscript registers the subscriber notified on every final segment.
func (o *Orchestrator) OnTranscript(fn TranscriptFunc) { o.onTranscript = fn }

// HandleSegment feeds one transcription segment through the pipeline.
// Interim segments only regenerate suggestions for live feedback; final
// segments also update the transcript, usage tracking, story threads and
// narrative history.
func (o *Orchestrator) HandleSegment(seg speech.Segment) {
	if !seg.IsFinal {
		o.regenerate(seg.Words)
		return
	}

	o.transcript = append(o.transcript, seg.Text)
	o.lastWords = append(o.lastWords, seg.Words...)
	if len(o.lastWords) > 20 {
		o.lastWords = o.lastWords[len(o.lastWords)-20:]
	}

	for _, word := range seg.Words {
		o.rhymes.MarkUsed(word)
	}

	o.assoc.ExtractEntities(seg.Text, seg.Timestamp)
	o.assoc.UpdateThreads(seg.Text, seg.Timestamp)

	entities := o.assoc.ExtractEntities(seg.Text, seg.Timestamp)
	texts := make([]string, len(entities))
	for i, e := range entities {
		texts[i] = e.Text
	}
	o.tracker.AddToHistory(seg.Text, seg.Words, texts)

	o.regenerate(seg.Words)

	if o.onTranscript != nil {
		o.onTranscript(seg.Text, seg.Words)
	}
	if o.onPhase != nil {
		o.onPhase(o.tracker.CurrentPhase())
	}
}

// regenerate rebuilds the suggestion set from the given words. The source
// order is fixed (pins, rhymes, semantic, callbacks, compounds) so the
// first-seen-wins dedup stays reproducible.
func (o *Orchestrator) regenerate(words []string) {
	if len(words) == 0 {
		return
	}
	lastWord := words[len(words)-1]

	var next []*Suggestion
	index := make(map[string]*Suggestion)
	add := func(s *Suggestion) {
		if _, seen := index[s.Word]; seen {
			return
		}
		index[s.Word] = s
		next = append(next, s)
	}

	for _, s := range o.current {
		if s.Pinned {
			add(s)
		}
	}

	for _, match := range o.rhymes.FindRhymes(lastWord, rhyme.Options{
		MaxResults: rhymeQueryMax,
		MinScore:   rhymeQueryMinScore,
	}) {
		add(&Suggestion{
			Word:     match.Word,
			Origin:   OriginRhyme,
			Category: categorizeRhyme(match),
			Score:    match.Score,
			Metadata: Metadata{RhymeClass: match.Class},
		})
	}

	for _, match := range o.assoc.FindMatches(lastWord, o.weirdness) {
		add(&Suggestion{
			Word:     match.Word,
			Origin:   OriginSemantic,
			Category: match.Category,
			Score:    match.Similarity,
			Metadata: Metadata{MetaphorScore: match.MetaphorScore},
		})
	}

	// Callbacks only fire for words the lexicon actually knows.
	if o.lex.Has(lastWord) {
		for _, cb := range o.tracker.FindCallbacks(lastWord) {
			add(&Suggestion{
				Word:     cb.Word,
				Origin:   OriginCallback,
				Category: semantic.CategoryWacky,
				Score:    (cb.RhymeScore + cb.SemanticScore) / 2,
				Metadata: Metadata{
					CallbackTimestamp: cb.OriginalTimestamp,
					CallbackContext:   cb.OriginalContext,
				},
			})
		}
	}

	if len(words) >= 2 {
		compounds := o.assoc.GenerateCompounds(words)
		if len(compounds) > compoundTake {
			compounds = compounds[:compoundTake]
		}
		for _, compound := range compounds {
			add(&Suggestion{
				Word:     compound,
				Origin:   OriginCompound,
				Category: semantic.CategoryWild,
				Score:    compoundScore,
			})
		}
	}

	o.setCurrent(applyDensity(next, o.density))
	o.notifySuggestions()
}

// applyDensity sorts the pool by score and keeps the top
// max(10, floor(n*density)) entries. Pinned suggestions survive the cut
// regardless of score.
func applyDensity(pool []*Suggestion, density float64) []*Suggestion {
	sorted := make([]*Suggestion, len(pool))
	copy(sorted, pool)
	stableSortByScore(sorted)

	limit := max(minVisible, int(math.Floor(float64(len(sorted))*density)))
	if limit >= len(sorted) {
		return sorted
	}
	kept := sorted[:limit:limit]
	for _, s := range sorted[limit:] {
		if s.Pinned {
			kept = append(kept, s)
		}
	}
	return kept
}

func stableSortByScore(pool []*Suggestion) {
	// Insertion sort keeps equal scores in source order, preserving the
	// rhyme > semantic > callback > compound precedence for ties.
	for i := 1; i < len(pool); i++ {
		for j := i; j > 0 && pool[j].Score > pool[j-1].Score; j-- {
			pool[j], pool[j-1] = pool[j-1], pool[j]
		}
	}
}

func (o *Orchestrator) setCurrent(set []*Suggestion) {
	o.current = set
	o.byWord = make(map[string]*Suggestion, len(set))
	for _, s := range set {
		o.byWord[s.Word] = s
	}
}

// categorizeRhyme bands a rhyme by class: confident perfect rhymes read
// safe, near and assonance read wacky, everything else reads wild.
func categorizeRhyme(match rhyme.Match) semantic.Category {
	if match.Class == rhyme.ClassPerfect && match.Score > 0.9 {
		return semantic.CategorySafe
	}
	if match.Class == rhyme.ClassNear || match.Class == rhyme.ClassAssonance {
		return semantic.CategoryWacky
	}
	return semantic.CategoryWild
}

// Suggestions returns a copy of the live suggestion set in rank order.
func (o *Orchestrator) Suggestions() []Suggestion {
	out := make([]Suggestion, len(o.current))
	for i, s := range o.current {
		out[i] = *s
	}
	return out
}

// Pin marks the suggestion for word as pinned. Unknown words are ignored.
func (o *Orchestrator) Pin(word string) {
	s, ok := o.byWord[word]
	if !ok {
		return
	}
	s.Pinned = true
	o.pinned[word] = struct{}{}
	o.notifySuggestions()
}

// Unpin clears the pin on the suggestion for word.
func (o *Orchestrator) Unpin(word string) {
	s, ok := o.byWord[word]
	if !ok {
		return
	}
	s.Pinned = false
	delete(o.pinned, word)
	o.notifySuggestions()
}

// ClearPinned unpins every suggestion. Nothing is removed from the set.
func (o *Orchestrator) ClearPinned() {
	for _, s := range o.current {
		s.Pinned = false
	}
	o.pinned = make(map[string]struct{})
	o.notifySuggestions()
}

func (o *Orchestrator) notifySuggestions() {
	if o.onSuggestions != nil {
		o.onSuggestions(o.Suggestions())
	}
}

// SetSeedText replaces the association vocabulary and regenerates from the
// retained word window.
func (o *Orchestrator) SetSeedText(text string) {
	o.assoc.SetSeedText(text)
	if len(o.lastWords) > 0 {
		o.regenerate(o.lastWords)
	}
}

// SetWeirdness clamps the dial to [0, 1] and regenerates.
func (o *Orchestrator) SetWeirdness(level float64) {
	o.weirdness = clamp01(level)
	if len(o.lastWords) > 0 {
		o.regenerate(o.lastWords)
	}
}

// SetDensity clamps the dial to [0, 1] and regenerates.
func (o *Orchestrator) SetDensity(density float64) {
	o.density = clamp01(density)
	if len(o.lastWords) > 0 {
		o.regenerate(o.lastWords)
	}
}

// NextFamily retires the current rhyme family: every rhyme-origin
// suggestion's word is marked used, then the set regenerates so the next
// family surfaces. Pinned rhymes keep their tile but still count as used.
func (o *Orchestrator) NextFamily() {
	var retired bool
	for _, s := range o.current {
		if s.Origin == OriginRhyme {
			o.rhymes.MarkUsed(s.Word)
			retired = true
		}
	}
	if retired && len(o.lastWords) > 0 {
		o.regenerate(o.lastWords)
	}
}

// Weirdness returns the current weirdness dial.
func (o *Orchestrator) Weirdness() float64 { return o.weirdness }

// Density returns the current density dial.
func (o *Orchestrator) Density() float64 { return o.density }

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// SessionID returns the current session identifier.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Transcript returns the accumulated final-segment texts.
func (o *Orchestrator) Transcript() []string { return o.transcript }

// CurrentPhase returns the narrative tracker's latest phase state.
func (o *Orchestrator) CurrentPhase() narrative.PhaseState {
	return o.tracker.CurrentPhase()
}

// StoryThreads returns the open story threads from the semantic engine.
func (o *Orchestrator) StoryThreads() []*semantic.Thread {
	return o.assoc.OpenThreads()
}

// History returns the narrative moment log.
func (o *Orchestrator) History() []narrative.Moment {
	return o.tracker.History()
}

// NewSession discards all session state, resets every engine and assigns a
// fresh session ID. The seed text survives per the semantic engine's reset
// semantics.
func (o *Orchestrator) NewSession() {
	o.sessionID = uuid.NewString()
	o.sessionStart = o.now()
	o.transcript = nil
	o.lastWords = nil
	o.setCurrent(nil)
	o.pinned = make(map[string]struct{})
	o.rhymes.ResetUsage()
	o.assoc.Reset()
	o.tracker.Reset()
}
