// Package narrative tracks the arc of a performance: a log of historical
// moments, a three-phase state machine over elapsed time and entity
// novelty, callback-opportunity search and entity-recency thread detection.
package narrative

import (
	"sort"
	"strings"
	"time"
)

// Phase is the current stage of the performance arc.
type Phase string

const (
	PhaseOpening     Phase = "opening"
	PhaseDevelopment Phase = "development"
	PhaseResolution  Phase = "resolution"
)

const (
	openingDuration     = 5 * time.Minute
	developmentDuration = 25 * time.Minute

	// callbackAge is the minimum age of a moment before it becomes
	// callback material.
	callbackAge = time.Minute
)

// PhaseState is the tracker's current phase plus when it began and how
// confident the detection is. Replaced wholesale on each recomputation.
type PhaseState struct {
	Phase      Phase
	StartTime  time.Time
	Confidence float64
}

// Moment is a single logged utterance with its extracted entities and a
// precomputed significance score.
type Moment struct {
	Timestamp    time.Time
	Text         string
	Words        []string
	Entities     []string
	Significance float64
}

// Callback is a suggested reference back to an earlier moment. Plain data;
// use IsCallback to test the timing predicate.
type Callback struct {
	Word              string
	OriginalTimestamp time.Time
	OriginalContext   string
	RhymeScore        float64
	SemanticScore     float64
}

// IsCallback reports whether referencing a moment from originalTimestamp
// at now would read as a deliberate callback rather than mere repetition:
// the gap must exceed one minute.
func IsCallback(originalTimestamp, now time.Time) bool {
	return now.Sub(originalTimestamp) > callbackAge
}

// EntityThread is a dangling story element detected from entity recency,
// distinct from the semantic engine's story threads.
type EntityThread struct {
	Entity       string
	FirstMention time.Time
	LastMention  time.Time
	Mentions     int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithNow replaces the wall clock, letting tests drive phase transitions
// deterministically.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker owns the moment history and phase state for one session. Not
// safe for concurrent use.
type Tracker struct {
	now          func() time.Time
	history      []Moment
	sessionStart time.Time
	phase        PhaseState
}

// New creates a Tracker with the session clock starting now.
func New(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	start := t.now()
	t.sessionStart = start
	t.phase = PhaseState{Phase: PhaseOpening, StartTime: start, Confidence: 1.0}
	return t
}

// AddToHistory logs an utterance as a Moment and recomputes the phase.
func (t *Tracker) AddToHistory(text string, words, entities []string) {
	t.history = append(t.history, Moment{
		Timestamp:    t.now(),
		Text:         text,
		Words:        words,
		Entities:     entities,
		Significance: significance(text, entities),
	})
	t.updatePhase()
}

// significance scores a moment by entity count and utterance length.
func significance(text string, entities []string) float64 {
	score := 0.5
	score += min(0.3, float64(len(entities))*0.1)
	score += min(0.2, float64(len(strings.Fields(text)))*0.02)
	return min(1.0, score)
}

// updatePhase recomputes the phase from elapsed time, then lets low entity
// novelty force resolution once the opening window has passed.
func (t *Tracker) updatePhase() {
	elapsed := t.now().Sub(t.sessionStart)

	switch {
	case elapsed < openingDuration:
		t.phase = PhaseState{
			Phase:      PhaseOpening,
			StartTime:  t.sessionStart,
			Confidence: 1.0,
		}
	case elapsed < developmentDuration:
		t.phase = PhaseState{
			Phase:      PhaseDevelopment,
			StartTime:  t.sessionStart.Add(openingDuration),
			Confidence: 0.9,
		}
	default:
		t.phase = PhaseState{
			Phase:      PhaseResolution,
			StartTime:  t.sessionStart.Add(developmentDuration),
			Confidence: 0.8,
		}
	}

	if len(t.history) >= 10 {
		recent := t.history[max(0, len(t.history)-20):]
		if newEntityRate(t.history, recent) < 0.2 && elapsed > openingDuration {
			t.phase.Phase = PhaseResolution
			t.phase.Confidence = min(1.0, t.phase.Confidence+0.2)
		}
	}
}

// newEntityRate is the share of recent moments introducing entities absent
// from the full history.
func newEntityRate(history, recent []Moment) float64 {
	if len(recent) == 0 {
		return 0
	}
	all := make(map[string]struct{})
	for _, m := range history {
		for _, e := range m.Entities {
			all[e] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	newCount := 0
	for _, m := range recent {
		for _, e := range m.Entities {
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			if _, known := all[e]; !known {
				newCount++
			}
		}
	}
	return float64(newCount) / float64(len(recent))
}

// FindCallbacks searches significant past moments for words worth calling
// back while saying word. Disabled during the opening phase.
func (t *Tracker) FindCallbacks(word string) []Callback {
	if t.phase.Phase == PhaseOpening {
		return nil
	}
	now := t.now()

	var callbacks []Callback
	for _, moment := range t.history {
		if moment.Significance <= 0.6 || now.Sub(moment.Timestamp) <= callbackAge {
			continue
		}
		for _, candidate := range moment.Words {
			rhyme := rhymeCompatibility(candidate, word)
			semantic := semanticRelevance(moment, word)
			if rhyme > 0.7 || semantic > 0.6 {
				callbacks = append(callbacks, Callback{
					Word:              candidate,
					OriginalTimestamp: moment.Timestamp,
					OriginalContext:   moment.Text,
					RhymeScore:        rhyme,
					SemanticScore:     semantic,
				})
			}
		}
	}

	sort.SliceStable(callbacks, func(i, j int) bool {
		return combinedScore(callbacks[i]) > combinedScore(callbacks[j])
	})
	if len(callbacks) > 10 {
		callbacks = callbacks[:10]
	}
	return callbacks
}

func combinedScore(c Callback) float64 {
	return c.RhymeScore*0.6 + c.SemanticScore*0.4
}

// rhymeCompatibility is a cheap ending-match heuristic; the full phonetic
// matcher never sees callback candidates.
func rhymeCompatibility(word1, word2 string) float64 {
	w1 := strings.ToLower(word1)
	w2 := strings.ToLower(word2)
	if w1 == w2 {
		return 1.0
	}
	limit := min(min(len(w1), len(w2)), 4)
	for i := 2; i <= limit; i++ {
		if w1[len(w1)-i:] == w2[len(w2)-i:] {
			return 0.7 + float64(i)*0.1
		}
	}
	return 0.3
}

// semanticRelevance checks how strongly word ties back to the moment:
// exact entity match beats partial entity match beats plain word match.
func semanticRelevance(moment Moment, word string) float64 {
	w := strings.ToLower(word)
	for _, entity := range moment.Entities {
		if strings.ToLower(entity) == w {
			return 1.0
		}
	}
	for _, entity := range moment.Entities {
		e := strings.ToLower(entity)
		if strings.Contains(e, w) || strings.Contains(w, e) {
			return 0.7
		}
	}
	for _, candidate := range moment.Words {
		if strings.ToLower(candidate) == w {
			return 0.5
		}
	}
	return 0.2
}

// OpenThreads reports entities that look like dangling story elements:
// first mentioned over five minutes ago, silent for the last two, and
// brought up at least twice. Results are ordered by first mention.
func (t *Tracker) OpenThreads() []EntityThread {
	type tracked struct {
		first, last time.Time
		count       int
	}
	entities := make(map[string]*tracked)
	for _, moment := range t.history {
		for _, entity := range moment.Entities {
			if existing, ok := entities[entity]; ok {
				existing.last = moment.Timestamp
				existing.count++
			} else {
				entities[entity] = &tracked{
					first: moment.Timestamp,
					last:  moment.Timestamp,
					count: 1,
				}
			}
		}
	}

	now := t.now()
	var threads []EntityThread
	for entity, data := range entities {
		if now.Sub(data.first) > 5*time.Minute &&
			now.Sub(data.last) > 2*time.Minute &&
			data.count >= 2 {
			threads = append(threads, EntityThread{
				Entity:       entity,
				FirstMention: data.first,
				LastMention:  data.last,
				Mentions:     data.count,
			})
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		if !threads[i].FirstMention.Equal(threads[j].FirstMention) {
			return threads[i].FirstMention.Before(threads[j].FirstMention)
		}
		return threads[i].Entity < threads[j].Entity
	})
	return threads
}

// CurrentPhase returns the latest phase state.
func (t *Tracker) CurrentPhase() PhaseState { return t.phase }

// SessionDuration is the elapsed time since session start.
func (t *Tracker) SessionDuration() time.Duration {
	return t.now().Sub(t.sessionStart)
}

// History returns the full moment log in arrival order.
func (t *Tracker) History() []Moment { return t.history }

// SignificantMoments returns moments at or above the significance
// threshold, for highlight detection.
func (t *Tracker) SignificantMoments(threshold float64) []Moment {
	var moments []Moment
	for _, m := range t.history {
		if m.Significance >= threshold {
			moments = append(moments, m)
		}
	}
	return moments
}

// Reset clears the history and restarts the session clock.
func (t *Tracker) Reset() {
	now := t.now()
	t.history = nil
	t.sessionStart = now
	t.phase = PhaseState{Phase: PhaseOpening, StartTime: now, Confidence: 1.0}
}
