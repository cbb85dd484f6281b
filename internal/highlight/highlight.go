// Package highlight mines a session's moment history for the stretches
// worth replaying: metaphor-dense windows, sustained rhyme sequences,
// thread intersections, emotional peaks and executed callbacks.
// Overlapping detections are merged into single highlights.
package highlight

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/offbeat-labs/flowcanvas/internal/narrative"
)

// Highlight is one replay-worthy stretch of the session.
type Highlight struct {
	ID         string    `json:"id"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Score      float64   `json:"score"`
	Reasons    []string  `json:"reasons"`
	Transcript string    `json:"transcript"`
}

const (
	// significanceWindow is the half-width, in moments, of the sliding
	// window used for metaphor-peak detection.
	significanceWindow = 3

	// denseSequenceWords is the per-moment word count that counts toward a
	// sustained rhyme sequence.
	denseSequenceWords = 8
)

var emotionalWords = map[string]struct{}{
	"love": {}, "hate": {}, "fear": {}, "joy": {}, "pain": {}, "hope": {},
	"dream": {}, "fight": {}, "die": {}, "live": {}, "heart": {},
	"soul": {}, "mind": {}, "cry": {}, "laugh": {},
}

// Engine detects and accumulates highlights over one session's history.
// Not safe for concurrent use.
type Engine struct {
	history    []narrative.Moment
	highlights []*Highlight
}

// New creates an empty highlight engine.
func New() *Engine {
	return &Engine{}
}

// AnalyzeSession runs every detector over the given history and returns
// the merged highlights sorted by score. Any previous analysis is
// discarded.
func (e *Engine) AnalyzeSession(history []narrative.Moment) []Highlight {
	e.history = history
	e.highlights = nil

	e.detectMetaphorPeaks()
	e.detectDenseSequences()
	e.detectThreadIntersections()
	e.detectEmotionalPeaks()
	e.detectCallbackExecutions()

	sort.SliceStable(e.highlights, func(i, j int) bool {
		return e.highlights[i].Score > e.highlights[j].Score
	})

	out := make([]Highlight, len(e.highlights))
	for i, h := range e.highlights {
		out[i] = *h
	}
	return out
}

// detectMetaphorPeaks slides a window over the history and flags windows
// whose average significance exceeds 0.75.
func (e *Engine) detectMetaphorPeaks() {
	for i := range e.history {
		start := max(0, i-significanceWindow)
		end := min(len(e.history), i+significanceWindow+1)
		window := e.history[start:end]

		var sum float64
		for _, m := range window {
			sum += m.Significance
		}
		avg := sum / float64(len(window))

		if avg > 0.75 {
			e.add(&Highlight{
				StartTime:  window[0].Timestamp,
				EndTime:    window[len(window)-1].Timestamp,
				Score:      avg,
				Reasons:    []string{"high metaphor density"},
				Transcript: joinTexts(window),
			})
		}
	}
}

// detectDenseSequences flags runs of two or more consecutive moments with
// more than eight words each.
func (e *Engine) detectDenseSequences() {
	sequenceStart := -1
	sequenceScore := 0.0

	flush := func(endExclusive int) {
		if sequenceStart != -1 && endExclusive-sequenceStart >= 2 {
			sequence := e.history[sequenceStart:endExclusive]
			e.add(&Highlight{
				StartTime:  sequence[0].Timestamp,
				EndTime:    sequence[len(sequence)-1].Timestamp,
				Score:      sequenceScore,
				Reasons:    []string{"sustained multi-bar rhyme sequence"},
				Transcript: joinTexts(sequence),
			})
		}
		sequenceStart = -1
		sequenceScore = 0
	}

	for i, moment := range e.history {
		if len(moment.Words) > denseSequenceWords {
			if sequenceStart == -1 {
				sequenceStart = i
				sequenceScore = moment.Significance
			} else {
				sequenceScore = (sequenceScore + moment.Significance) / 2
			}
		} else {
			flush(i)
		}
	}
	flush(len(e.history))
}

// detectThreadIntersections flags moments where two or more distinct
// entities converge.
func (e *Engine) detectThreadIntersections() {
	for _, moment := range e.history {
		distinct := make(map[string]struct{}, len(moment.Entities))
		for _, entity := range moment.Entities {
			distinct[entity] = struct{}{}
		}
		if len(distinct) >= 2 {
			e.add(&Highlight{
				StartTime:  moment.Timestamp.Add(-5 * time.Second),
				EndTime:    moment.Timestamp.Add(5 * time.Second),
				Score:      0.8 + float64(len(distinct))*0.05,
				Reasons:    []string{"story threads intersecting"},
				Transcript: moment.Text,
			})
		}
	}
}

// detectEmotionalPeaks flags moments with two or more emotional lexicon
// hits.
func (e *Engine) detectEmotionalPeaks() {
	for _, moment := range e.history {
		count := 0
		for _, word := range moment.Words {
			if _, ok := emotionalWords[strings.ToLower(word)]; ok {
				count++
			}
		}
		if count >= 2 {
			e.add(&Highlight{
				StartTime:  moment.Timestamp.Add(-3 * time.Second),
				EndTime:    moment.Timestamp.Add(3 * time.Second),
				Score:      0.75 + float64(count)*0.05,
				Reasons:    []string{"emotional intensity peak"},
				Transcript: moment.Text,
			})
		}
	}
}

// detectCallbackExecutions flags moments that repeat an entity word from
// at least ten moments and one minute earlier.
func (e *Engine) detectCallbackExecutions() {
	for i := 10; i < len(e.history); i++ {
		current := e.history[i]
		earlier := e.history[:i-10]

		for _, word := range current.Words {
			mention, ok := firstEntityMention(earlier, word)
			if !ok {
				continue
			}
			if current.Timestamp.Sub(mention.Timestamp) > time.Minute {
				e.add(&Highlight{
					StartTime:  current.Timestamp.Add(-5 * time.Second),
					EndTime:    current.Timestamp.Add(5 * time.Second),
					Score:      0.85,
					Reasons:    []string{"callback to earlier moment"},
					Transcript: current.Text,
				})
				break
			}
		}
	}
}

// firstEntityMention finds the earliest moment that spoke word and logged
// it as an entity.
func firstEntityMention(moments []narrative.Moment, word string) (narrative.Moment, bool) {
	for _, m := range moments {
		if containsWord(m.Words, word) && containsWord(m.Entities, word) {
			return m, true
		}
	}
	return narrative.Moment{}, false
}

// joinTexts concatenates the moments' texts separated by spaces.
func joinTexts(moments []narrative.Moment) string {
	texts := make([]string, len(moments))
	for i, m := range moments {
		texts[i] = m.Text
	}
	return strings.Join(texts, " ")
}

func containsWord(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

// add inserts a highlight, merging it into an existing one when their time
// ranges overlap.
func (e *Engine) add(h *Highlight) {
	for _, existing := range e.highlights {
		if overlaps(existing, h) {
			if h.StartTime.Before(existing.StartTime) {
				existing.StartTime = h.StartTime
			}
			if h.EndTime.After(existing.EndTime) {
				existing.EndTime = h.EndTime
			}
			existing.Score = maxFloat(existing.Score, h.Score)
			existing.Reasons = mergeReasons(existing.Reasons, h.Reasons)
			return
		}
	}
	h.ID = uuid.NewString()
	e.highlights = append(e.highlights, h)
}

func overlaps(a, b *Highlight) bool {
	return !a.StartTime.After(b.EndTime) && !b.StartTime.After(a.EndTime)
}

func mergeReasons(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r] = struct{}{}
	}
	for _, r := range incoming {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			existing = append(existing, r)
		}
	}
	return existing
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// TopHighlights returns the n highest-scoring highlights from the last
// analysis.
func (e *Engine) TopHighlights(n int) []Highlight {
	out := make([]Highlight, 0, n)
	for i, h := range e.highlights {
		if i >= n {
			break
		}
		out = append(out, *h)
	}
	return out
}

// HighlightsInRange returns highlights whose span intersects [start, end].
func (e *Engine) HighlightsInRange(start, end time.Time) []Highlight {
	var out []Highlight
	for _, h := range e.highlights {
		if !h.StartTime.After(end) && !start.After(h.EndTime) {
			out = append(out, *h)
		}
	}
	return out
}

// Reel assembles a highlight reel from 15-30 second segments until the
// target duration is filled.
func (e *Engine) Reel(target time.Duration) []Highlight {
	var reel []Highlight
	var total time.Duration
	for _, h := range e.highlights {
		d := h.EndTime.Sub(h.StartTime)
		if d >= 15*time.Second && d <= 30*time.Second && total+d <= target {
			reel = append(reel, *h)
			total += d
		}
		if total >= target {
			break
		}
	}
	return reel
}

// Reset discards the stored history and highlights.
func (e *Engine) Reset() {
	e.history = nil
	e.highlights = nil
}
