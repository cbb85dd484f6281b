// Package analytics accumulates per-session performance statistics: word
// and rhyme variety, callback rates, suggestion acceptance, peak flow
// moments and phase history. It is a thin observer over the suggestion
// pipeline and owns no pipeline state of its own.
//
// Counters are mirrored into OpenTelemetry instruments when a
// [observe.Metrics] is attached, so the live dashboard and the Prometheus
// endpoint stay consistent.
package analytics

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/offbeat-labs/flowcanvas/internal/observe"
	"github.com/offbeat-labs/flowcanvas/internal/semantic"
	"github.com/offbeat-labs/flowcanvas/internal/suggest"
)

// PeakMoment marks a stretch of unusually good flow.
type PeakMoment struct {
	Offset time.Duration `json:"offset"`
	Score  float64       `json:"score"`
	Reason string        `json:"reason"`
}

// PhaseChange records one narrative phase transition.
type PhaseChange struct {
	Phase  string        `json:"phase"`
	Offset time.Duration `json:"offset"`
}

// Summary is the full analytics report for a session.
type Summary struct {
	SessionDuration      time.Duration             `json:"sessionDuration"`
	UniqueWords          int                       `json:"uniqueWords"`
	RhymeVariety         int                       `json:"rhymeVariety"`
	AvgPhoneticDistance  float64                   `json:"avgPhoneticDistance"`
	CallbacksExecuted    int                       `json:"callbacksExecuted"`
	CallbackOpps         int                       `json:"callbackOpportunities"`
	MetaphorsPerMinute   float64                   `json:"metaphorsPerMinute"`
	PeakMoments          []PeakMoment              `json:"peakFlowMoments"`
	CategoryDistribution map[semantic.Category]int `json:"categoryDistribution"`
	AcceptanceRate       float64                   `json:"suggestionAcceptanceRate"`
	PhaseHistory         []PhaseChange             `json:"phaseTransitions"`
}

// Stats is the lightweight real-time view for the performance display.
type Stats struct {
	WordsPerMinute int     `json:"wordsPerMinute"`
	CurrentStreak  int     `json:"currentStreak"`
	HeatLevel      float64 `json:"heatLevel"`
}

// Option configures a Collector.
type Option func(*Collector)

// WithNow replaces the wall clock for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithMetrics mirrors counters into the given instrument set.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// Collector accumulates session statistics. Driven from the same event
// loop as the orchestrator; not safe for concurrent use.
type Collector struct {
	now     func() time.Time
	metrics *observe.Metrics

	startTime         time.Time
	wordsUsed         map[string]struct{}
	rhymeFamilies     map[string]struct{}
	phoneticDistances []int
	callbacksExecuted int
	callbackOpps      int
	metaphorScores    []float64
	peakMoments       []PeakMoment
	categoryUsage     map[semantic.Category]int
	shown             int
	accepted          int
	phaseHistory      []PhaseChange
}

// New creates an empty Collector with the session clock starting now.
func New(opts ...Option) *Collector {
	c := &Collector{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.startTime = c.now()
	c.wordsUsed = make(map[string]struct{})
	c.rhymeFamilies = make(map[string]struct{})
	c.categoryUsage = make(map[semantic.Category]int)
	return c
}

// TrackWord records one spoken word. Case-insensitive.
func (c *Collector) TrackWord(word string) {
	c.wordsUsed[strings.ToLower(word)] = struct{}{}
}

// TrackRhymeFamily records that a rhyme family (a nucleus label) was
// touched during the session.
func (c *Collector) TrackRhymeFamily(family string) {
	c.rhymeFamilies[family] = struct{}{}
}

// TrackPhoneticDistance records one word-to-word phonetic distance sample.
func (c *Collector) TrackPhoneticDistance(distance int) {
	c.phoneticDistances = append(c.phoneticDistances, distance)
}

// TrackCallback records a surfaced callback opportunity and whether the
// performer took it.
func (c *Collector) TrackCallback(ctx context.Context, executed bool) {
	c.callbackOpps++
	if c.metrics != nil {
		c.metrics.CallbackOpportunities.Add(ctx, 1)
	}
	if executed {
		c.callbacksExecuted++
		if c.metrics != nil {
			c.metrics.CallbackExecutions.Add(ctx, 1)
		}
	}
}

// TrackMetaphor records one metaphor score sample.
func (c *Collector) TrackMetaphor(score float64) {
	c.metaphorScores = append(c.metaphorScores, score)
}

// TrackSuggestion records a shown suggestion and whether it was spoken,
// attributing accepted ones to their category.
func (c *Collector) TrackSuggestion(ctx context.Context, s suggest.Suggestion, accepted bool) {
	c.shown++
	if c.metrics != nil {
		c.metrics.RecordSuggestion(ctx, string(s.Origin), string(s.Category))
	}
	if accepted {
		c.accepted++
		c.categoryUsage[s.Category]++
	}
}

// TrackPhaseChange records one narrative phase transition.
func (c *Collector) TrackPhaseChange(ctx context.Context, phase string) {
	c.phaseHistory = append(c.phaseHistory, PhaseChange{
		Phase:  phase,
		Offset: c.now().Sub(c.startTime),
	})
	if c.metrics != nil {
		c.metrics.RecordPhaseTransition(ctx, phase)
	}
}

// DetectPeakMoment scores the current flow and logs a peak when the mean
// of the three signals exceeds 0.8.
func (c *Collector) DetectPeakMoment(complexity, novelty, coherence float64) {
	score := (complexity + novelty + coherence) / 3
	if score <= 0.8 {
		return
	}
	c.peakMoments = append(c.peakMoments, PeakMoment{
		Offset: c.now().Sub(c.startTime),
		Score:  score,
		Reason: peakReason(complexity, novelty, coherence),
	})
}

func peakReason(complexity, novelty, coherence float64) string {
	switch {
	case complexity > 0.9:
		return "complex multi-syllable rhyme sequence"
	case novelty > 0.9:
		return "highly novel word combination"
	case coherence > 0.9:
		return "perfect narrative coherence"
	default:
		return "high overall flow quality"
	}
}

// Summary builds the full analytics report.
func (c *Collector) Summary() Summary {
	duration := c.now().Sub(c.startTime)

	var acceptance float64
	if c.shown > 0 {
		acceptance = float64(c.accepted) / float64(c.shown)
	}

	var metaphorsPerMinute float64
	if minutes := duration.Minutes(); minutes > 0 {
		metaphorsPerMinute = float64(len(c.metaphorScores)) / minutes
	}

	dist := make(map[semantic.Category]int, len(c.categoryUsage))
	for k, v := range c.categoryUsage {
		dist[k] = v
	}

	return Summary{
		SessionDuration:      duration,
		UniqueWords:          len(c.wordsUsed),
		RhymeVariety:         len(c.rhymeFamilies),
		AvgPhoneticDistance:  mean(c.phoneticDistances),
		CallbacksExecuted:    c.callbacksExecuted,
		CallbackOpps:         c.callbackOpps,
		MetaphorsPerMinute:   metaphorsPerMinute,
		PeakMoments:          append([]PeakMoment(nil), c.peakMoments...),
		CategoryDistribution: dist,
		AcceptanceRate:       acceptance,
		PhaseHistory:         append([]PhaseChange(nil), c.phaseHistory...),
	}
}

// RealTimeStats computes the live display counters.
func (c *Collector) RealTimeStats() Stats {
	duration := c.now().Sub(c.startTime).Seconds()
	var wpm float64
	if duration > 0 {
		wpm = float64(len(c.wordsUsed)) / duration * 60
	}
	return Stats{
		WordsPerMinute: int(math.Round(wpm)),
		CurrentStreak:  min(10, len(c.wordsUsed)),
		HeatLevel:      c.heatLevel(),
	}
}

// heatLevel reflects how hot the last stretch has been: the mean of the
// last ten metaphor scores, amplified and capped at 1.
func (c *Collector) heatLevel() float64 {
	if len(c.metaphorScores) == 0 {
		return 0
	}
	recent := c.metaphorScores
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	var sum float64
	for _, s := range recent {
		sum += s
	}
	return math.Min(1.0, sum/float64(len(recent))*1.5)
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// Reset clears all statistics and restarts the session clock.
func (c *Collector) Reset() {
	c.startTime = c.now()
	c.wordsUsed = make(map[string]struct{})
	c.rhymeFamilies = make(map[string]struct{})
	c.phoneticDistances = nil
	c.callbacksExecuted = 0
	c.callbackOpps = 0
	c.metaphorScores = nil
	c.peakMoments = nil
	c.categoryUsage = make(map[semantic.Category]int)
	c.shown = 0
	c.accepted = 0
	c.phaseHistory = nil
}
