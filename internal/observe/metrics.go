// Package observe provides application-wide observability primitives for
// FlowCanvas: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all FlowCanvas
// metrics.
const meterName = "github.com/offbeat-labs/flowcanvas"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// RegenerationDuration tracks how long one suggestion-set rebuild takes.
	RegenerationDuration metric.Float64Histogram

	// SegmentLag tracks the delay between a segment's transcription
	// timestamp and the moment the event loop picks it up.
	SegmentLag metric.Float64Histogram

	// --- Counters ---

	// Utterances counts final transcript segments. Use with attribute:
	//   attribute.String("session", ...)
	Utterances metric.Int64Counter

	// WordsSpoken counts transcribed words from final segments.
	WordsSpoken metric.Int64Counter

	// Suggestions counts generated suggestions. Use with attributes:
	//   attribute.String("origin", ...), attribute.String("category", ...)
	Suggestions metric.Int64Counter

	// CallbackOpportunities counts callback candidates surfaced to the
	// performer.
	CallbackOpportunities metric.Int64Counter

	// CallbackExecutions counts callbacks the performer actually spoke.
	CallbackExecutions metric.Int64Counter

	// PhaseTransitions counts narrative phase changes. Use with attribute:
	//   attribute.String("phase", ...)
	PhaseTransitions metric.Int64Counter

	// LexiconMisses counts pronunciation lookups that fell back to the
	// grapheme-to-phoneme generator.
	LexiconMisses metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live performance sessions.
	ActiveSessions metric.Int64UpDownCounter

	// PinnedSuggestions tracks the current pin count.
	PinnedSuggestions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// in-memory regeneration work, which sits well under typical RPC latencies.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RegenerationDuration, err = m.Float64Histogram("flowcanvas.regeneration.duration",
		metric.WithDescription("Latency of one suggestion-set regeneration."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SegmentLag, err = m.Float64Histogram("flowcanvas.segment.lag",
		metric.WithDescription("Delay between segment transcription and event-loop pickup."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("flowcanvas.utterances",
		metric.WithDescription("Total final transcript segments by session."),
	); err != nil {
		return nil, err
	}
	if met.WordsSpoken, err = m.Int64Counter("flowcanvas.words.spoken",
		metric.WithDescription("Total transcribed words from final segments."),
	); err != nil {
		return nil, err
	}
	if met.Suggestions, err = m.Int64Counter("flowcanvas.suggestions",
		metric.WithDescription("Total generated suggestions by origin and category."),
	); err != nil {
		return nil, err
	}
	if met.CallbackOpportunities, err = m.Int64Counter("flowcanvas.callback.opportunities",
		metric.WithDescription("Total callback candidates surfaced."),
	); err != nil {
		return nil, err
	}
	if met.CallbackExecutions, err = m.Int64Counter("flowcanvas.callback.executions",
		metric.WithDescription("Total callbacks the performer spoke."),
	); err != nil {
		return nil, err
	}
	if met.PhaseTransitions, err = m.Int64Counter("flowcanvas.phase.transitions",
		metric.WithDescription("Total narrative phase changes by target phase."),
	); err != nil {
		return nil, err
	}
	if met.LexiconMisses, err = m.Int64Counter("flowcanvas.lexicon.misses",
		metric.WithDescription("Total pronunciation lookups served by the G2P fallback."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("flowcanvas.active_sessions",
		metric.WithDescription("Number of live performance sessions."),
	); err != nil {
		return nil, err
	}
	if met.PinnedSuggestions, err = m.Int64UpDownCounter("flowcanvas.pinned_suggestions",
		metric.WithDescription("Number of currently pinned suggestions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("flowcanvas.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSuggestion records one generated suggestion with the standard
// attribute set.
func (m *Metrics) RecordSuggestion(ctx context.Context, origin, category string) {
	m.Suggestions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("origin", origin),
			attribute.String("category", category),
		),
	)
}

// RecordPhaseTransition records a narrative phase change.
func (m *Metrics) RecordPhaseTransition(ctx context.Context, phase string) {
	m.PhaseTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("phase", phase)),
	)
}

// RecordUtterance records one final segment and its word count for a
// session.
func (m *Metrics) RecordUtterance(ctx context.Context, sessionID string, words int) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("session", sessionID)),
	)
	m.WordsSpoken.Add(ctx, int64(words))
}
