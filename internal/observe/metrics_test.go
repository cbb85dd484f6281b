package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"flowcanvas.regeneration.duration", m.RegenerationDuration},
		{"flowcanvas.segment.lag", m.SegmentLag},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.002)
		tc.h.Record(ctx, 0.005)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestHistogramLatencyBuckets(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RegenerationDuration.Record(ctx, 0.002)
	m.SegmentLag.Record(ctx, 0.002)

	rm := collect(t, reader)

	for _, name := range []string{"flowcanvas.regeneration.duration", "flowcanvas.segment.lag"} {
		t.Run(name, func(t *testing.T) {
			met := findMetric(rm, name)
			if met == nil {
				t.Fatalf("metric %q not found", name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", name)
			}
			bounds := hist.DataPoints[0].Bounds
			if len(bounds) != len(latencyBuckets) {
				t.Fatalf("bucket count = %d, want %d", len(bounds), len(latencyBuckets))
			}
			for i, b := range bounds {
				if b != latencyBuckets[i] {
					t.Errorf("bound[%d] = %v, want %v", i, b, latencyBuckets[i])
				}
			}
		})
	}
}

func TestRecordSuggestion_Attributes(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSuggestion(ctx, "rhyme", "safe")
	m.RecordSuggestion(ctx, "rhyme", "safe")
	m.RecordSuggestion(ctx, "compound", "wild")

	rm := collect(t, reader)
	met := findMetric(rm, "flowcanvas.suggestions")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	found := false
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "origin" && kv.Value.AsString() == "rhyme" {
				found = true
				if dp.Value != 2 {
					t.Errorf("rhyme suggestion count = %d, want 2", dp.Value)
				}
			}
		}
	}
	if !found {
		t.Error("no data point with origin=rhyme")
	}
}

func TestRecordUtterance(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUtterance(ctx, "session-1", 5)
	m.RecordUtterance(ctx, "session-1", 3)

	rm := collect(t, reader)

	utterances := findMetric(rm, "flowcanvas.utterances")
	if utterances == nil {
		t.Fatal("utterances metric not found")
	}
	if sum, ok := utterances.Data.(metricdata.Sum[int64]); !ok || sum.DataPoints[0].Value != 2 {
		t.Errorf("utterances = %+v, want sum 2", utterances.Data)
	}

	words := findMetric(rm, "flowcanvas.words.spoken")
	if words == nil {
		t.Fatal("words metric not found")
	}
	if sum, ok := words.Data.(metricdata.Sum[int64]); !ok || sum.DataPoints[0].Value != 8 {
		t.Errorf("words spoken = %+v, want sum 8", words.Data)
	}
}

func TestRecordPhaseTransition(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordPhaseTransition(ctx, "development")

	rm := collect(t, reader)
	met := findMetric(rm, "flowcanvas.phase.transitions")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatalf("unexpected data: %+v", met.Data)
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("phase transitions = %d, want 1", sum.DataPoints[0].Value)
	}
}

func TestGauges(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	gauges := []struct {
		name string
		g    metric.Int64UpDownCounter
		want int64
	}{
		{"flowcanvas.active_sessions", m.ActiveSessions, 1},
		{"flowcanvas.pinned_suggestions", m.PinnedSuggestions, 3},
	}

	m.ActiveSessions.Add(ctx, 2)
	m.ActiveSessions.Add(ctx, -1)
	m.PinnedSuggestions.Add(ctx, 4)
	m.PinnedSuggestions.Add(ctx, -1)

	rm := collect(t, reader)
	for _, tc := range gauges {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				t.Fatalf("unexpected data: %+v", met.Data)
			}
			if got := sum.DataPoints[0].Value; got != tc.want {
				t.Errorf("gauge value = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	m1 := DefaultMetrics()
	m2 := DefaultMetrics()
	if m1 != m2 {
		t.Error("DefaultMetrics returned different instances")
	}
}
