package observe

import (
	"context"
	"testing"
	"time"

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

func TestFrameCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFrame(ctx, "direct_memory")
	m.RecordFrame(ctx, "direct_memory")
	m.RecordFrame(ctx, "generic")
	m.RecordMiss(ctx)

	rm := collect(t, reader)

	frames := findMetric(rm, "mudra.frames.captured")
	if frames == nil {
		t.Fatal("frames metric not found")
	}
	sum, ok := frames.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("frames metric is not a sum")
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "backend" && kv.Value.AsString() == "direct_memory" {
				if dp.Value != 2 {
					t.Errorf("direct_memory frames = %d, want 2", dp.Value)
				}
			}
		}
	}

	misses := findMetric(rm, "mudra.frames.misses")
	if misses == nil {
		t.Fatal("misses metric not found")
	}
	missSum, ok := misses.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("misses metric is not a sum")
	}
	if len(missSum.DataPoints) == 0 || missSum.DataPoints[0].Value != 1 {
		t.Error("miss counter should be 1")
	}
}

func TestGestureCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordGesture(ctx, "pinch")
	m.RecordGesture(ctx, "pinch")
	m.RecordGesture(ctx, "open_palm")

	rm := collect(t, reader)
	met := findMetric(rm, "mudra.gestures.recognized")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "gesture" && kv.Value.AsString() == "pinch" {
				if dp.Value != 2 {
					t.Errorf("pinch count = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Error("data point with gesture=pinch not found")
}

func TestRecordDispatch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDispatch(ctx, "pinch", "done", 250*time.Millisecond)
	m.RecordDispatch(ctx, "pinch", "cooldown", 0)

	rm := collect(t, reader)

	dispatches := findMetric(rm, "mudra.actions.dispatched")
	if dispatches == nil {
		t.Fatal("dispatches metric not found")
	}
	sum, ok := dispatches.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("dispatches metric is not a sum")
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("dispatch total = %d, want 2", total)
	}

	duration := findMetric(rm, "mudra.action.duration")
	if duration == nil {
		t.Fatal("duration metric not found")
	}
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("duration metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("duration metric has no data points")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("duration sample count = %d, want 2", got)
	}
}

func TestFrameLatencyHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFrameLatency(ctx, 15*time.Millisecond)
	m.RecordFrameLatency(ctx, 40*time.Millisecond)

	rm := collect(t, reader)
	met := findMetric(rm, "mudra.frame.latency")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
