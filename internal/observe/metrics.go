// Package observe provides the observability primitives for mudra:
// OpenTelemetry metrics with a Prometheus exporter bridge so the perception
// loop can be watched through the standard /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all mudra metrics.
const meterName = "github.com/ayusman/mudra"

// Metrics holds all OpenTelemetry metric instruments for the daemon. All
// fields are safe for concurrent use; the underlying OTel types handle their
// own synchronisation.
type Metrics struct {
	// FramesCaptured counts delivered frames. Use with attribute:
	//   attribute.String("backend", ...)
	FramesCaptured metric.Int64Counter

	// CaptureMisses counts transient capture failures (nil frames).
	CaptureMisses metric.Int64Counter

	// Detections counts frames in which a hand was found.
	Detections metric.Int64Counter

	// Gestures counts recognized gestures. Use with attribute:
	//   attribute.String("gesture", ...)
	Gestures metric.Int64Counter

	// Dispatches counts action dispatches. Use with attributes:
	//   attribute.String("gesture", ...), attribute.String("outcome", ...)
	Dispatches metric.Int64Counter

	// FrameLatency tracks per-iteration processing time, capture through
	// dispatch.
	FrameLatency metric.Float64Histogram

	// ActionDuration tracks blocking action runtime. Use with attribute:
	//   attribute.String("gesture", ...)
	ActionDuration metric.Float64Histogram
}

// frameBuckets covers per-frame latencies around the 33ms frame period.
var frameBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// actionBuckets covers blocking playback and multi-second recordings.
var actionBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesCaptured, err = m.Int64Counter("mudra.frames.captured",
		metric.WithDescription("Total frames delivered by the camera backend."),
	); err != nil {
		return nil, err
	}
	if met.CaptureMisses, err = m.Int64Counter("mudra.frames.misses",
		metric.WithDescription("Total transient capture failures."),
	); err != nil {
		return nil, err
	}
	if met.Detections, err = m.Int64Counter("mudra.hands.detected",
		metric.WithDescription("Total frames in which a hand was found."),
	); err != nil {
		return nil, err
	}
	if met.Gestures, err = m.Int64Counter("mudra.gestures.recognized",
		metric.WithDescription("Total recognized gestures by label."),
	); err != nil {
		return nil, err
	}
	if met.Dispatches, err = m.Int64Counter("mudra.actions.dispatched",
		metric.WithDescription("Total action dispatches by gesture and outcome."),
	); err != nil {
		return nil, err
	}
	if met.FrameLatency, err = m.Float64Histogram("mudra.frame.latency",
		metric.WithDescription("Per-frame processing time, capture through dispatch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(frameBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActionDuration, err = m.Float64Histogram("mudra.action.duration",
		metric.WithDescription("Blocking action runtime by gesture."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(actionBuckets...),
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

// RecordFrame records one delivered frame from the named backend.
func (m *Metrics) RecordFrame(ctx context.Context, backend string) {
	m.FramesCaptured.Add(ctx, 1,
		metric.WithAttributes(attribute.String("backend", backend)),
	)
}

// RecordMiss records one transient capture failure.
func (m *Metrics) RecordMiss(ctx context.Context) {
	m.CaptureMisses.Add(ctx, 1)
}

// RecordDetection records one frame with a detected hand.
func (m *Metrics) RecordDetection(ctx context.Context) {
	m.Detections.Add(ctx, 1)
}

// RecordGesture records one recognized gesture.
func (m *Metrics) RecordGesture(ctx context.Context, gesture string) {
	m.Gestures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("gesture", gesture)),
	)
}

// RecordDispatch records one action dispatch with its runtime.
func (m *Metrics) RecordDispatch(ctx context.Context, gesture, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("gesture", gesture),
		attribute.String("outcome", outcome),
	)
	m.Dispatches.Add(ctx, 1, attrs)
	m.ActionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("gesture", gesture)),
	)
}

// RecordFrameLatency records one iteration's processing time.
func (m *Metrics) RecordFrameLatency(ctx context.Context, d time.Duration) {
	m.FrameLatency.Record(ctx, d.Seconds())
}
