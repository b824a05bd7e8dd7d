// Package observe provides application-wide observability primitives for the
// presenter service: OpenTelemetry metrics, distributed tracing, structured
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

// meterName is the instrumentation scope name used for all presenter metrics.
const meterName = "github.com/MrWong99/presenter"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// MatchConfidence records the winning confidence of every catalog match.
	MatchConfidence metric.Float64Histogram

	// TurnDuration tracks end-to-end processing time of one dialogue turn.
	TurnDuration metric.Float64Histogram

	// DialogueOutcomes counts dialogue responses. Use with attribute:
	//   attribute.String("outcome", ...)
	DialogueOutcomes metric.Int64Counter

	// DispatchRequests counts start-action dispatches. Use with attributes:
	//   attribute.String("target", ...), attribute.String("status", ...)
	DispatchRequests metric.Int64Counter

	// ActiveSessions tracks the number of conversations that have started
	// and not yet ended.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for a
// synchronous request/response turn.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// confidenceBuckets brackets the dialogue thresholds. Confidence is unbounded
// below, so the first bucket catches everything negative.
var confidenceBuckets = []float64{
	0, 0.25, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.MatchConfidence, err = m.Float64Histogram("presenter.match.confidence",
		metric.WithDescription("Confidence of the best catalog match per utterance."),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("presenter.turn.duration",
		metric.WithDescription("Latency of one dialogue turn including store and dispatch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.DialogueOutcomes, err = m.Int64Counter("presenter.dialogue.outcomes",
		metric.WithDescription("Total dialogue responses by outcome."),
	); err != nil {
		return nil, err
	}
	if met.DispatchRequests, err = m.Int64Counter("presenter.dispatch.requests",
		metric.WithDescription("Total start dispatches by target and status."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("presenter.sessions.active",
		metric.WithDescription("Number of live conversations."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("presenter.http.request.duration",
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

// RecordOutcome increments the dialogue outcome counter.
func (m *Metrics) RecordOutcome(ctx context.Context, outcome string) {
	m.DialogueOutcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordDispatch increments the dispatch counter with the standard
// attribute set.
func (m *Metrics) RecordDispatch(ctx context.Context, target, status string) {
	m.DispatchRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("target", target),
			attribute.String("status", status),
		),
	)
}
