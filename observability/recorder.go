package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records domain events. A nil or zero-value implementation is
// a no-op, so callers never guard their recording calls.
type Metrics interface {
	RecordQuery(ctx context.Context, duration time.Duration, rounds int, err error)
	RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error)
	RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// PrometheusMetrics implements Metrics over otel instruments. The zero
// value records nothing.
type PrometheusMetrics struct {
	queryDuration metric.Float64Histogram
	queriesTotal  metric.Int64Counter
	queryErrors   metric.Int64Counter
	toolRounds    metric.Int64Counter

	toolDuration metric.Float64Histogram
	toolCalls    metric.Int64Counter
	toolErrors   metric.Int64Counter

	httpDuration metric.Float64Histogram
	httpRequests metric.Int64Counter
}

func (m *PrometheusMetrics) RecordQuery(ctx context.Context, duration time.Duration, rounds int, err error) {
	if m == nil || m.queryDuration == nil {
		return
	}

	m.queryDuration.Record(ctx, duration.Seconds())
	m.queriesTotal.Add(ctx, 1)

	if rounds > 0 {
		m.toolRounds.Add(ctx, int64(rounds))
	}
	if err != nil {
		m.queryErrors.Add(ctx, 1)
	}
}

func (m *PrometheusMetrics) RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error) {
	if m == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", tool),
	}

	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		m.toolErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *PrometheusMetrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	m.httpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}
