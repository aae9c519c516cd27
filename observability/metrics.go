// Package observability exposes prometheus metrics for query handling,
// tool executions, and model calls.
package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// InitMetrics wires the otel meter provider to the prometheus
// registry. The exporter registers with the default prometheus
// registry, so the /metrics handler picks the instruments up.
func InitMetrics(cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("ragchat")

	queryDuration, err := meter.Float64Histogram(
		"ragchat_query_duration_seconds",
		metric.WithDescription("End-to-end query duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query duration histogram: %w", err)
	}

	queries, err := meter.Int64Counter(
		"ragchat_queries_total",
		metric.WithDescription("Total queries answered"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create queries counter: %w", err)
	}

	queryErrors, err := meter.Int64Counter(
		"ragchat_query_errors_total",
		metric.WithDescription("Total failed queries"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query errors counter: %w", err)
	}

	toolRounds, err := meter.Int64Counter(
		"ragchat_tool_rounds_total",
		metric.WithDescription("Total tool-use rounds consumed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool rounds counter: %w", err)
	}

	toolDuration, err := meter.Float64Histogram(
		"ragchat_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	toolCalls, err := meter.Int64Counter(
		"ragchat_tool_calls_total",
		metric.WithDescription("Total tool executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	toolErrors, err := meter.Int64Counter(
		"ragchat_tool_errors_total",
		metric.WithDescription("Total failed tool executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	httpDuration, err := meter.Float64Histogram(
		"ragchat_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	httpRequests, err := meter.Int64Counter(
		"ragchat_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	return &PrometheusMetrics{
		queryDuration: queryDuration,
		queriesTotal:  queries,
		queryErrors:   queryErrors,
		toolRounds:    toolRounds,
		toolDuration:  toolDuration,
		toolCalls:     toolCalls,
		toolErrors:    toolErrors,
		httpDuration:  httpDuration,
		httpRequests:  httpRequests,
	}, nil
}
