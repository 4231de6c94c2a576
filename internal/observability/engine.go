package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics records recommendation pipeline metrics.
// Methods accept ctx for future exemplar support.
type EngineMetrics interface {
	RecordRequest(ctx context.Context, path string, duration time.Duration)
	RecordProviderFetch(ctx context.Context, provider string, outcome string)
	RecordRerankBatch(ctx context.Context, outcome string)
}

// engineMetrics implements EngineMetrics.
type engineMetrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	providerFetches metric.Int64Counter
	rerankBatches   metric.Int64Counter
}

// NewEngineMetrics creates EngineMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEngineMetrics(meter metric.Meter) (EngineMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	requests, err := meter.Int64Counter(
		MetricNameEngineRequests,
		metric.WithDescription("Total engine requests. Label path: full (semantic pipeline) or fallback (legacy merge)."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		MetricNameEngineRequestDuration,
		metric.WithDescription("Engine request duration in seconds by path."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine request duration histogram: %w", err)
	}

	providerFetches, err := meter.Int64Counter(
		MetricNameProviderFetches,
		metric.WithDescription("Total provider fetch cycles. Labels provider and outcome: cached, fetched, error."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create provider fetches counter: %w", err)
	}

	rerankBatches, err := meter.Int64Counter(
		MetricNameRerankBatches,
		metric.WithDescription("Total reranker batches. Label outcome: llm, heuristic."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rerank batches counter: %w", err)
	}

	return &engineMetrics{
		requests:        requests,
		requestDuration: requestDuration,
		providerFetches: providerFetches,
		rerankBatches:   rerankBatches,
	}, nil
}

func normalizePath(path string) string {
	if path == PathFull || path == PathFallback {
		return path
	}

	return "unknown"
}

func (m *engineMetrics) RecordRequest(ctx context.Context, path string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrPath, normalizePath(path)))
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *engineMetrics) RecordProviderFetch(ctx context.Context, provider string, outcome string) {
	m.providerFetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrOutcome, outcome),
	))
}

func (m *engineMetrics) RecordRerankBatch(ctx context.Context, outcome string) {
	m.rerankBatches.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}
