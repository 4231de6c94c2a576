package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records embedding store and worker metrics.
type EmbeddingMetrics interface {
	RecordComputed(ctx context.Context, owner string, count int64)
	RecordJobOutcome(ctx context.Context, status string)
}

// embeddingMetrics implements EmbeddingMetrics.
type embeddingMetrics struct {
	computed    metric.Int64Counter
	jobOutcomes metric.Int64Counter
}

// NewEmbeddingMetrics creates EmbeddingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	computed, err := meter.Int64Counter(
		MetricNameEmbeddingsComputed,
		metric.WithDescription("Total embedding vectors computed and persisted. Label owner: interest, content."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embeddings computed counter: %w", err)
	}

	jobOutcomes, err := meter.Int64Counter(
		MetricNameEmbeddingJobOutcomes,
		metric.WithDescription("Total embedding job outcomes. Label status: completed, skipped, failed."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding job outcomes counter: %w", err)
	}

	return &embeddingMetrics{computed: computed, jobOutcomes: jobOutcomes}, nil
}

func (m *embeddingMetrics) RecordComputed(ctx context.Context, owner string, count int64) {
	m.computed.Add(ctx, count, metric.WithAttributes(attribute.String(AttrOwner, owner)))
}

func (m *embeddingMetrics) RecordJobOutcome(ctx context.Context, status string) {
	m.jobOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}
