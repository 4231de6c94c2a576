package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records inbound HTTP request count and duration.
type HTTPMetrics interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
}

// httpMetrics implements HTTPMetrics.
type httpMetrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewHTTPMetrics creates HTTPMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewHTTPMetrics(meter metric.Meter) (HTTPMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	requests, err := meter.Int64Counter(
		MetricNameHTTPRequests,
		metric.WithDescription("Total HTTP requests by method, route, and status class."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		MetricNameHTTPRequestDuration,
		metric.WithDescription("HTTP request duration in seconds by method and route."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http request duration histogram: %w", err)
	}

	return &httpMetrics{requests: requests, requestDuration: requestDuration}, nil
}

func (m *httpMetrics) RecordRequest(
	ctx context.Context, method, route, statusClass string, duration time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
		attribute.String(AttrStatus, statusClass),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
	))
}
