package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Metrics bundles the engine's metric recorders. Any field may be nil when
// metrics are disabled; callers guard with nil checks.
type Metrics struct {
	Cache     CacheMetrics
	Engine    EngineMetrics
	Embedding EmbeddingMetrics
	HTTP      HTTPMetrics
}

// NewMeterProvider creates a MeterProvider backed by the Prometheus exporter
// (scraped via promhttp on /metrics). Returns (nil, nil) when disabled.
func NewMeterProvider(enabled bool) (*sdkmetric.MeterProvider, error) {
	if !enabled {
		//nolint:nilnil // intentional: metrics disabled, caller checks for nil
		return nil, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("interestmap-engine"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("merge resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	return provider, nil
}

// NewMetrics builds all metric recorders from the provider. A nil provider
// yields a Metrics with all-nil recorders (metrics disabled).
func NewMetrics(provider *sdkmetric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		return &Metrics{}, nil
	}

	meter := provider.Meter("github.com/interestmap/engine")

	cacheMetrics, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	engineMetrics, err := NewEngineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("engine metrics: %w", err)
	}

	embeddingMetrics, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	return &Metrics{
		Cache:     cacheMetrics,
		Engine:    engineMetrics,
		Embedding: embeddingMetrics,
		HTTP:      httpMetrics,
	}, nil
}
