package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameCacheHits             = "engine_cache_hits_total"
	MetricNameCacheMisses           = "engine_cache_misses_total"
	MetricNameEngineRequests        = "engine_requests_total"
	MetricNameEngineRequestDuration = "engine_request_duration_seconds"
	MetricNameProviderFetches       = "engine_provider_fetches_total"
	MetricNameRerankBatches         = "engine_rerank_batches_total"
	MetricNameEmbeddingsComputed    = "engine_embeddings_computed_total"
	MetricNameEmbeddingJobOutcomes  = "engine_embedding_job_outcomes_total"
	MetricNameHTTPRequests          = "engine_http_requests_total"
	MetricNameHTTPRequestDuration   = "engine_http_request_duration_seconds"
)

// Attribute keys.
const (
	AttrCache    = "cache"
	AttrPath     = "path"
	AttrProvider = "provider"
	AttrOutcome  = "outcome"
	AttrOwner    = "owner"
	AttrStatus   = "status"
	AttrMethod   = "method"
	AttrRoute    = "route"
)

// Engine paths for engine_requests_total (bounded cardinality).
const (
	PathFull     = "full"
	PathFallback = "fallback"
)

// AllowedCacheNames for engine_cache_* metrics.
var AllowedCacheNames = map[string]bool{
	"content_cache":   true,
	"embedding_texts": true,
}

// NormalizeCacheName returns name if allowed, otherwise "unknown".
func NormalizeCacheName(name string) string {
	if AllowedCacheNames[name] {
		return name
	}

	return "unknown"
}
