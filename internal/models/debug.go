package models

// ProviderDebug records one provider's fetch outcome within a request.
type ProviderDebug struct {
	Cached     bool   `json:"cached"`
	Count      int    `json:"count"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// IngestDebug records catalog ingestion counts.
type IngestDebug struct {
	Upserted int `json:"upserted"`
	Updated  int `json:"updated"`
}

// EmbeddingsDebug records embedding-store activity: how many vectors had to be
// computed (misses) and which model produced them.
type EmbeddingsDebug struct {
	InterestMisses int    `json:"interest_misses"`
	ContentMisses  int    `json:"content_misses"`
	Model          string `json:"model,omitempty"`
}

// RetrievalDebug records semantic retrieval stats.
type RetrievalDebug struct {
	Candidates int   `json:"candidates"`
	DurationMS int64 `json:"duration_ms"`
}

// RerankDebug records reranker stats for one invocation.
type RerankDebug struct {
	Mode          RerankMode `json:"mode"`
	Batches       int        `json:"batches"`
	FailedBatches int        `json:"failed_batches"`
	AdsFiltered   int        `json:"ads_filtered"`
	OfftopicCount int        `json:"offtopic_filtered"`
}

// DiversityDebug records what the diversity selector dropped.
type DiversityDebug struct {
	DroppedByProvider int `json:"dropped_by_provider"`
	DroppedByChannel  int `json:"dropped_by_channel"`
}

// FallbackDebug is set when the engine took the legacy merge path.
type FallbackDebug struct {
	Reason string `json:"reason"`
}

// EngineDebug is the per-request trace returned alongside results. It exists
// only for the duration of one request and is surfaced to operators so
// degraded operation stays observable; it is never persisted.
type EngineDebug struct {
	Providers map[Provider]ProviderDebug `json:"providers,omitempty"`
	Ingest    *IngestDebug               `json:"ingest,omitempty"`
	Embed     *EmbeddingsDebug           `json:"embeddings,omitempty"`
	Retrieval *RetrievalDebug            `json:"retrieval,omitempty"`
	LLM       *RerankDebug               `json:"llm,omitempty"`
	Diversity *DiversityDebug            `json:"diversity,omitempty"`
	Fallback  *FallbackDebug             `json:"fallback,omitempty"`
}

// SetProvider records a provider's fetch outcome, allocating the map on first use.
func (d *EngineDebug) SetProvider(p Provider, pd ProviderDebug) {
	if d.Providers == nil {
		d.Providers = make(map[Provider]ProviderDebug)
	}

	d.Providers[p] = pd
}
