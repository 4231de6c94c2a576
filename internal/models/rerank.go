package models

// RerankResult is the per-candidate verdict of the relevance reranker.
// Transient: produced per request, never persisted.
type RerankResult struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	IsAd       bool    `json:"is_ad,omitempty"`
	IsOfftopic bool    `json:"is_offtopic,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// RerankMode describes how a rerank invocation was scored.
type RerankMode string

// Rerank modes: "llm" when every batch was scored by the model, "heuristic"
// when no model was available at all, "mixed" when at least one batch fell
// back while others succeeded.
const (
	RerankModeLLM       RerankMode = "llm"
	RerankModeHeuristic RerankMode = "heuristic"
	RerankModeMixed     RerankMode = "mixed"
)
