package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/interestmap/engine/internal/ai"
	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/observability"
)

// rerankBatchSize is how many candidates go into one LLM call. Batches fail
// independently: a bad batch gets heuristic scores without touching the rest.
const rerankBatchSize = 10

const rerankSystemPrompt = `You score content recommendations for relevance to a user's interests.
Respond with a bare JSON array only - no markdown, no code fences, no prose.
Each element: {"id": string, "score": number 0..1, "is_ad": bool, "is_offtopic": bool, "reason": string}.
score is relevance to the interests. is_ad marks advertising, promotions, webinars, sales.
is_offtopic marks content unrelated to every listed interest. reason is one short sentence.`

// RerankCandidate is the display payload the reranker judges a candidate by.
type RerankCandidate struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
	URL          string `json:"-"`
}

// Reranker scores candidate relevance and flags advertising/off-topic content
// with an LLM, falling back to heuristic scoring per batch.
type Reranker struct {
	chat    ai.ChatClient
	metrics observability.EngineMetrics
	logger  *slog.Logger
}

// RerankerParams configures Reranker. Chat may be nil: every batch is scored
// heuristically and the debug mode is "heuristic". Metrics may be nil.
type RerankerParams struct {
	Chat    ai.ChatClient
	Metrics observability.EngineMetrics
	Logger  *slog.Logger
}

// NewReranker creates a Reranker.
func NewReranker(p RerankerParams) *Reranker {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reranker{chat: p.Chat, metrics: p.Metrics, logger: logger}
}

// Rerank scores candidates in batches of 10. Each batch independently falls
// over to the heuristic on LLM or parse failure. The debug mode is "llm" when
// every batch succeeded, "heuristic" when no LLM is configured, and "mixed"
// when some batches fell back.
func (r *Reranker) Rerank(
	ctx context.Context, interestTitles []string, candidates []RerankCandidate,
) (map[string]models.RerankResult, models.RerankDebug) {
	results := make(map[string]models.RerankResult, len(candidates))
	debug := models.RerankDebug{}

	if len(candidates) == 0 {
		debug.Mode = models.RerankModeLLM
		if r.chat == nil {
			debug.Mode = models.RerankModeHeuristic
		}

		return results, debug
	}

	if r.chat == nil {
		for _, candidate := range candidates {
			results[candidate.ID] = HeuristicScore(interestTitles, candidate)
		}

		debug.Mode = models.RerankModeHeuristic
		debug.Batches = (len(candidates) + rerankBatchSize - 1) / rerankBatchSize

		return results, debug
	}

	for start := 0; start < len(candidates); start += rerankBatchSize {
		end := start + rerankBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		batch := candidates[start:end]
		debug.Batches++

		verdicts, err := r.rerankBatch(ctx, interestTitles, batch)
		if err != nil {
			r.logger.Warn("rerank batch failed, using heuristic",
				"batch", debug.Batches, "size", len(batch), "error", err)
			debug.FailedBatches++

			if r.metrics != nil {
				r.metrics.RecordRerankBatch(ctx, "heuristic")
			}

			for _, candidate := range batch {
				results[candidate.ID] = HeuristicScore(interestTitles, candidate)
			}

			continue
		}

		if r.metrics != nil {
			r.metrics.RecordRerankBatch(ctx, "llm")
		}

		for _, candidate := range batch {
			verdict, ok := verdicts[candidate.ID]
			if !ok {
				// The model skipped this id; score it alone rather than
				// discarding the whole batch.
				results[candidate.ID] = HeuristicScore(interestTitles, candidate)

				continue
			}

			results[candidate.ID] = verdict
		}
	}

	switch {
	case debug.FailedBatches == 0:
		debug.Mode = models.RerankModeLLM
	default:
		debug.Mode = models.RerankModeMixed
	}

	return results, debug
}

// rerankVerdict is the wire shape of one element of the model's JSON array.
type rerankVerdict struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	IsAd       bool    `json:"is_ad"`
	IsOfftopic bool    `json:"is_offtopic"`
	Reason     string  `json:"reason"`
}

// rerankBatch sends one batch to the LLM and parses the verdicts.
func (r *Reranker) rerankBatch(
	ctx context.Context, interestTitles []string, batch []RerankCandidate,
) (map[string]models.RerankResult, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	userPrompt := fmt.Sprintf("User interests: %s.\nCandidates:\n%s",
		strings.Join(interestTitles, ", "), payload)

	raw, err := r.chat.Complete(ctx, rerankSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	var verdicts []rerankVerdict
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &verdicts); err != nil {
		return nil, fmt.Errorf("parse verdicts: %w", err)
	}

	if len(verdicts) == 0 {
		return nil, fmt.Errorf("parse verdicts: empty array")
	}

	results := make(map[string]models.RerankResult, len(verdicts))

	for _, v := range verdicts {
		if v.ID == "" {
			continue
		}

		score := v.Score
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}

		results[v.ID] = models.RerankResult{
			ID:         v.ID,
			Score:      score,
			IsAd:       v.IsAd,
			IsOfftopic: v.IsOfftopic,
			Reason:     v.Reason,
		}
	}

	return results, nil
}

// StripCodeFences removes a wrapping Markdown code fence (with or without a
// language tag) from the model response, which some models emit despite the
// bare-JSON instruction.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")

	// Drop the language tag up to the first newline ("json\n...").
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "[{") {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
