// Package service implements the recommendation pipeline: content caching,
// catalog ingestion, embedding storage, semantic retrieval, LLM reranking,
// diversity selection, and the engine orchestrator tying them together.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RequestHash returns the stable cache key for a provider request: sha256 hex
// over the canonical JSON form of input. Canonicalization sorts object keys at
// every depth and preserves array order, so two requests with the same field
// values hash identically regardless of field ordering.
func RequestHash(input any) (string, error) {
	canonical, err := canonicalJSON(input)
	if err != nil {
		return "", fmt.Errorf("canonicalize hash input: %w", err)
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON renders input as JSON with sorted object keys. Marshalling
// through map[string]any relies on encoding/json emitting map keys in sorted
// order, which holds at every nesting depth.
func canonicalJSON(input any) ([]byte, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	canonical, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("remarshal: %w", err)
	}

	return canonical, nil
}
