// Package ai wraps the OpenAI-compatible APIs the engine depends on: text
// embeddings and chat completions for the relevance reranker.
package ai

import "context"

// EmbeddingClient generates embedding vectors for text.
type EmbeddingClient interface {
	// CreateEmbedding generates an embedding vector for the given text.
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)

	// CreateEmbeddings generates embedding vectors for multiple texts in one
	// API call. More efficient than calling CreateEmbedding per text.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model name vectors are tagged with.
	Model() string
}

// ChatClient performs one chat completion and returns the assistant message content.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
