package ai

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
)

// MockEmbeddingClient implements EmbeddingClient for testing. It generates
// deterministic unit vectors from the input text hash, so equal texts always
// embed identically.
type MockEmbeddingClient struct {
	dimensions int
	model      string
}

var _ EmbeddingClient = (*MockEmbeddingClient)(nil)

// NewMockEmbeddingClient creates a mock client. Default dimensions is 1536 to
// match text-embedding-3-small.
func NewMockEmbeddingClient() *MockEmbeddingClient {
	return &MockEmbeddingClient{dimensions: 1536, model: "mock-embedding"}
}

// NewMockEmbeddingClientWithDimensions creates a mock client with custom dimensions.
func NewMockEmbeddingClientWithDimensions(dimensions int) *MockEmbeddingClient {
	return &MockEmbeddingClient{dimensions: dimensions, model: "mock-embedding"}
}

// Model returns the mock model name.
func (c *MockEmbeddingClient) Model() string {
	return c.model
}

// CreateEmbedding generates a deterministic embedding based on the text hash.
func (c *MockEmbeddingClient) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	return c.deterministicEmbedding(text), nil
}

// CreateEmbeddings generates deterministic embeddings for multiple texts.
func (c *MockEmbeddingClient) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vecs := make([][]float32, len(texts))

	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("%w: index %d", ErrEmptyInput, i)
		}

		vecs[i] = c.deterministicEmbedding(text)
	}

	return vecs, nil
}

func (c *MockEmbeddingClient) deterministicEmbedding(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, c.dimensions)

	for i := range vec {
		b := hash[i%len(hash)]
		vec[i] = (float32(b) / 127.5) - 1.0
	}

	return normalize(vec)
}

// normalize scales a vector to unit length.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	magnitude := float32(math.Sqrt(sum))
	if magnitude == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / magnitude
	}

	return out
}

// MockChatClient implements ChatClient with a scripted response per call.
type MockChatClient struct {
	// CompleteFunc handles each call. Nil returns an empty response.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var _ ChatClient = (*MockChatClient)(nil)

// Complete delegates to CompleteFunc.
func (c *MockChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.CompleteFunc != nil {
		return c.CompleteFunc(ctx, systemPrompt, userPrompt)
	}

	return "", nil
}
