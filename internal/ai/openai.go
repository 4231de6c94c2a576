package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyInput is returned when an embedding is requested for empty text.
	ErrEmptyInput = errors.New("ai: input text is empty")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("ai: no embedding in response")
	// ErrNoChoicesInResponse is returned when a chat completion returns no choices.
	ErrNoChoicesInResponse = errors.New("ai: no choices in response")
)

const (
	// maxEmbeddingTextLen bounds the text submitted per embedding input.
	maxEmbeddingTextLen = 2000

	defaultCallTimeout = 15 * time.Second
	maxRetries         = 2

	rerankTemperature = 0.2
	rerankMaxTokens   = 800
)

// OpenAIClient implements EmbeddingClient and ChatClient against an
// OpenAI-compatible API.
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
	callTimeout    time.Duration
}

var (
	_ EmbeddingClient = (*OpenAIClient)(nil)
	_ ChatClient      = (*OpenAIClient)(nil)
)

// OpenAIClientParams configures OpenAIClient. BaseURL is optional (empty uses
// the public OpenAI endpoint).
type OpenAIClientParams struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	CallTimeout    time.Duration
}

// NewOpenAIClient creates a client for embeddings and chat completions.
// Panics if the API key is empty; the capability flag is checked upstream.
func NewOpenAIClient(p OpenAIClientParams) *OpenAIClient {
	if p.APIKey == "" {
		panic("ai: OpenAI API key cannot be empty")
	}

	cfg := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}

	timeout := p.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		embeddingModel: p.EmbeddingModel,
		chatModel:      p.ChatModel,
		callTimeout:    timeout,
	}
}

// Model returns the embedding model name.
func (c *OpenAIClient) Model() string {
	return c.embeddingModel
}

// CreateEmbedding generates an embedding vector for the given text.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

// CreateEmbeddings generates embedding vectors for multiple texts in one API
// call. Each text is truncated to 2000 characters before submission. The call
// is bounded by the client timeout and retried up to 2 times on failure.
func (c *OpenAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	inputs := make([]string, len(texts))

	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: index %d", ErrEmptyInput, i)
		}

		inputs[i] = truncate(t, maxEmbeddingTextLen)
	}

	var resp openai.EmbeddingResponse

	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var callErr error

		resp, callErr = c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: inputs,
			Model: openai.EmbeddingModel(c.embeddingModel),
		})

		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrNoEmbeddingInResponse, len(resp.Data), len(inputs))
	}

	// Response order is not guaranteed; place by index.
	vecs := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrNoEmbeddingInResponse, d.Index)
		}

		vecs[d.Index] = d.Embedding
	}

	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("%w: missing index %d", ErrNoEmbeddingInResponse, i)
		}
	}

	return vecs, nil
}

// Complete performs one chat completion with the reranker settings
// (temperature 0.2, token cap 800) and returns the assistant content.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var resp openai.ChatCompletionResponse

	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var callErr error

		resp, callErr = c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Temperature: rerankTemperature,
			MaxTokens:   rerankMaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})

		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesInResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// withRetry runs call with a per-attempt timeout, retrying up to maxRetries
// additional attempts. Context cancellation stops the loop.
func (c *OpenAIClient) withRetry(ctx context.Context, call func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		err := call(callCtx)

		cancel()

		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

// truncate bounds s to maxRunes characters. Counting runes, not bytes, keeps
// the budget honest for Cyrillic text and never splits a multi-byte rune.
func truncate(s string, maxRunes int) string {
	if len(s) <= maxRunes {
		return s
	}

	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)

	return string(runes[:maxRunes])
}
