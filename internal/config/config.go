// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. Capability methods
// (DatabaseEnabled, EmbeddingsEnabled, RerankEnabled) are the single place
// configuration absence is checked; services receive the resulting flags at
// construction instead of re-reading the environment.
type Config struct {
	DatabaseURL string
	Port        string
	APIKey      string
	LogLevel    string

	// OpenAI-compatible API used for both embeddings and the chat reranker.
	OpenAIAPIKey  string
	OpenAIBaseURL string

	EmbeddingModel      string
	EmbeddingDimensions int
	RerankModel         string

	// Provider credentials/endpoints. A provider with no configuration
	// returns empty results rather than erroring.
	YouTubeAPIKey        string
	ArticlesFeedURL      string
	TelegramDirectoryURL string

	// Max provider fetches running concurrently within one request.
	ProviderFetchConcurrency int

	// Embedding job retries (River); default 3.
	EmbeddingJobMaxAttempts int

	MetricsEnabled bool
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool retrieves an environment variable as a bool or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// Load reads configuration from environment variables, loading a .env file
// first when one exists. API_KEY is required; everything else has a default
// or is an optional capability.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		return nil, errors.New("API_KEY environment variable is required but not set")
	}

	fetchConcurrency := getEnvAsInt("PROVIDER_FETCH_CONCURRENCY", 3)
	if fetchConcurrency <= 0 {
		return nil, errors.New("PROVIDER_FETCH_CONCURRENCY must be a positive integer")
	}

	embeddingJobMaxAttempts := getEnvAsInt("EMBEDDING_JOB_MAX_ATTEMPTS", 3)
	if embeddingJobMaxAttempts <= 0 {
		return nil, errors.New("EMBEDDING_JOB_MAX_ATTEMPTS must be a positive integer")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        getEnv("PORT", "8080"),
		APIKey:      apiKey,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
		RerankModel:         getEnv("RERANK_MODEL", "gpt-4o-mini"),

		YouTubeAPIKey:        os.Getenv("YOUTUBE_API_KEY"),
		ArticlesFeedURL:      os.Getenv("ARTICLES_FEED_URL"),
		TelegramDirectoryURL: os.Getenv("TELEGRAM_DIRECTORY_URL"),

		ProviderFetchConcurrency: fetchConcurrency,
		EmbeddingJobMaxAttempts:  embeddingJobMaxAttempts,

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if cfg.EmbeddingDimensions <= 0 {
		return nil, errors.New("EMBEDDING_DIMENSIONS must be a positive integer")
	}

	return cfg, nil
}

// DatabaseEnabled reports whether a durable store is configured. Without it
// the engine serves only the legacy provider-merge path.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != ""
}

// EmbeddingsEnabled reports whether the embedding provider has credentials.
func (c *Config) EmbeddingsEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// RerankEnabled reports whether the LLM reranker has credentials. Shares the
// OpenAI credential; a separate flag keeps call sites honest about which
// capability they depend on.
func (c *Config) RerankEnabled() bool {
	return c.OpenAIAPIKey != ""
}
