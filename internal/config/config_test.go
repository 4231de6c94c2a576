package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "parses integer from environment",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			shouldSet:    true,
			want:         42,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_MISSING",
			defaultValue: 10,
			shouldSet:    false,
			want:         10,
		},
		{
			name:         "returns default on parse failure",
			key:          "TEST_INT_BAD",
			defaultValue: 10,
			envValue:     "not-a-number",
			shouldSet:    true,
			want:         10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		shouldSet    bool
		want         bool
	}{
		{
			name:         "parses false from environment",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			shouldSet:    true,
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_MISSING",
			defaultValue: true,
			shouldSet:    false,
			want:         true,
		},
		{
			name:         "returns default on parse failure",
			key:          "TEST_BOOL_BAD",
			defaultValue: true,
			envValue:     "maybe",
			shouldSet:    true,
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("requires API_KEY", func(t *testing.T) {
		t.Setenv("API_KEY", "")

		if _, err := Load(); err == nil {
			t.Fatal("Load() expected error when API_KEY is missing")
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}

		if cfg.Port != "8080" {
			t.Errorf("Port = %v, want 8080", cfg.Port)
		}

		if cfg.EmbeddingModel != "text-embedding-3-small" {
			t.Errorf("EmbeddingModel = %v, want text-embedding-3-small", cfg.EmbeddingModel)
		}

		if cfg.ProviderFetchConcurrency != 3 {
			t.Errorf("ProviderFetchConcurrency = %v, want 3", cfg.ProviderFetchConcurrency)
		}

		if !cfg.MetricsEnabled {
			t.Error("MetricsEnabled = false, want true by default")
		}
	})

	t.Run("rejects non-positive fetch concurrency", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("PROVIDER_FETCH_CONCURRENCY", "0")

		if _, err := Load(); err == nil {
			t.Fatal("Load() expected error for zero concurrency")
		}
	})

	t.Run("capability flags follow credentials", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("DATABASE_URL", "postgres://localhost/engine")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}

		if !cfg.DatabaseEnabled() {
			t.Error("DatabaseEnabled() = false, want true")
		}

		if !cfg.EmbeddingsEnabled() {
			t.Error("EmbeddingsEnabled() = false, want true")
		}

		if !cfg.RerankEnabled() {
			t.Error("RerankEnabled() = false, want true")
		}
	})
}
