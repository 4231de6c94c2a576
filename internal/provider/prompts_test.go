package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interestmap/engine/internal/models"
)

func TestPromptsAdapter_Fetch(t *testing.T) {
	adapter := NewPromptsAdapter()

	req := Request{
		InterestIDs: []string{"go"},
		Interests:   []models.Interest{{ID: "go", Title: "Go"}},
	}

	t.Run("renders every template per interest", func(t *testing.T) {
		items, err := adapter.Fetch(context.Background(), req)
		require.NoError(t, err)

		assert.Len(t, items, len(defaultPromptTemplates))

		for _, item := range items {
			assert.Equal(t, models.ProviderPrompts, item.Provider)
			assert.Equal(t, models.ContentTypePrompt, item.Type)
			assert.Contains(t, item.Title, "Go")
			assert.Equal(t, []string{"go"}, item.InterestIDs)
		}
	})

	t.Run("item ids are stable across fetches", func(t *testing.T) {
		first, err := adapter.Fetch(context.Background(), req)
		require.NoError(t, err)

		second, err := adapter.Fetch(context.Background(), req)
		require.NoError(t, err)

		require.Len(t, second, len(first))

		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("different interests get different ids", func(t *testing.T) {
		other := Request{
			InterestIDs: []string{"rust"},
			Interests:   []models.Interest{{ID: "rust", Title: "Rust"}},
		}

		goItems, err := adapter.Fetch(context.Background(), req)
		require.NoError(t, err)

		rustItems, err := adapter.Fetch(context.Background(), other)
		require.NoError(t, err)

		assert.NotEqual(t, goItems[0].ID, rustItems[0].ID)
	})
}

func TestPromptsAdapter_HashInput(t *testing.T) {
	adapter := NewPromptsAdapter()

	t.Run("cache key ignores locale, limit, and mode", func(t *testing.T) {
		a := adapter.HashInput(Request{InterestIDs: []string{"go"}, Locale: "ru", Limit: 5, Mode: "all"})
		b := adapter.HashInput(Request{InterestIDs: []string{"go"}, Locale: "en", Limit: 20, Mode: "selected"})

		assert.Equal(t, a, b)
	})

	t.Run("cache key tracks interest ids", func(t *testing.T) {
		a := adapter.HashInput(Request{InterestIDs: []string{"go"}})
		b := adapter.HashInput(Request{InterestIDs: []string{"rust"}})

		assert.NotEqual(t, a, b)
	})
}

func TestBooksAdapter_HashInput(t *testing.T) {
	adapter := NewBooksAdapter(nil)

	t.Run("cache key is the interest titles only", func(t *testing.T) {
		a := adapter.HashInput(Request{
			Interests: []models.Interest{{ID: "go", Title: "Go"}},
			Locale:    "ru",
			Limit:     5,
		})
		b := adapter.HashInput(Request{
			Interests: []models.Interest{{ID: "golang", Title: "Go"}},
			Locale:    "en",
			Limit:     10,
		})

		assert.Equal(t, a, b)
	})
}
