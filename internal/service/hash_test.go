package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHash(t *testing.T) {
	t.Run("same input yields same hash", func(t *testing.T) {
		input := map[string]any{"interest_ids": []string{"go", "rust"}, "limit": 10}

		first, err := RequestHash(input)
		require.NoError(t, err)

		second, err := RequestHash(input)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, first, 64)
	})

	t.Run("key order does not change the hash", func(t *testing.T) {
		type a struct {
			Limit       int      `json:"limit"`
			InterestIDs []string `json:"interest_ids"`
		}

		type b struct {
			InterestIDs []string `json:"interest_ids"`
			Limit       int      `json:"limit"`
		}

		first, err := RequestHash(a{Limit: 5, InterestIDs: []string{"go"}})
		require.NoError(t, err)

		second, err := RequestHash(b{InterestIDs: []string{"go"}, Limit: 5})
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("different inputs yield different hashes", func(t *testing.T) {
		first, err := RequestHash(map[string]any{"q": "go"})
		require.NoError(t, err)

		second, err := RequestHash(map[string]any{"q": "rust"})
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("unmarshalable input returns error", func(t *testing.T) {
		_, err := RequestHash(func() {})
		assert.Error(t, err)
	})
}
