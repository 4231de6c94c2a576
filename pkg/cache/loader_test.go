package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStringCache(t *testing.T, size int) *LoaderCache[string, string] {
	t.Helper()

	c, err := New[string, string](size, func(k string) string { return k })
	require.NoError(t, err)

	return c
}

func TestLoaderCache_Get(t *testing.T) {
	t.Run("loads on miss and caches", func(t *testing.T) {
		c := newStringCache(t, 4)
		loads := 0

		load := func(_ context.Context, k string) (string, error) {
			loads++

			return "value-" + k, nil
		}

		v, err := c.Get(context.Background(), "a", load)
		require.NoError(t, err)
		assert.Equal(t, "value-a", v)

		v, err = c.Get(context.Background(), "a", load)
		require.NoError(t, err)
		assert.Equal(t, "value-a", v)
		assert.Equal(t, 1, loads)
	})

	t.Run("failed loads are not cached", func(t *testing.T) {
		c := newStringCache(t, 4)
		loads := 0

		failing := func(_ context.Context, _ string) (string, error) {
			loads++

			return "", errors.New("boom")
		}

		_, err := c.Get(context.Background(), "a", failing)
		require.Error(t, err)

		_, err = c.Get(context.Background(), "a", failing)
		require.Error(t, err)
		assert.Equal(t, 2, loads)
	})

	t.Run("reports hit and miss", func(t *testing.T) {
		c := newStringCache(t, 4)

		load := func(_ context.Context, k string) (string, error) { return k, nil }

		_, hit, err := c.GetWithStats(context.Background(), "a", load)
		require.NoError(t, err)
		assert.False(t, hit)

		_, hit, err = c.GetWithStats(context.Background(), "a", load)
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		c := newStringCache(t, 4)

		var loads atomic.Int32

		gate := make(chan struct{})
		load := func(_ context.Context, k string) (string, error) {
			loads.Add(1)
			<-gate

			return "v-" + k, nil
		}

		var wg sync.WaitGroup

		results := make([]string, 8)

		for i := range results {
			wg.Add(1)

			go func() {
				defer wg.Done()

				v, err := c.Get(context.Background(), "shared", load)
				assert.NoError(t, err)

				results[i] = v
			}()
		}

		close(gate)
		wg.Wait()

		assert.LessOrEqual(t, loads.Load(), int32(2))

		for _, v := range results {
			assert.Equal(t, "v-shared", v)
		}
	})
}

func TestLoaderCache_PeekAdd(t *testing.T) {
	c := newStringCache(t, 4)

	_, ok := c.Peek("a")
	assert.False(t, ok)

	c.Add("a", "va")

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, "va", v)
}

func TestLoaderCache_Eviction(t *testing.T) {
	c := newStringCache(t, 2)

	for i := 0; i < 5; i++ {
		c.Add(fmt.Sprintf("k%d", i), "v")
	}

	assert.Equal(t, 2, c.Len())

	_, ok := c.Peek("k0")
	assert.False(t, ok)

	_, ok = c.Peek("k4")
	assert.True(t, ok)
}

func TestLoaderCache_Invalidate(t *testing.T) {
	c := newStringCache(t, 4)
	c.Add("a", "va")
	c.Add("b", "vb")

	c.Invalidate("a")

	_, ok := c.Peek("a")
	assert.False(t, ok)

	_, ok = c.Peek("b")
	assert.True(t, ok)

	c.InvalidateAll()
	assert.Zero(t, c.Len())
}
