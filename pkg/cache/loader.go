// Package cache provides a generic bounded loader cache: LRU storage combined
// with singleflight so concurrent misses for the same key share one load.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache caches values by key and loads them on miss via a callback.
// Concurrent misses for the same key are coalesced with singleflight: one
// load runs, the rest wait for and share its result. Keys are serialized to
// strings via keyFn for both the LRU and the flight group.
type LoaderCache[K comparable, V any] struct {
	lru   *lru.Cache[string, V]
	group singleflight.Group
	keyFn func(K) string
}

// New creates a loader cache holding at most maxEntries values.
func New[K comparable, V any](maxEntries int, keyFn func(K) string) (*LoaderCache[K, V], error) {
	store, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}

	return &LoaderCache[K, V]{lru: store, keyFn: keyFn}, nil
}

// Get returns the cached value for key, loading and caching it on miss.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	v, _, err := c.GetWithStats(ctx, key, load)

	return v, err
}

// GetWithStats is Get plus a hit/miss flag so callers can record cache metrics
// without pushing metrics into this package. Failed loads are not cached.
func (c *LoaderCache[K, V]) GetWithStats(
	ctx context.Context, key K, load func(context.Context, K) (V, error),
) (V, bool, error) {
	keyStr := c.keyFn(key)
	if v, ok := c.lru.Get(keyStr); ok {
		return v, true, nil
	}

	val, err, _ := c.group.Do(keyStr, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			return zero[V](), loadErr
		}

		c.lru.Add(keyStr, loaded)

		return loaded, nil
	})
	if err != nil {
		return zero[V](), false, err
	}

	return val.(V), false, nil
}

// Peek returns the cached value for key without loading on miss. Callers that
// batch their loads use Peek/Add instead of Get.
func (c *LoaderCache[K, V]) Peek(key K) (V, bool) {
	return c.lru.Get(c.keyFn(key))
}

// Add stores a value for key, evicting the least recently used entry if full.
func (c *LoaderCache[K, V]) Add(key K, value V) {
	c.lru.Add(c.keyFn(key), value)
}

// Invalidate removes the entry for key, if present.
func (c *LoaderCache[K, V]) Invalidate(key K) {
	c.lru.Remove(c.keyFn(key))
}

// InvalidateAll removes every entry.
func (c *LoaderCache[K, V]) InvalidateAll() {
	c.lru.Purge()
}

// Len returns the number of cached entries.
func (c *LoaderCache[K, V]) Len() int {
	return c.lru.Len()
}

func zero[V any]() (z V) { return z }
