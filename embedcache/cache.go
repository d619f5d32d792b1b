// Package embedcache caches embedding vectors by exact input text so the
// same artifact content is never sent to an embedder twice, and dedupes
// concurrent requests for the same text into a single embedder call
// (spec §4.4, §9 DESIGN NOTES).
package embedcache

import (
	"context"
	"sync"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	"github.com/nevamind-ai/memu-go/embedder"
)

// Cache wraps an embedder.Embedder with an exact-text cache. Concurrent
// calls for the same text share one embedder.Embed call via singleflight;
// the result is cached for subsequent calls.
//
// Entries are never invalidated: a cached embedding for a given text
// stays valid for the process lifetime, since embedding is a pure
// function of text for a fixed model. Callers that rewrite an artifact's
// content naturally get a cache miss on the new text.
type Cache struct {
	inner embedder.Embedder
	group singleflight.Group

	// Used when the cache is unbounded (bounded == nil).
	mu       sync.RWMutex
	unbounded map[string][]float32

	bounded *ristretto.Cache
}

// New creates an unbounded Cache: every distinct text ever embedded stays
// cached for the process lifetime. Suitable for small to medium corpora.
func New(inner embedder.Embedder) *Cache {
	return &Cache{inner: inner, unbounded: make(map[string][]float32)}
}

// NewBounded creates a Cache backed by a ristretto admission-policy cache
// holding at most maxCost bytes of estimated cache footprint, evicting
// least-valuable entries once full. Use this for large corpora where an
// unbounded cache would grow without limit.
func NewBounded(inner embedder.Embedder, maxCost int64) (*Cache, error) {
	const op = "embedcache.NewBounded"

	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10, // ~10x entries tracked for admission stats, per ristretto's sizing guidance
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, bounded: rc}, nil
}

// Embed returns the cached embedding for text if present, otherwise
// computes it (deduping concurrent calls for the same text) and caches
// the result before returning it.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.get(text); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(text, func() (interface{}, error) {
		if v, ok := c.get(text); ok {
			return v, nil
		}
		vec, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.put(text, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// Dimensions delegates to the wrapped embedder.
func (c *Cache) Dimensions() int {
	return c.inner.Dimensions()
}

func (c *Cache) get(text string) ([]float32, bool) {
	if c.bounded != nil {
		v, ok := c.bounded.Get(text)
		if !ok {
			return nil, false
		}
		return v.([]float32), true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.unbounded[text]
	return v, ok
}

func (c *Cache) put(text string, vec []float32) {
	if c.bounded != nil {
		c.bounded.Set(text, vec, int64(len(vec)*4)) // cost in bytes, float32 = 4 bytes
		c.bounded.Wait()
		return
	}

	c.mu.Lock()
	c.unbounded[text] = vec
	c.mu.Unlock()
}
