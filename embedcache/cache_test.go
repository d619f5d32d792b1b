package embedcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

type countingEmbedder struct {
	calls int64
	dims  int
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	atomic.AddInt64(&c.calls, 1)
	vec := make([]float32, c.dims)
	for i := range vec {
		vec[i] = float32(len(text))
	}
	return vec, nil
}

func (c *countingEmbedder) Dimensions() int { return c.dims }

func TestEmbed_CachesByExactText(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cache := New(inner)
	ctx := context.Background()

	v1, err := cache.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	v2, err := cache.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if atomic.LoadInt64(&inner.calls) != 1 {
		t.Fatalf("expected exactly 1 underlying embed call, got %d", inner.calls)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected identical cached vectors")
		}
	}
}

func TestEmbed_DifferentTextMissesCache(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cache := New(inner)
	ctx := context.Background()

	_, _ = cache.Embed(ctx, "hello")
	_, _ = cache.Embed(ctx, "world")

	if atomic.LoadInt64(&inner.calls) != 2 {
		t.Fatalf("expected 2 underlying embed calls, got %d", inner.calls)
	}
}

func TestEmbed_ConcurrentCallsDedupViaSingleflight(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cache := New(inner)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Embed(ctx, "same text")
		}()
	}
	wg.Wait()

	if atomic.LoadInt64(&inner.calls) != 1 {
		t.Fatalf("expected concurrent calls for the same text to dedup to 1, got %d", inner.calls)
	}
}

func TestNewBounded_EmbedReturnsVector(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cache, err := NewBounded(inner, 1<<10)
	if err != nil {
		t.Fatalf("NewBounded: %v", err)
	}

	v, err := cache.Embed(context.Background(), "bounded text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 4 {
		t.Fatalf("expected 4-dim vector, got %d", len(v))
	}
}

func TestDimensions_DelegatesToInner(t *testing.T) {
	inner := &countingEmbedder{dims: 7}
	cache := New(inner)
	if cache.Dimensions() != 7 {
		t.Fatalf("expected 7, got %d", cache.Dimensions())
	}
}
