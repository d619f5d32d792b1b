// Package mock provides a deterministic embedder with no external model
// dependency, for tests and for running the core without an embedding
// service configured.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates a deterministic pseudo-embedding from the FNV hash of
// its input text, so the same text always embeds to the same vector and
// unrelated texts land far apart without needing a real model.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder. dimensions defaults to 384 (the size of
// all-MiniLM-L6-v2, matching what the ONNX embedder would produce) when
// dimensions <= 0.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Embedder{dimensions: dimensions}
}

// Embed returns a deterministic unit vector derived from text's FNV-64a
// hash via a linear congruential generator.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, e.dimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func normalize(vec []float32) []float32 {
	var sumSquares float32
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return vec
	}
	norm := float32(math.Sqrt(float64(sumSquares)))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
