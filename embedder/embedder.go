// Package embedder defines the contract for turning artifact text into
// vectors for semantic search (spec §4.4). Concrete implementations live
// in subpackages: embedder/mock (deterministic, no external model) and
// embedder/onnx (a local ONNX sentence-transformer, build-tag gated).
package embedder

import "context"

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
