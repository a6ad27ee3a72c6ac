// Package embed turns text into dense vectors. The primary provider is
// Ollama's HTTP embedding API; a deterministic hash-based embedder
// serves as an offline fallback, and an LRU cache layer avoids
// re-embedding repeated queries.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the batch size for embedding requests.
	DefaultBatchSize = 32

	// MaxBatchSize caps batch size to bound request payloads.
	MaxBatchSize = 256

	// DefaultTimeout is the per-request embedding timeout. Generous
	// because a cold Ollama model load can take tens of seconds.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the retry budget for transient failures.
	DefaultMaxRetries = 3

	// DefaultDimensions is the all-minilm embedding dimension.
	DefaultDimensions = 384
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector scales v to unit length, returning a new slice.
// Zero vectors are returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
