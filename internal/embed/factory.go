package embed

import (
	"context"
	"log/slog"

	apperr "github.com/passagekit/passage/internal/errors"
)

// Options selects and configures an embedding provider.
type Options struct {
	// Provider is "ollama" or "static".
	Provider   string
	Model      string
	Dimensions int
	BatchSize  int
	CacheSize  int
	OllamaHost string
}

// New builds the configured embedder wrapped in the LRU cache layer.
// When Ollama is selected but unreachable, it degrades to the static
// embedder with a warning rather than failing.
func New(ctx context.Context, opts Options) (Embedder, error) {
	var inner Embedder
	switch opts.Provider {
	case "", "ollama":
		ollama := NewOllamaEmbedder(OllamaConfig{
			Host:       opts.OllamaHost,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			BatchSize:  opts.BatchSize,
		})
		if !ollama.Available(ctx) {
			slog.Warn("ollama is unreachable, falling back to static embeddings",
				"host", opts.OllamaHost)
			_ = ollama.Close()
			inner = NewStaticEmbedder()
		} else {
			inner = ollama
		}
	case "static":
		inner = NewStaticEmbedder()
	default:
		return nil, apperr.ConfigError(
			"unknown embeddings provider "+opts.Provider, nil)
	}

	return NewCachedEmbedder(inner, opts.CacheSize), nil
}
