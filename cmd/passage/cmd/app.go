package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/passagekit/passage/internal/chunk"
	"github.com/passagekit/passage/internal/config"
	"github.com/passagekit/passage/internal/embed"
	"github.com/passagekit/passage/internal/ingest"
	"github.com/passagekit/passage/internal/search"
	"github.com/passagekit/passage/internal/store"
	"github.com/passagekit/passage/internal/telemetry"
)

// app bundles the wired components a command needs. Lifecycle is owned
// by the command: construct, use, Close.
type app struct {
	cfg       *config.Config
	backend   *store.LocalBackend
	embedder  embed.Embedder
	retriever *search.Retriever
	pipeline  *ingest.Pipeline
	metrics   *telemetry.QueryMetrics
}

// newApp loads configuration from the working directory and wires the
// full stack against the local index.
func newApp(ctx context.Context) (*app, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.New(ctx, embed.Options{
		Provider:   cfg.Embeddings.Provider,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		CacheSize:  cfg.Embeddings.CacheSize,
		OllamaHost: cfg.Embeddings.OllamaHost,
	})
	if err != nil {
		return nil, err
	}

	backend, err := store.OpenBackend(ctx, store.BackendOptions{
		DataDir:    cfg.Paths.DataDir,
		Dimensions: embedder.Dimensions(),
		ModelName:  embedder.ModelName(),
	})
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	metrics := telemetry.NewQueryMetrics()
	retriever, err := search.NewRetriever(backend, embedder, metrics, search.RetrieverConfig{
		TopK:    cfg.Search.TopK,
		MaxTopK: cfg.Search.MaxTopK,
		Alpha:   cfg.Search.Alpha,
	})
	if err != nil {
		_ = backend.Close()
		_ = embedder.Close()
		return nil, err
	}

	chunker, err := chunk.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		_ = backend.Close()
		_ = embedder.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		backend:   backend,
		embedder:  embedder,
		retriever: retriever,
		pipeline:  ingest.NewPipeline(backend, embedder, chunker, cfg.Paths.DataDir),
		metrics:   metrics,
	}, nil
}

// Close persists and releases everything, reporting the first error.
func (a *app) Close() error {
	saveErr := a.backend.Save()
	backendErr := a.backend.Close()
	embedErr := a.embedder.Close()

	for _, err := range []error{saveErr, backendErr, embedErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// requireIndex fails with a hint when no index exists yet.
func requireIndex(cfg *config.Config) error {
	if _, err := os.Stat(cfg.DataPath("metadata.db")); os.IsNotExist(err) {
		return fmt.Errorf("no index found at %s, run 'passage ingest' first", cfg.Paths.DataDir)
	}
	return nil
}
