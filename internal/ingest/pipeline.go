package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/passagekit/passage/internal/chunk"
	"github.com/passagekit/passage/internal/embed"
	apperr "github.com/passagekit/passage/internal/errors"
	"github.com/passagekit/passage/internal/store"
)

// lockFileName guards the data directory against concurrent ingests.
const lockFileName = "ingest.lock"

// Stats summarizes one ingest run.
type Stats struct {
	Documents     int
	Chunks        int
	IndexedChunks int
	FailedChunks  int
	Errors        []error
	Duration      time.Duration
}

// Pipeline runs documents through chunk, embed, and index stages.
type Pipeline struct {
	backend  store.SearchBackend
	embedder embed.Embedder
	chunker  *chunk.Chunker
	dataDir  string
}

// NewPipeline wires an ingest pipeline. dataDir is where the lock
// file lives; empty disables locking (tests, in-memory backends).
func NewPipeline(backend store.SearchBackend, embedder embed.Embedder,
	chunker *chunk.Chunker, dataDir string) *Pipeline {
	return &Pipeline{
		backend:  backend,
		embedder: embedder,
		chunker:  chunker,
		dataDir:  dataDir,
	}
}

// IngestDir loads every supported document under root and indexes it.
// Holding the ingest lock for the whole run keeps two concurrent
// ingests from interleaving deletes and writes.
func (p *Pipeline) IngestDir(ctx context.Context, root string) (*Stats, error) {
	unlock, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	docs, err := LoadDir(root)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := p.ingestDocument(ctx, doc, stats); err != nil {
			return stats, err
		}
	}
	stats.Duration = time.Since(start)

	slog.Info("ingest complete",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"indexed", stats.IndexedChunks,
		"failed", stats.FailedChunks,
		"duration_ms", stats.Duration.Milliseconds())
	return stats, nil
}

// IngestFile ingests a single file. source is its path relative to
// the docs root.
func (p *Pipeline) IngestFile(ctx context.Context, path, source string) (*Stats, error) {
	unlock, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	doc, err := LoadDocument(path, source)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	if err := p.ingestDocument(ctx, doc, stats); err != nil {
		return stats, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// RemoveSource drops a deleted document's chunks from the index.
func (p *Pipeline) RemoveSource(ctx context.Context, source string) error {
	unlock, err := p.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()
	return p.backend.DeleteSource(ctx, source)
}

// ingestDocument replaces a document's chunks in the index: old chunks
// out, freshly chunked and embedded content in. Indexing is
// best-effort; per-chunk failures are collected, never fatal.
func (p *Pipeline) ingestDocument(ctx context.Context, doc *Document, stats *Stats) error {
	if err := p.backend.DeleteSource(ctx, doc.Source); err != nil {
		return err
	}

	chunks := p.chunker.ChunkDocument(doc.Source, doc.Title, doc.Text, doc.ModTime)
	stats.Documents++
	stats.Chunks += len(chunks)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return apperr.New(apperr.ErrCodeEmbeddingFailed,
			fmt.Sprintf("cannot embed %s", doc.Source), err)
	}

	items := make([]*store.IndexItem, len(chunks))
	for i, c := range chunks {
		items[i] = &store.IndexItem{Chunk: c, Vector: vectors[i]}
	}

	indexed, errs := p.backend.BulkIndex(ctx, items)
	stats.IndexedChunks += indexed
	stats.FailedChunks += len(errs)
	stats.Errors = append(stats.Errors, errs...)

	slog.Debug("document ingested",
		"source", doc.Source,
		"chunks", len(chunks),
		"indexed", indexed)
	return nil
}

// acquireLock takes the ingest lock, failing fast when another ingest
// holds it. The returned func releases the lock.
func (p *Pipeline) acquireLock() (func(), error) {
	if p.dataDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(p.dataDir, 0o755); err != nil {
		return nil, apperr.New(apperr.ErrCodeIndexFailed,
			fmt.Sprintf("cannot create %s", p.dataDir), err)
	}

	lock := flock.New(filepath.Join(p.dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeIndexLocked, "cannot acquire ingest lock", err)
	}
	if !locked {
		return nil, apperr.New(apperr.ErrCodeIndexLocked,
			"another ingest is already running", nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
