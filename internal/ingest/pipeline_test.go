package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passagekit/passage/internal/chunk"
	"github.com/passagekit/passage/internal/embed"
	"github.com/passagekit/passage/internal/store"
)

func newTestPipeline(t *testing.T, size, overlap int) (*Pipeline, *store.LocalBackend) {
	t.Helper()
	backend, err := store.NewMemoryBackend(embed.StaticDimensions)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	chunker, err := chunk.NewChunker(size, overlap)
	require.NoError(t, err)

	return NewPipeline(backend, embed.NewStaticEmbedder(), chunker, ""), backend
}

func TestIngestDir_EndToEnd(t *testing.T) {
	ctx := context.Background()
	p, backend := newTestPipeline(t, 20, 5)

	dir := t.TempDir()
	writeFile(t, dir, "facts.md", "The sky is blue. Water is wet. Fire is hot.")
	writeFile(t, dir, "empty.md", "   ")

	stats, err := p.IngestDir(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 3, stats.Chunks) // sentence-boundary splits
	assert.Equal(t, 3, stats.IndexedChunks)
	assert.Zero(t, stats.FailedChunks)
	assert.Empty(t, stats.Errors)

	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Indexed content is findable via keyword search
	hits, err := backend.KeywordSearch(ctx, "water", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "facts.md", hits[0].Chunk.Source)
	assert.Equal(t, "facts", hits[0].Chunk.Title)
	assert.Equal(t, 3, hits[0].Chunk.TotalChunks)
}

func TestIngestFile_ReingestReplacesChunks(t *testing.T) {
	ctx := context.Background()
	p, backend := newTestPipeline(t, 100, 10)

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.md", "Original text about mountains.")

	_, err := p.IngestFile(ctx, path, "doc.md")
	require.NoError(t, err)

	// Shrink the document and re-ingest: stale chunks must go
	writeFile(t, dir, "doc.md", "Rivers now.")
	stats, err := p.IngestFile(ctx, path, "doc.md")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.IndexedChunks)

	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := backend.KeywordSearch(ctx, "mountains", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRemoveSource(t *testing.T) {
	ctx := context.Background()
	p, backend := newTestPipeline(t, 100, 10)

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.md", "Disposable content.")
	_, err := p.IngestFile(ctx, path, "doc.md")
	require.NoError(t, err)

	require.NoError(t, p.RemoveSource(ctx, "doc.md"))

	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestDir_LockRejectsConcurrentRun(t *testing.T) {
	backend, err := store.NewMemoryBackend(embed.StaticDimensions)
	require.NoError(t, err)
	defer backend.Close()

	chunker, err := chunk.NewChunker(100, 10)
	require.NoError(t, err)

	dataDir := t.TempDir()
	p := NewPipeline(backend, embed.NewStaticEmbedder(), chunker, dataDir)

	unlock, err := p.acquireLock()
	require.NoError(t, err)
	defer unlock()

	_, err = p.IngestDir(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_203")
}

func TestIngestDir_ContextCancellation(t *testing.T) {
	p, _ := newTestPipeline(t, 100, 10)

	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "Some content.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.IngestDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcher_SimultaneousChangesAllIndexed(t *testing.T) {
	if testing.Short() {
		t.Skip("watcher test needs real fs events")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := store.NewMemoryBackend(embed.StaticDimensions)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	chunker, err := chunk.NewChunker(100, 10)
	require.NoError(t, err)

	// Real data dir so the ingest lock is live: both debounce timers
	// expire together, and the re-ingests must not contend for it.
	p := NewPipeline(backend, embed.NewStaticEmbedder(), chunker, t.TempDir())
	docs := t.TempDir()

	w := NewWatcher(p, docs)
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond) // let the watcher arm

	writeFile(t, docs, "alpha.md", "Glaciers carve valleys.")
	writeFile(t, docs, "beta.md", "Volcanoes build islands.")

	require.Eventually(t, func() bool {
		n, err := backend.Count(context.Background())
		return err == nil && n == 2
	}, 5*time.Second, 100*time.Millisecond)

	for _, query := range []string{"glaciers", "volcanoes"} {
		hits, err := backend.KeywordSearch(context.Background(), query, 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits, query)
	}
}

func TestWatcher_ReingestsOnWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("watcher test needs real fs events")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, backend := newTestPipeline(t, 100, 10)
	docs := t.TempDir()

	w := NewWatcher(p, docs)
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond) // let the watcher arm

	writeFile(t, docs, "live.md", "Fresh content about oceans.")

	require.Eventually(t, func() bool {
		n, err := backend.Count(context.Background())
		return err == nil && n > 0
	}, 5*time.Second, 100*time.Millisecond)

	hits, err := backend.KeywordSearch(context.Background(), "oceans", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "live.md", hits[0].Chunk.Source)
}
