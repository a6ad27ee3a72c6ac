package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperr "github.com/passagekit/passage/internal/errors"
)

// Index file names inside the data directory.
const (
	keywordIndexDir = "keyword.bleve"
	vectorIndexFile = "vectors.hnsw"
	metadataDBFile  = "metadata.db"
)

// LocalBackend composes the keyword index, vector store, and metadata
// store into a single SearchBackend rooted in one data directory.
type LocalBackend struct {
	keyword  KeywordIndex
	vectors  VectorStore
	metadata MetadataStore

	dataDir    string
	vectorPath string
}

// BackendOptions configures OpenBackend.
type BackendOptions struct {
	// DataDir is the directory holding all index files.
	DataDir string
	// Dimensions is the embedding dimension for the vector store.
	Dimensions int
	// ModelName identifies the embedder; recorded in index state so a
	// model change is caught instead of mixing incompatible vectors.
	ModelName string
}

// OpenBackend opens the on-disk backend, creating indexes as needed.
// It refuses to open an index built with different embedding dimensions
// or a different model.
func OpenBackend(ctx context.Context, opts BackendOptions) (*LocalBackend, error) {
	if opts.DataDir == "" {
		return nil, apperr.ConfigError("backend data directory is empty", nil)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, apperr.New(apperr.ErrCodeIndexFailed,
			fmt.Sprintf("cannot create data directory %s", opts.DataDir), err)
	}

	vectorPath := filepath.Join(opts.DataDir, vectorIndexFile)

	// Dimension check against any existing index before touching it.
	if stored, err := StoredDimensions(vectorPath); err != nil {
		return nil, apperr.New(apperr.ErrCodeCorruptIndex,
			"cannot read vector index metadata", err)
	} else if stored != 0 && stored != opts.Dimensions {
		return nil, apperr.New(apperr.ErrCodeDimensionMismatch,
			ErrDimensionMismatch{Expected: stored, Got: opts.Dimensions}.Error(), nil)
	}

	keyword, err := OpenBleveIndex(filepath.Join(opts.DataDir, keywordIndexDir))
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeCorruptIndex, "cannot open keyword index", err)
	}

	vectors, err := NewHNSWStore(DefaultVectorStoreConfig(opts.Dimensions))
	if err != nil {
		keyword.Close()
		return nil, apperr.New(apperr.ErrCodeIndexFailed, "cannot create vector store", err)
	}
	if _, err := os.Stat(vectorPath); err == nil {
		if err := vectors.Load(vectorPath); err != nil {
			keyword.Close()
			return nil, apperr.New(apperr.ErrCodeCorruptIndex, "cannot load vector index", err)
		}
	}

	metadata, err := NewSQLiteStore(filepath.Join(opts.DataDir, metadataDBFile))
	if err != nil {
		keyword.Close()
		vectors.Close()
		return nil, apperr.New(apperr.ErrCodeCorruptIndex, "cannot open metadata store", err)
	}

	b := &LocalBackend{
		keyword:    keyword,
		vectors:    vectors,
		metadata:   metadata,
		dataDir:    opts.DataDir,
		vectorPath: vectorPath,
	}

	if err := b.checkIndexState(ctx, opts); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// NewMemoryBackend builds an in-memory backend for tests.
func NewMemoryBackend(dimensions int) (*LocalBackend, error) {
	keyword, err := NewBleveIndex()
	if err != nil {
		return nil, err
	}
	vectors, err := NewHNSWStore(DefaultVectorStoreConfig(dimensions))
	if err != nil {
		keyword.Close()
		return nil, err
	}
	metadata, err := NewSQLiteStore(":memory:")
	if err != nil {
		keyword.Close()
		vectors.Close()
		return nil, err
	}
	return &LocalBackend{keyword: keyword, vectors: vectors, metadata: metadata}, nil
}

// checkIndexState verifies the recorded embedder against the one in
// use, and records it on first open.
func (b *LocalBackend) checkIndexState(ctx context.Context, opts BackendOptions) error {
	storedDim, err := b.metadata.GetState(ctx, StateKeyIndexDimension)
	if err != nil {
		return apperr.New(apperr.ErrCodeCorruptIndex, "cannot read index state", err)
	}
	if storedDim != "" {
		dim, _ := strconv.Atoi(storedDim)
		if dim != opts.Dimensions {
			return apperr.New(apperr.ErrCodeDimensionMismatch,
				ErrDimensionMismatch{Expected: dim, Got: opts.Dimensions}.Error(), nil)
		}
	}

	storedModel, err := b.metadata.GetState(ctx, StateKeyIndexModel)
	if err != nil {
		return apperr.New(apperr.ErrCodeCorruptIndex, "cannot read index state", err)
	}
	if storedModel != "" && opts.ModelName != "" && storedModel != opts.ModelName {
		slog.Warn("index was built with a different embedding model",
			"indexed_model", storedModel,
			"current_model", opts.ModelName)
	}

	if err := b.metadata.SetState(ctx, StateKeyIndexDimension,
		strconv.Itoa(opts.Dimensions)); err != nil {
		return apperr.New(apperr.ErrCodeIndexFailed, "cannot record index state", err)
	}
	if opts.ModelName != "" {
		if err := b.metadata.SetState(ctx, StateKeyIndexModel, opts.ModelName); err != nil {
			return apperr.New(apperr.ErrCodeIndexFailed, "cannot record index state", err)
		}
	}
	return nil
}

// VectorSearch returns the k nearest chunks to the query vector.
func (b *LocalBackend) VectorSearch(ctx context.Context, vector []float32, k int) ([]*Hit, error) {
	results, err := b.vectors.Search(ctx, vector, k)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeSearchFailed, "vector search failed", err)
	}

	ids := make([]string, len(results))
	scores := make(map[string]float64, len(results))
	for i, r := range results {
		ids[i] = r.ID
		scores[r.ID] = float64(r.Score)
	}

	chunks, err := b.metadata.GetChunks(ctx, ids)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeSearchFailed, "vector result enrichment failed", err)
	}

	hits := make([]*Hit, 0, len(chunks))
	for _, c := range chunks {
		hits = append(hits, &Hit{Chunk: c, Score: scores[c.ID], Kind: ScoreVector})
	}
	return hits, nil
}

// KeywordSearch returns the k best BM25 matches for the query text.
func (b *LocalBackend) KeywordSearch(ctx context.Context, query string, k int) ([]*Hit, error) {
	results, err := b.keyword.Search(ctx, query, k)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeSearchFailed, "keyword search failed", err)
	}

	ids := make([]string, len(results))
	scores := make(map[string]float64, len(results))
	for i, r := range results {
		ids[i] = r.DocID
		scores[r.DocID] = r.Score
	}

	chunks, err := b.metadata.GetChunks(ctx, ids)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeSearchFailed, "keyword result enrichment failed", err)
	}

	hits := make([]*Hit, 0, len(chunks))
	for _, c := range chunks {
		hits = append(hits, &Hit{Chunk: c, Score: scores[c.ID], Kind: ScoreKeyword})
	}
	return hits, nil
}

// BulkIndex indexes items best-effort. A failed item is logged and
// counted, never aborting the rest of the batch. Returns the number
// of successfully indexed items and the per-item errors.
func (b *LocalBackend) BulkIndex(ctx context.Context, items []*IndexItem) (int, []error) {
	var errs []error
	success := 0

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			return success, errs
		}
		if err := b.indexOne(ctx, item); err != nil {
			slog.Warn("chunk indexing failed",
				"chunk", item.Chunk.ID,
				"error", err)
			errs = append(errs, fmt.Errorf("index %s: %w", item.Chunk.ID, err))
			continue
		}
		success++
	}
	return success, errs
}

// indexOne writes a single item to all three stores. Metadata first so
// a hit from either index can always be enriched.
func (b *LocalBackend) indexOne(ctx context.Context, item *IndexItem) error {
	c := item.Chunk
	if c.ID == "" {
		c.ID = c.Key()
	}

	if err := b.metadata.SaveChunks(ctx, []*Chunk{c}); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	if err := b.keyword.Index(ctx, []*Document{{ID: c.ID, Content: c.Text}}); err != nil {
		return fmt.Errorf("index keyword: %w", err)
	}
	if err := b.vectors.Add(ctx, []string{c.ID}, [][]float32{item.Vector}); err != nil {
		return fmt.Errorf("index vector: %w", err)
	}
	return nil
}

// DeleteSource removes every chunk of a source document from all stores.
func (b *LocalBackend) DeleteSource(ctx context.Context, source string) error {
	ids, err := b.metadata.ChunkIDsBySource(ctx, source)
	if err != nil {
		return apperr.New(apperr.ErrCodeIndexFailed,
			fmt.Sprintf("cannot list chunks for %s", source), err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := b.keyword.Delete(ctx, ids); err != nil {
		return apperr.New(apperr.ErrCodeIndexFailed,
			fmt.Sprintf("cannot delete keyword entries for %s", source), err)
	}
	if err := b.vectors.Delete(ctx, ids); err != nil {
		return apperr.New(apperr.ErrCodeIndexFailed,
			fmt.Sprintf("cannot delete vectors for %s", source), err)
	}
	if err := b.metadata.DeleteChunks(ctx, ids); err != nil {
		return apperr.New(apperr.ErrCodeIndexFailed,
			fmt.Sprintf("cannot delete metadata for %s", source), err)
	}

	slog.Debug("source removed from index", "source", source, "chunks", len(ids))
	return nil
}

// Count returns the number of indexed chunks.
func (b *LocalBackend) Count(ctx context.Context) (int, error) {
	return b.metadata.CountChunks(ctx)
}

// Save persists the vector store. The keyword index and metadata store
// write through to disk on their own.
func (b *LocalBackend) Save() error {
	if b.vectorPath == "" {
		return nil // in-memory
	}
	if err := b.vectors.Save(b.vectorPath); err != nil {
		return apperr.New(apperr.ErrCodeIndexFailed, "cannot save vector index", err)
	}
	return nil
}

// Close closes all three stores, reporting the first error.
func (b *LocalBackend) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{b.keyword, b.vectors, b.metadata} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ SearchBackend = (*LocalBackend)(nil)
