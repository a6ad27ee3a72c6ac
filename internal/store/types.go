// Package store provides the persistence layer for indexed passages:
// a BM25 keyword index (Bleve), a vector index (HNSW), and chunk
// metadata persistence (SQLite). The three are composed into a
// SearchBackend that the retriever queries.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// State keys for the metadata store. The index records which embedder
// produced its vectors so a changed embedder is detected instead of
// silently returning garbage neighbors.
const (
	StateKeyIndexDimension = "index_embedding_dimension"
	StateKeyIndexModel     = "index_embedding_model"
)

// Chunk is the atomic unit of indexing and retrieval: a bounded
// substring of a source document plus its provenance metadata.
// Chunks are immutable once indexed.
type Chunk struct {
	ID          string    // Source + "#" + ChunkID, see ChunkKey
	Source      string    // Source document identifier (relative path)
	Title       string    // Document title (file stem)
	ChunkID     int       // Zero-based position within the document
	TotalChunks int       // Number of chunks the document produced
	Text        string    // Chunk content, whitespace-trimmed
	CreatedAt   time.Time // When the document was ingested
}

// ChunkKey derives the identity used to recognize the same chunk
// across independently-ranked result lists.
func ChunkKey(source string, chunkID int) string {
	return source + "#" + strconv.Itoa(chunkID)
}

// Key returns the chunk's fusion identity.
func (c *Chunk) Key() string {
	return ChunkKey(c.Source, c.ChunkID)
}

// ScoreKind tags which scale a hit's score is on. Vector scores are
// cosine-similarity-derived, keyword scores are BM25-derived; the two
// scales are not comparable and must never be summed directly.
type ScoreKind string

const (
	ScoreVector  ScoreKind = "vector"
	ScoreKeyword ScoreKind = "keyword"
	ScoreFused   ScoreKind = "fused"
)

// Hit is a single ranked search result.
type Hit struct {
	Chunk *Chunk
	Score float64
	Kind  ScoreKind
}

// FusionKey returns the identity used to merge hits across result lists.
func (h *Hit) FusionKey() string {
	return h.Chunk.Key()
}

// IndexItem pairs a chunk with its embedding for bulk indexing.
type IndexItem struct {
	Chunk  *Chunk
	Vector []float32
}

// Document is a document to be indexed in the keyword index.
type Document struct {
	ID      string // Chunk ID
	Content string // Text content
}

// KeywordResult is a single BM25 search result.
type KeywordResult struct {
	DocID string
	Score float64
}

// KeywordIndex provides lexical search using BM25 scoring.
type KeywordIndex interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*Document) error

	// Search returns documents matching query, scored by BM25.
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, docIDs []string) error

	// Count returns the number of indexed documents.
	Count() (int, error)

	Close() error
}

// VectorResult is a single vector search result.
type VectorResult struct {
	ID       string  // Chunk ID
	Distance float32 // Lower is more similar (0-2 for cosine)
	Score    float32 // Normalized similarity (0-1)
}

// VectorStoreConfig configures the vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension (384 for all-minilm).
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean).
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   100,
	}
}

// VectorStore provides similarity search over dense embeddings.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbors to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of vectors.
	Count() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// MetadataStore persists chunk metadata.
type MetadataStore interface {
	SaveChunks(ctx context.Context, chunks []*Chunk) error
	GetChunk(ctx context.Context, id string) (*Chunk, error)
	GetChunks(ctx context.Context, ids []string) ([]*Chunk, error) // Batch retrieval
	ChunkIDsBySource(ctx context.Context, source string) ([]string, error)
	DeleteChunks(ctx context.Context, ids []string) error
	CountChunks(ctx context.Context) (int, error)

	// State operations (key-value store for index state)
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

// SearchBackend is the search collaborator the retriever depends on.
// It accepts semantically-defined queries and returns ranked hits;
// how the ranking is computed is the backend's concern.
type SearchBackend interface {
	// VectorSearch returns the k nearest chunks to the query vector,
	// most similar first. Hit scores are cosine-similarity-derived.
	VectorSearch(ctx context.Context, vector []float32, k int) ([]*Hit, error)

	// KeywordSearch returns the k best lexical matches for the query
	// text, best first. Hit scores are BM25-derived.
	KeywordSearch(ctx context.Context, query string, k int) ([]*Hit, error)

	// BulkIndex indexes items best-effort: individual failures are
	// collected and reported, never aborting the batch.
	BulkIndex(ctx context.Context, items []*IndexItem) (success int, errs []error)

	// DeleteSource removes all chunks belonging to a source document.
	DeleteSource(ctx context.Context, source string) error

	// Count returns the number of indexed chunks (diagnostic).
	Count(ctx context.Context) (int, error)

	Close() error
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (reindex with the current embedder)", e.Expected, e.Got)
}
