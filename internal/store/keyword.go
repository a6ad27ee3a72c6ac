package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// indexedDoc is the shape Bleve indexes. Only the content field is
// searchable; identity lives in the document ID.
type indexedDoc struct {
	Content string `json:"content"`
}

// BleveIndex implements KeywordIndex backed by a Bleve BM25 index.
type BleveIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewBleveIndex creates an in-memory keyword index, used by tests and
// throwaway sessions.
func NewBleveIndex() (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory keyword index: %w", err)
	}
	return &BleveIndex{index: idx}, nil
}

// OpenBleveIndex opens the keyword index at path, creating it if absent.
func OpenBleveIndex(path string) (*BleveIndex, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create keyword index at %s: %w", path, err)
		}
		return &BleveIndex{index: idx}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open keyword index at %s: %w", path, err)
	}
	return &BleveIndex{index: idx}, nil
}

// buildIndexMapping creates the index mapping: a single analyzed text
// field ("content") with the standard analyzer.
func buildIndexMapping() mapping.IndexMapping {
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = false
	contentField.IncludeTermVectors = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("content", contentField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = standard.Name
	return im
}

// Index adds documents in a single batch. Replaces existing IDs.
func (b *BleveIndex) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(doc.ID, indexedDoc{Content: doc.Content}); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}

	start := time.Now()
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("execute index batch: %w", err)
	}
	slog.Debug("keyword batch indexed",
		"docs", len(docs),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Search runs a BM25-scored match query over the content field.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	mq := bleve.NewMatchQuery(query)
	mq.SetField("content")

	req := bleve.NewSearchRequest(mq)
	req.Size = limit

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]*KeywordResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, &KeywordResult{
			DocID: hit.ID,
			Score: hit.Score,
		})
	}
	return results, nil
}

// Delete removes documents by ID. Missing IDs are ignored.
func (b *BleveIndex) Delete(ctx context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()
	for _, id := range docIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("execute delete batch: %w", err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (b *BleveIndex) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("keyword doc count: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
