package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWStore implements VectorStore with a pure-Go HNSW graph.
// String chunk IDs are mapped to uint64 graph keys; the mapping is
// persisted alongside the graph in a gob sidecar file.
type HNSWStore struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorStoreConfig

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// hnswSidecar holds the persisted ID mappings and graph parameters.
type hnswSidecar struct {
	IDMap   map[string]uint64
	NextKey uint64
	Config  VectorStoreConfig
}

// NewHNSWStore creates an empty vector store.
func NewHNSWStore(cfg VectorStoreConfig) (*HNSWStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vector store dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Metric == "" {
		cfg.Metric = "cos"
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 100
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWStore{
		graph:  graph,
		config: cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}, nil
}

// Add inserts vectors with their IDs. An existing ID is replaced via
// lazy deletion: the old graph node is orphaned rather than removed,
// because removing the last node corrupts the graph in coder/hnsw.
func (s *HNSWStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(v)}
		}
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		if oldKey, exists := s.idMap[id]; exists {
			delete(s.keyMap, oldKey)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if s.config.Metric == "cos" {
			normalizeInPlace(vec)
		}

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
	}

	return nil
}

// Search returns the k nearest neighbors to the query vector, most
// similar first. Orphaned (lazily deleted) nodes are filtered out.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}
	if s.graph.Len() == 0 || k <= 0 {
		return []*VectorResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if s.config.Metric == "cos" {
		normalizeInPlace(q)
	}

	nodes := s.graph.Search(q, k)

	results := make([]*VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue // orphan
		}
		distance := s.graph.Distance(q, node.Value)
		results = append(results, &VectorResult{
			ID:       id,
			Distance: distance,
			Score:    distanceToScore(distance, s.config.Metric),
		})
	}
	return results, nil
}

// Delete removes vectors by ID via lazy deletion.
func (s *HNSWStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, id := range ids {
		if key, exists := s.idMap[id]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, id)
		}
	}
	return nil
}

// Count returns the number of live vectors (orphans excluded).
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}
	return len(s.idMap)
}

// Dimensions returns the configured vector dimension.
func (s *HNSWStore) Dimensions() int {
	return s.config.Dimensions
}

// Save persists the graph and ID mappings atomically (temp + rename).
func (s *HNSWStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create vector store directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create vector index file: %w", err)
	}
	if err := s.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export vector graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close vector index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename vector index file: %w", err)
	}

	return s.saveSidecar(path + ".meta")
}

func (s *HNSWStore) saveSidecar(path string) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create sidecar file: %w", err)
	}

	meta := hnswSidecar{
		IDMap:   s.idMap,
		NextKey: s.nextKey,
		Config:  s.config,
	}
	if err := gob.NewEncoder(f).Encode(meta); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close sidecar file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores the graph and ID mappings from disk.
func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := s.loadSidecar(path + ".meta"); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open vector index file: %w", err)
	}
	defer f.Close()

	// Import requires an io.ByteReader.
	if err := s.graph.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("import vector graph: %w", err)
	}
	return nil
}

func (s *HNSWStore) loadSidecar(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sidecar file: %w", err)
	}
	defer f.Close()

	var meta hnswSidecar
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return fmt.Errorf("decode sidecar: %w", err)
	}

	s.idMap = meta.IDMap
	s.nextKey = meta.NextKey
	s.config = meta.Config
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}
	return nil
}

// Close releases the graph.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

// StoredDimensions reads the vector dimension recorded in an existing
// store's sidecar. Returns 0 when the sidecar does not exist yet.
func StoredDimensions(vectorPath string) (int, error) {
	f, err := os.Open(vectorPath + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open sidecar file: %w", err)
	}
	defer f.Close()

	var meta hnswSidecar
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return 0, fmt.Errorf("decode sidecar: %w", err)
	}
	return meta.Config.Dimensions, nil
}

var _ VectorStore = (*HNSWStore)(nil)

// normalizeInPlace scales v to unit length. Zero vectors are left as-is.
func normalizeInPlace(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// distanceToScore maps a distance onto a 0-1 similarity.
// Cosine distance spans 0-2, so score = 1 - d/2.
func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1.0 / (1.0 + distance)
	default:
		return 1.0 - distance/2.0
	}
}
