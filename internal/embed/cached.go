package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of cached embeddings.
// At 384 dimensions * 4 bytes * 1000 entries this is about 1.5MB.
const DefaultCacheSize = 1000

// CachedEmbedder wraps an Embedder with an LRU cache so repeated
// queries skip the embedding round trip.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// cacheKey hashes text together with the model name, so a model swap
// never serves stale vectors.
func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(sum[:])
}

// Embed returns a cached embedding when present, computing and caching
// on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch checks the cache per text and batch-embeds only the misses.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missIndices := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
		} else {
			missIndices = append(missIndices, i)
			missTexts = append(missTexts, text)
		}
	}
	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIndices {
		results[idx] = vectors[j]
		c.cache.Add(c.cacheKey(texts[idx]), vectors[j])
	}
	return results, nil
}

// Dimensions returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// ModelName returns the inner embedder's model name.
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Available reports the inner embedder's availability.
func (c *CachedEmbedder) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }

// Inner returns the wrapped embedder.
func (c *CachedEmbedder) Inner() Embedder { return c.inner }
