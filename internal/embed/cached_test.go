package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records how many texts reach the inner embedder.
type countingEmbedder struct {
	*StaticEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_HitSkipsInner(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	c := NewCachedEmbedder(inner, 10)
	defer c.Close()

	first, err := c.Embed(ctx, "repeated query")
	require.NoError(t, err)
	second, err := c.Embed(ctx, "repeated query")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachedEmbedder_BatchOnlyEmbedsMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	c := NewCachedEmbedder(inner, 10)
	defer c.Close()

	_, err := c.Embed(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, int64(1), inner.calls.Load())

	vectors, err := c.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	// Only "a" and "c" were misses
	assert.Equal(t, int64(3), inner.calls.Load())

	cached, err := c.Embed(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, vectors[1], cached)
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	inner := NewStaticEmbedder()
	c := NewCachedEmbedder(inner, 0) // zero falls back to default capacity

	assert.Equal(t, inner.Dimensions(), c.Dimensions())
	assert.Equal(t, inner.ModelName(), c.ModelName())
	assert.True(t, c.Available(context.Background()))
	assert.Same(t, Embedder(inner), c.Inner())
}
