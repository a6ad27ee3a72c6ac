package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()
	defer e.Close()

	a, err := e.Embed(ctx, "hybrid retrieval with rank fusion")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hybrid retrieval with rank fusion")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, StaticDimensions)
}

func TestStaticEmbedder_UnitLength(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(ctx, "some document text about searching")
	require.NoError(t, err)

	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestStaticEmbedder_EmptyInputIsZeroVector(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(ctx, "   \n\t ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, StaticDimensions), vec)
}

func TestStaticEmbedder_SimilarTextsCloserThanUnrelated(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()
	defer e.Close()

	base, err := e.Embed(ctx, "the cat sat on the mat")
	require.NoError(t, err)
	similar, err := e.Embed(ctx, "the cat sat on the rug")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "quarterly revenue projections for fiscal 2026")
	require.NoError(t, err)

	assert.Greater(t, dot(base, similar), dot(base, unrelated))
}

func TestStaticEmbedder_EmbedBatch(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder()
	defer e.Close()

	vectors, err := e.EmbedBatch(ctx, []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	single, err := e.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, single, vectors[1])
}

func TestStaticEmbedder_ClosedReturnsError(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
