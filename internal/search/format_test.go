package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passagekit/passage/internal/store"
)

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, "No results found.", FormatResults(nil))
}

func TestFormatResults_ShowsSourceChunkAndScore(t *testing.T) {
	hits := []*store.Hit{
		hit("docs/a.md", 2, 0.0165, store.ScoreFused),
		hit("docs/b.md", 0, 0.0081, store.ScoreFused),
	}

	out := FormatResults(hits)
	assert.Contains(t, out, "[1] Source: docs/a.md (chunk 2)")
	assert.Contains(t, out, "Score: 0.0165")
	assert.Contains(t, out, "[2] Source: docs/b.md (chunk 0)")
	assert.Contains(t, out, "Text: text of docs/a.md")
}

func TestFormatResults_TruncatesLongText(t *testing.T) {
	h := hit("docs/long.md", 0, 1.0, store.ScoreFused)
	h.Chunk.Text = strings.Repeat("x", 500)

	out := FormatResults([]*store.Hit{h})
	assert.Contains(t, out, strings.Repeat("x", 300)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 301))
}

func TestFormatResults_ShortTextNotTruncated(t *testing.T) {
	h := hit("docs/short.md", 0, 1.0, store.ScoreFused)
	h.Chunk.Text = "short"

	out := FormatResults([]*store.Hit{h})
	assert.Contains(t, out, "Text: short\n")
	assert.NotContains(t, out, "...")
}

func TestBuildContext(t *testing.T) {
	hits := []*store.Hit{
		hit("docs/a.md", 0, 0.9, store.ScoreFused),
		hit("docs/b.md", 1, 0.8, store.ScoreFused),
	}

	out := BuildContext("what is up", hits)
	require.True(t, strings.HasPrefix(out, "QUERY: what is up\n\n"))
	assert.Contains(t, out, "RETRIEVED CONTEXT:\n")
	assert.Contains(t, out, "Document 1 (docs/a.md):\ntext of docs/a.md")
	assert.Contains(t, out, "Document 2 (docs/b.md):\ntext of docs/b.md")
}
