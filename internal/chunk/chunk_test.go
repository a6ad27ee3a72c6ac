package chunk

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/passagekit/passage/internal/errors"
)

func TestNewSplitter_ValidatesParams(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 512, 50, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative size", -1, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.size, tt.overlap)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.New(apperr.ErrCodeChunkParams, "", nil))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	chunks := s.Split("  a short note \n")
	assert.Equal(t, []string{"a short note"}, chunks)
}

func TestSplit_EmptyTextYieldsNothing(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\t  "))
}

func TestSplit_BreaksAtSentenceBoundaries(t *testing.T) {
	s, err := NewSplitter(20, 5)
	require.NoError(t, err)

	chunks := s.Split("The sky is blue. Water is wet. Fire is hot.")
	require.Equal(t, []string{
		"The sky is blue.",
		"blue. Water is wet.",
		"wet. Fire is hot.",
	}, chunks)

	// No chunk starts or ends mid-word
	for _, c := range chunks {
		assert.False(t, strings.HasPrefix(c, " "))
		assert.False(t, strings.HasSuffix(c, " "))
	}
}

func TestSplit_KeepsFullWindowWithoutNearbyBoundary(t *testing.T) {
	s, err := NewSplitter(10, 2)
	require.NoError(t, err)

	// No '.' or '\n' anywhere: every non-final window is exactly size runes
	text := strings.Repeat("abcde", 6)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks[:len(chunks)-1] {
		assert.Len(t, c, 10, "chunk %d", i)
	}
}

func TestSplit_BoundaryInFirstHalfIsIgnored(t *testing.T) {
	s, err := NewSplitter(20, 5)
	require.NoError(t, err)

	// The only '.' sits at index 2, well before the halfway point,
	// so the window is not truncated there.
	chunks := s.Split("ab. cdefghijklmnopqrstuvwxyz0123456789")
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], 20)
}

func TestSplit_WindowLengthNeverExceedsSize(t *testing.T) {
	s, err := NewSplitter(30, 8)
	require.NoError(t, err)

	text := "One sentence here. Another follows it. Then a third one. And more text keeps going without stopping for a while longer."
	for _, c := range s.Split(text) {
		assert.LessOrEqual(t, len([]rune(c)), 30)
	}
}

func TestSplit_CoversWholeText(t *testing.T) {
	s, err := NewSplitter(25, 6)
	require.NoError(t, err)

	text := "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu. Nu xi omicron pi rho sigma."
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)

	// Every word of the input appears in some chunk
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := NewSplitter(20, 5)
	require.NoError(t, err)

	text := "Line one here.\nLine two follows.\nLine three ends it."
	first := s.Split(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Split(text))
	}
}

func TestSplit_MultibyteRunesStayIntact(t *testing.T) {
	s, err := NewSplitter(10, 2)
	require.NoError(t, err)

	text := strings.Repeat("héllo wörld ", 5)
	for _, c := range s.Split(text) {
		assert.True(t, utf8.ValidString(c), "chunk %q is not valid UTF-8", c)
		assert.LessOrEqual(t, len([]rune(c)), 10)
	}
}

func TestChunkDocument_Metadata(t *testing.T) {
	c, err := NewChunker(20, 5)
	require.NoError(t, err)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	chunks := c.ChunkDocument("docs/facts.md", "Facts",
		"The sky is blue. Water is wet. Fire is hot.", created)

	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, "docs/facts.md", ch.Source)
		assert.Equal(t, "Facts", ch.Title)
		assert.Equal(t, i, ch.ChunkID)
		assert.Equal(t, 3, ch.TotalChunks)
		assert.Equal(t, fmt.Sprintf("docs/facts.md#%d", i), ch.ID)
		assert.Equal(t, created, ch.CreatedAt)
		assert.NotEmpty(t, ch.Text)
	}
}

func TestChunkDocument_EmptyText(t *testing.T) {
	c, err := NewChunker(20, 5)
	require.NoError(t, err)

	assert.Empty(t, c.ChunkDocument("a.md", "A", "", time.Now()))
}
