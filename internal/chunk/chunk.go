// Package chunk splits document text into overlapping, boundary-aware
// segments for indexing. Splitting prefers sentence and line boundaries
// near the end of each window over mid-sentence cuts.
package chunk

import (
	"fmt"
	"strings"
	"time"

	apperr "github.com/passagekit/passage/internal/errors"
	"github.com/passagekit/passage/internal/store"
)

// Splitter slides a fixed-size window across text with a configured
// overlap between adjacent windows. It is a pure function over
// in-memory text; a Splitter is safe for concurrent use.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the window parameters. Overlap must be
// strictly smaller than size or the window cannot advance.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, apperr.New(apperr.ErrCodeChunkParams,
			fmt.Sprintf("chunk size must be positive, got %d", size), nil)
	}
	if overlap < 0 || overlap >= size {
		return nil, apperr.New(apperr.ErrCodeChunkParams,
			fmt.Sprintf("chunk overlap must be in [0, size), got overlap=%d size=%d",
				overlap, size), nil)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split returns the ordered chunk sequence for text. Sizes are in
// runes so multi-byte characters never get cut in half.
//
// A window that does not reach the end of the text is truncated just
// after its last sentence terminator ('.') or newline, provided that
// boundary lies past half the window. The discarded remainder is
// picked up by the next window.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.size
		last := end >= len(runes)
		if last {
			end = len(runes)
		} else {
			if bp := lastBoundary(runes[start:end]); bp > s.size/2 {
				end = start + bp + 1
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if last {
			break
		}

		next := end - s.overlap
		if next <= start {
			// Boundary cut shrank the window below the overlap;
			// forward progress wins over overlap here.
			next = end
		}
		start = next
	}
	return chunks
}

// lastBoundary returns the index of the last '.' or '\n' in window,
// or -1 if neither occurs.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}

// Chunker turns whole documents into store chunks carrying provenance
// metadata.
type Chunker struct {
	splitter *Splitter
}

// NewChunker creates a Chunker with the given window parameters.
func NewChunker(size, overlap int) (*Chunker, error) {
	splitter, err := NewSplitter(size, overlap)
	if err != nil {
		return nil, err
	}
	return &Chunker{splitter: splitter}, nil
}

// ChunkDocument splits a document's text and wraps each piece with its
// source, title, position, and ingestion timestamp.
func (c *Chunker) ChunkDocument(source, title, text string, createdAt time.Time) []*store.Chunk {
	pieces := c.splitter.Split(text)
	chunks := make([]*store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &store.Chunk{
			ID:          store.ChunkKey(source, i),
			Source:      source,
			Title:       title,
			ChunkID:     i,
			TotalChunks: len(pieces),
			Text:        piece,
			CreatedAt:   createdAt,
		}
	}
	return chunks
}
