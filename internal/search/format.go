package search

import (
	"fmt"
	"strings"

	"github.com/passagekit/passage/internal/store"
)

// snippetLimit bounds how much of each chunk FormatResults shows.
const snippetLimit = 300

// FormatResults renders hits for display: numbered entries with
// source, chunk position, score, and a text snippet capped at 300
// runes.
func FormatResults(hits []*store.Hit) string {
	if len(hits) == 0 {
		return "No results found."
	}

	var b strings.Builder
	for i, hit := range hits {
		text := hit.Chunk.Text
		if runes := []rune(text); len(runes) > snippetLimit {
			text = string(runes[:snippetLimit]) + "..."
		}
		fmt.Fprintf(&b, "[%d] Source: %s (chunk %d)\n", i+1, hit.Chunk.Source, hit.Chunk.ChunkID)
		fmt.Fprintf(&b, "    Score: %.4f\n", hit.Score)
		fmt.Fprintf(&b, "    Text: %s\n", text)
		if i < len(hits)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// BuildContext assembles the retrieved chunks into a prompt for a
// downstream answer generator. Chunks are included in full; the
// generator owns any further truncation.
func BuildContext(query string, hits []*store.Hit) string {
	docs := make([]string, len(hits))
	for i, hit := range hits {
		docs[i] = fmt.Sprintf("Document %d (%s):\n%s", i+1, hit.Chunk.Source, hit.Chunk.Text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "QUERY: %s\n\n", query)
	fmt.Fprintf(&b, "RETRIEVED CONTEXT:\n%s\n", strings.Join(docs, "\n\n"))
	return b.String()
}
