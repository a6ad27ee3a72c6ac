package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// StaticDimensions matches the Ollama default so indexes built with
// either provider have the same shape.
const StaticDimensions = DefaultDimensions

// Feature weights for the hash-based vector.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// englishStopWords are filtered before hashing so function words do
// not dominate the vector.
var englishStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "but": true, "by": true, "for": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"of": true, "on": true, "or": true, "such": true, "that": true,
	"the": true, "their": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true,
	"was": true, "will": true, "with": true,
}

// StaticEmbedder produces deterministic hash-based embeddings with no
// network or model dependency. Semantic quality is far below a real
// model; it exists so indexing and search work offline.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates the offline fallback embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates a normalized hash-based embedding. Empty input
// embeds to the zero vector.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}

	vector := make([]float32, StaticDimensions)

	for _, token := range tokenizeWords(trimmed) {
		if englishStopWords[token] {
			continue
		}
		vector[hashToIndex(token, StaticDimensions)] += tokenWeight
	}

	for _, ngram := range characterNgrams(trimmed, ngramSize) {
		vector[hashToIndex(ngram, StaticDimensions)] += ngramWeight
	}

	return normalizeVector(vector), nil
}

// EmbedBatch embeds each text independently.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

// ModelName returns the static model identifier.
func (e *StaticEmbedder) ModelName() string { return "static-hash" }

// Available always reports true; there is nothing to reach.
func (e *StaticEmbedder) Available(ctx context.Context) bool { return true }

// Close marks the embedder closed.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// tokenizeWords lowercases and splits text on non-letter, non-digit runes.
func tokenizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// characterNgrams returns lowercase character n-grams with whitespace
// collapsed, capturing sub-word similarity that token hashing misses.
func characterNgrams(text string, n int) []string {
	collapsed := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	runes := []rune(collapsed)
	if len(runes) < n {
		return nil
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// hashToIndex maps a string to a bucket in [0, dims).
func hashToIndex(s string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dims))
}
