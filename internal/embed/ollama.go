package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	apperr "github.com/passagekit/passage/internal/errors"
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama base URL (http://localhost:11434).
	Host string
	// Model is the embedding model name.
	Model string
	// Dimensions is the expected embedding dimension. Zero means
	// detect from the first response.
	Dimensions int
	// BatchSize is the maximum texts per request.
	BatchSize int
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// MaxRetries is the retry budget for transient failures.
	MaxRetries int
}

// ollamaEmbedRequest is the /api/embed request body.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string
}

// ollamaEmbedResponse is the /api/embed response body.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// OllamaEmbedder generates embeddings via Ollama's HTTP API.
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig

	mu     sync.RWMutex
	dims   int
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates an Ollama-backed embedder. No network call
// is made until the first embedding or Available check.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     10 * time.Second,
	}

	// No client-level timeout: per-request contexts carry the deadline.
	return &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		dims:      cfg.Dimensions,
	}
}

// Embed generates the embedding for a single text. Empty or
// whitespace-only input embeds to the zero vector.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.Dimensions()), nil
	}
	vectors, err := e.embedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, apperr.New(apperr.ErrCodeEmbeddingFailed,
			fmt.Sprintf("expected 1 embedding, got %d", len(vectors)), nil)
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in API-sized sub-batches, preserving order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, apperr.New(apperr.ErrCodeEmbeddingFailed,
				fmt.Sprintf("expected %d embeddings, got %d", end-start, len(vectors)), nil)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// embedWithRetry calls /api/embed with exponential backoff on
// transient failures.
func (e *OllamaEmbedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, apperr.New(apperr.ErrCodeEmbedderUnavailable, "embedder is closed", nil)
	}
	e.mu.RUnlock()

	var lastErr error
	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			slog.Debug("retrying embedding request",
				"attempt", attempt+1,
				"delay_ms", delay.Milliseconds())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		vectors, err := e.doEmbed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !isTransient(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, apperr.New(apperr.ErrCodeEmbeddingFailed,
		fmt.Sprintf("embedding %d texts with %s failed", len(texts), e.config.Model), lastErr)
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var input any
	if len(texts) == 1 {
		input = texts[0]
	} else {
		input = texts
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embed request returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embed response")
	}

	e.recordDimensions(len(result.Embeddings[0]))
	return result.Embeddings, nil
}

// recordDimensions captures the dimension from the first response when
// it was not configured up front.
func (e *OllamaEmbedder) recordDimensions(dims int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims == 0 && dims > 0 {
		e.dims = dims
	}
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dims == 0 {
		return DefaultDimensions
	}
	return e.dims
}

// ModelName returns the configured model name.
func (e *OllamaEmbedder) ModelName() string {
	return e.config.Model
}

// Available reports whether the Ollama server responds.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet,
		e.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Close releases pooled connections.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
