package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/passagekit/passage/internal/embed"
	apperr "github.com/passagekit/passage/internal/errors"
	"github.com/passagekit/passage/internal/store"
	"github.com/passagekit/passage/internal/telemetry"
)

// RetrieverConfig holds the retriever defaults.
type RetrieverConfig struct {
	// TopK is the result count when Options.K is unset.
	TopK int
	// MaxTopK caps per-query result counts.
	MaxTopK int
	// Alpha is the hybrid blend weight when Options.Alpha is unset.
	Alpha float64
}

// Retriever dispatches queries to vector, keyword, or hybrid retrieval.
// Collaborators are injected; the retriever owns no connections and no
// global state, so one instance serves concurrent queries.
type Retriever struct {
	backend  store.SearchBackend
	embedder embed.Embedder
	metrics  *telemetry.QueryMetrics
	config   RetrieverConfig
}

// NewRetriever wires a retriever. metrics may be nil to disable
// recording.
func NewRetriever(backend store.SearchBackend, embedder embed.Embedder,
	metrics *telemetry.QueryMetrics, cfg RetrieverConfig) (*Retriever, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MaxTopK < cfg.TopK {
		cfg.MaxTopK = cfg.TopK * 20
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return nil, apperr.ConfigError(
			fmt.Sprintf("alpha must be in [0,1], got %g", cfg.Alpha), nil)
	}
	return &Retriever{
		backend:  backend,
		embedder: embedder,
		metrics:  metrics,
		config:   cfg,
	}, nil
}

// Retrieve runs one query-to-results round trip in the selected mode.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]*store.Hit, error) {
	if query == "" {
		return nil, apperr.New(apperr.ErrCodeQueryEmpty, "query is empty", nil)
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	k := opts.K
	if k <= 0 {
		k = r.config.TopK
	}
	if k > r.config.MaxTopK {
		k = r.config.MaxTopK
	}

	alpha := opts.alphaOrDefault(r.config.Alpha)
	if alpha < 0 || alpha > 1 {
		return nil, apperr.ValidationError(
			fmt.Sprintf("alpha must be in [0,1], got %g", alpha), nil)
	}

	start := time.Now()
	var (
		hits []*store.Hit
		err  error
	)
	switch mode {
	case ModeVector:
		hits, err = r.vectorRetrieve(ctx, query, k)
	case ModeKeyword:
		hits, err = r.backend.KeywordSearch(ctx, query, k)
	case ModeHybrid:
		hits, err = r.hybridRetrieve(ctx, query, k, alpha)
	}
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordQuery(string(mode), len(hits), time.Since(start))
	}
	slog.Debug("retrieval complete",
		"mode", mode,
		"k", k,
		"results", len(hits),
		"duration_ms", time.Since(start).Milliseconds())
	return hits, nil
}

// vectorRetrieve embeds the query and returns the backend's ranking
// unchanged.
func (r *Retriever) vectorRetrieve(ctx context.Context, query string, k int) ([]*store.Hit, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeEmbeddingFailed, "cannot embed query", err)
	}
	return r.backend.VectorSearch(ctx, vector, k)
}

// hybridRetrieve issues both sub-searches concurrently, each
// overfetching k*OverfetchFactor candidates, then fuses the rankings.
//
// A failed sub-search degrades to an empty list: partial results beat
// a hard failure. Each degradation is logged and counted so an outage
// is distinguishable from "no matches". Only when both channels fail
// does the query error.
func (r *Retriever) hybridRetrieve(ctx context.Context, query string, k int, alpha float64) ([]*store.Hit, error) {
	fetch := k * OverfetchFactor

	var (
		vectorHits, keywordHits []*store.Hit
		vectorErr, keywordErr   error
	)

	var g errgroup.Group
	g.Go(func() error {
		vectorHits, vectorErr = r.vectorRetrieve(ctx, query, fetch)
		return nil
	})
	g.Go(func() error {
		keywordHits, keywordErr = r.backend.KeywordSearch(ctx, query, fetch)
		return nil
	})
	_ = g.Wait()

	if vectorErr != nil {
		slog.Warn("vector channel degraded to empty results",
			"error", vectorErr)
		if r.metrics != nil {
			r.metrics.RecordDegraded(telemetry.ChannelVector)
		}
		vectorHits = nil
	}
	if keywordErr != nil {
		slog.Warn("keyword channel degraded to empty results",
			"error", keywordErr)
		if r.metrics != nil {
			r.metrics.RecordDegraded(telemetry.ChannelKeyword)
		}
		keywordHits = nil
	}
	if vectorErr != nil && keywordErr != nil {
		if r.metrics != nil {
			r.metrics.RecordTotalOutage()
		}
		return nil, apperr.New(apperr.ErrCodeBackendUnavailable,
			"both hybrid channels failed",
			fmt.Errorf("vector: %w; keyword: %w", vectorErr, keywordErr))
	}

	return Fuse(vectorHits, keywordHits, alpha, k), nil
}
