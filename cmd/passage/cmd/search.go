package cmd

import (
	"bufio"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passagekit/passage/internal/output"
	"github.com/passagekit/passage/internal/search"
	"github.com/passagekit/passage/internal/store"
	"github.com/passagekit/passage/internal/telemetry"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode        string
	limit       int
	alpha       float64
	format      string // "text", "json"
	showContext bool
	interactive bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the indexed documents",
		Long: `Search the index with vector, keyword, or hybrid retrieval.

Hybrid mode runs both searches concurrently and fuses the rankings
with Reciprocal Rank Fusion. Alpha steers the blend: 1 is pure
vector, 0 is pure keyword.

Examples:
  passage search "rotating credentials"
  passage search "exact error string" --mode keyword
  passage search "design tradeoffs" --alpha 0.8 -n 10
  passage search "release process" --format json
  passage search -i`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interactive {
				return runInteractive(cmd, opts)
			}
			if len(args) == 0 {
				return cmd.Usage()
			}
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "hybrid",
		"Retrieval mode: vector, keyword, or hybrid")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0,
		"Maximum results (default from config)")
	cmd.Flags().Float64VarP(&opts.alpha, "alpha", "a", -1,
		"Hybrid blend weight in [0,1] (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text",
		"Output format: text, plain, json")
	cmd.Flags().BoolVar(&opts.showContext, "show-context", false,
		"Print the assembled LLM context instead of a result list")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false,
		"Read queries from stdin until EOF")

	return cmd
}

// jsonHit is the JSON output shape for one result.
type jsonHit struct {
	Source      string  `json:"source"`
	Title       string  `json:"title"`
	ChunkID     int     `json:"chunk_id"`
	TotalChunks int     `json:"total_chunks"`
	Score       float64 `json:"score"`
	Kind        string  `json:"kind"`
	Text        string  `json:"text"`
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	mode, err := search.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := requireIndex(a.cfg); err != nil {
		return err
	}

	hits, err := a.retriever.Retrieve(ctx, query, retrieveOptions(mode, opts))
	if err != nil {
		return err
	}

	switch {
	case opts.showContext:
		out.Plain("%s", search.BuildContext(query, hits))
	case opts.format == "json":
		return writeJSON(cmd, hits)
	case opts.format == "plain":
		out.Plain("%s", search.FormatResults(hits))
	default:
		renderHits(out, hits)
	}
	return nil
}

// runInteractive reads queries line by line until EOF or "exit", then
// prints the session metrics so degraded channels are visible.
func runInteractive(cmd *cobra.Command, opts searchOptions) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	mode, err := search.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := requireIndex(a.cfg); err != nil {
		return err
	}

	out.Plain("Interactive search (%s mode). Empty line or 'exit' quits.", mode)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		out.Newline()
		_, _ = cmd.OutOrStdout().Write([]byte("passage> "))
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" || query == "exit" || query == "quit" {
			break
		}

		hits, err := a.retriever.Retrieve(ctx, query, retrieveOptions(mode, opts))
		if err != nil {
			out.Error("%v", err)
			continue
		}
		if opts.showContext {
			out.Plain("%s", search.BuildContext(query, hits))
		} else {
			renderHits(out, hits)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	printSessionMetrics(out, a.metrics.Snapshot())
	return nil
}

func retrieveOptions(mode search.Mode, opts searchOptions) search.Options {
	searchOpts := search.Options{Mode: mode, K: opts.limit}
	if opts.alpha >= 0 {
		searchOpts.Alpha = &opts.alpha
	}
	return searchOpts
}

func printSessionMetrics(out *output.Writer, snap telemetry.Snapshot) {
	if snap.TotalQueries == 0 {
		return
	}
	out.Newline()
	out.Header("Session")
	out.Plain("  queries:      %d (zero results: %d)", snap.TotalQueries, snap.ZeroResults)
	if n := snap.Degraded[telemetry.ChannelVector]; n > 0 {
		out.Warning("  vector channel degraded %d time(s)", n)
	}
	if n := snap.Degraded[telemetry.ChannelKeyword]; n > 0 {
		out.Warning("  keyword channel degraded %d time(s)", n)
	}
	if snap.TotalOutages > 0 {
		out.Error("  total outages: %d", snap.TotalOutages)
	}
}

func renderHits(out *output.Writer, hits []*store.Hit) {
	if len(hits) == 0 {
		out.Plain("No results found.")
		return
	}
	for i, hit := range hits {
		text := hit.Chunk.Text
		if runes := []rune(text); len(runes) > 300 {
			text = string(runes[:300]) + "..."
		}
		out.Result(i+1, hit.Chunk.Source, hit.Chunk.ChunkID, hit.Score, text)
		out.Newline()
	}
}

func writeJSON(cmd *cobra.Command, hits []*store.Hit) error {
	results := make([]jsonHit, len(hits))
	for i, hit := range hits {
		results[i] = jsonHit{
			Source:      hit.Chunk.Source,
			Title:       hit.Chunk.Title,
			ChunkID:     hit.Chunk.ChunkID,
			TotalChunks: hit.Chunk.TotalChunks,
			Score:       hit.Score,
			Kind:        string(hit.Kind),
			Text:        hit.Chunk.Text,
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
