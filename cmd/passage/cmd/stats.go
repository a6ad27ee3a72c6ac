package cmd

import (
	"github.com/spf13/cobra"

	"github.com/passagekit/passage/internal/output"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := requireIndex(a.cfg); err != nil {
		return err
	}

	count, err := a.backend.Count(ctx)
	if err != nil {
		return err
	}

	out.Header("Index")
	out.Plain("  chunks:     %d", count)
	out.Plain("  data dir:   %s", a.cfg.Paths.DataDir)
	out.Plain("  docs dir:   %s", a.cfg.Paths.DocsDir)
	out.Newline()
	out.Header("Embeddings")
	out.Plain("  model:      %s", a.embedder.ModelName())
	out.Plain("  dimensions: %d", a.embedder.Dimensions())
	out.Newline()
	out.Header("Search")
	out.Plain("  top k:      %d", a.cfg.Search.TopK)
	out.Plain("  alpha:      %.2f", a.cfg.Search.Alpha)
	return nil
}
