package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/passagekit/passage/internal/ingest"
	"github.com/passagekit/passage/internal/output"
)

func newIngestCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Chunk, embed, and index documents",
		Long: `Ingest loads every .txt and .md file under the given directory
(default: the configured docs directory), splits them into overlapping
chunks, embeds each chunk, and writes everything to the local index.

Re-ingesting a document replaces its previous chunks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runIngest(cmd, dir, watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"Keep running and re-ingest documents as they change")
	return cmd
}

func runIngest(cmd *cobra.Command, dir string, watch bool) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if dir == "" {
		dir = a.cfg.Paths.DocsDir
	}

	out.Plain("Ingesting %s with model %s...", dir, a.embedder.ModelName())
	stats, err := a.pipeline.IngestDir(ctx, dir)
	if err != nil {
		return err
	}

	out.Success("indexed %d/%d chunks from %d documents in %s",
		stats.IndexedChunks, stats.Chunks, stats.Documents,
		stats.Duration.Round(1e6))
	if stats.FailedChunks > 0 {
		out.Warning("%d chunks failed to index:", stats.FailedChunks)
		for _, err := range stats.Errors {
			out.Dim("  %v", err)
		}
	}

	if !watch {
		return nil
	}

	// Persist what we have before blocking in watch mode, so a kill
	// signal cannot lose the initial ingest.
	if err := a.backend.Save(); err != nil {
		return err
	}

	out.Plain("Watching %s for changes (ctrl-c to stop)...", dir)
	err = ingest.NewWatcher(a.pipeline, dir).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
