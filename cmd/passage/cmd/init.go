package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/passagekit/passage/internal/config"
	"github.com/passagekit/passage/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a passage.yaml and the data directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing passage.yaml")
	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	if _, err := os.Stat(config.ConfigFileName); err == nil && !force {
		out.Warning("%s already exists, use --force to overwrite", config.ConfigFileName)
		return nil
	}

	cfg := config.New()
	if err := cfg.Save(root); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Paths.DocsDir, 0o755); err != nil {
		return err
	}

	out.Success("wrote %s", config.ConfigFileName)
	out.Plain("  data directory: %s", cfg.Paths.DataDir)
	out.Plain("  docs directory: %s", cfg.Paths.DocsDir)
	out.Newline()
	out.Plain("Put .txt or .md files under %s and run 'passage ingest'.", cfg.Paths.DocsDir)
	return nil
}
