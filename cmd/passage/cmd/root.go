// Package cmd provides the CLI commands for Passage.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/passagekit/passage/internal/logging"
	"github.com/passagekit/passage/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the passage root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passage",
		Short: "Local hybrid retrieval over your documents",
		Long: `Passage indexes text documents into a local keyword and vector
index, then answers queries with hybrid retrieval: BM25 and embedding
search fused with Reciprocal Rank Fusion.

Typical workflow:

  passage init
  passage ingest ./docs
  passage search "how do I rotate credentials"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("passage version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"Enable debug logging to ~/.passage/logs/")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging routes structured logs to the rotated log file. Stderr
// stays clean for command output unless debugging.
func setupLogging() {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if debugMode {
		cfg.Level = "debug"
		cfg.WriteToStderr = true
	}
	if cleanup, err := logging.SetupDefault(cfg); err == nil {
		loggingCleanup = cleanup
	}
}

// Execute runs the root command with a signal-aware context so
// ctrl-c cleanly stops long operations like watch mode.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
