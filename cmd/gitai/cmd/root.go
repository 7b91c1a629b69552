// Package cmd implements the gitai CLI: thin cobra subcommands wired
// straight into pkg/indexer, pkg/symbolsearch, pkg/semantic,
// pkg/graphquery, pkg/repomap, and internal/checkindex. It carries no
// semantics of its own — see spec.md §6.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/internal/logging"
)

var (
	jsonOutput bool
	debugMode  bool

	loggingCleanup func()
)

// exitCode maps an error to the CLI's 0/1/2 exit-code contract (spec.md
// §6): 0 success, 2 for an incompatible index (the corrupt-index and
// dimension-mismatch codes), 1 for every other error. An index with no
// languages is reported with the invalid-input code and so exits 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	code := gitaierrors.GetCode(err)
	switch code {
	case gitaierrors.ErrCodeCorruptIndex, gitaierrors.ErrCodeDimensionMismatch:
		return 2
	}
	return 1
}

// NewRootCmd builds the gitai root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gitai",
		Short: "Code intelligence index: symbol search, semantic search, and AST graph queries",
		Long: `gitai indexes a repository's code into a columnar vector store and an
AST call/reference graph, then answers symbol search, semantic search,
and graph queries over that index without re-parsing source on every
query.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of human-readable text")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to the rotating log file")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := logging.DefaultConfig()
		if debugMode {
			cfg = logging.DebugConfig()
		}
		logger, cleanup, err := logging.Setup(cfg)
		if err != nil {
			return err
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	root.AddCommand(newIndexCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newSemanticCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newCheckIndexCmd())
	root.AddCommand(newStatusCmd())

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return 0
}
