package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/pkg/repomap"
)

func newGraphRepomapCmd() *cobra.Command {
	var (
		maxFiles   int
		maxSymbols int
		wikiDir    string
	)

	cmd := &cobra.Command{
		Use:   "repomap",
		Short: "PageRank over the symbol/call graph, aggregated per file (spec.md §4.11)",
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()

			resolvedWikiDir := wikiDir
			if resolvedWikiDir != "" && !filepath.IsAbs(resolvedWikiDir) {
				resolvedWikiDir = filepath.Join(oi.repoRoot, resolvedWikiDir)
			}

			ranks, err := repomap.Build(cmd.Context(), oi.gs, repomap.Options{
				MaxFiles:          maxFiles,
				MaxSymbolsPerFile: maxSymbols,
				WikiDir:           resolvedWikiDir,
			})
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}

			if jsonOutput {
				return printResult(ranks)
			}
			for _, r := range ranks {
				fmt.Printf("%.6f  %s", r.Rank, r.File)
				if r.WikiLink != "" {
					fmt.Printf("  (%s)", r.WikiLink)
				}
				fmt.Println()
				for _, s := range r.Symbols {
					fmt.Printf("    %.6f  %s (%s)\n", s.Rank, s.Name, s.Kind)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxFiles, "max-files", 20, "maximum ranked files to return")
	cmd.Flags().IntVar(&maxSymbols, "max-symbols-per-file", 5, "maximum ranked symbols per file")
	cmd.Flags().StringVar(&wikiDir, "wiki-dir", "", "optional directory of markdown pages to link by basename")

	return cmd
}
