package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitai-dev/gitai/internal/config"
	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/uiprogress"
	"github.com/gitai-dev/gitai/pkg/indexer"
)

func newIndexCmd() *cobra.Command {
	var (
		scanRoot    string
		overwrite   bool
		incremental bool
		changed     []string
		workers     int
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or update the .git-ai index for the current repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := resolveRepoRoot()
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeInternal, err)
			}

			cfg, err := config.Load(repoRoot)
			if err != nil {
				return err
			}

			root := scanRoot
			if root == "" {
				root = cfg.Paths.ScanRoot
			}
			w := workers
			if w == 0 {
				w = cfg.Performance.Workers
			}

			reporter := uiprogress.New(uiprogress.Config{
				Output:     os.Stderr,
				ForcePlain: noProgress || jsonOutput,
			})

			icfg := indexer.Config{
				RepoRoot:     repoRoot,
				ScanRoot:     root,
				Dim:          cfg.Embeddings.Dim,
				Overwrite:    overwrite,
				Incremental:  incremental,
				ChangedFiles: changed,
				Workers:      w,
				Exclude:      cfg.Paths.Exclude,
				GraphBackend: cfg.Graph.Backend,
				OnProgress: func(p indexer.Progress) {
					reporter.Update(uiprogress.Event{Total: p.Total, Processed: p.Processed, Current: p.Current})
				},
			}

			result, err := indexer.Run(cmd.Context(), icfg)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeIndexFailed, err)
			}

			summary := fmt.Sprintf("indexed %d files in %s (%s)",
				result.Files, result.Duration.Round(1e7), strings.Join(langNames(result.Meta.Languages), ","))
			reporter.Done(summary)

			if jsonOutput {
				return printResult(result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scanRoot, "scan-root", "", "directory to scan, relative to repo root (default: config)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "drop and rebuild every language's tables")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "only (re)index --changed files")
	cmd.Flags().StringSliceVar(&changed, "changed", nil, "repo-root-relative paths to (re)index when --incremental is set")
	cmd.Flags().IntVar(&workers, "workers", 0, "parse-stage concurrency (default: config/NumCPU)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "print plain per-file progress lines instead of the refreshing progress line")

	return cmd
}

func langNames(langs []model.Lang) []string {
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}
