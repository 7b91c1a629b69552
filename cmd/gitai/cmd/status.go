package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/pkg/indexer"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current index's meta.json summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := resolveRepoRoot()
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeInternal, err)
			}

			metaPath := filepath.Join(repoRoot, gitAIDir, metaFile)
			b, err := os.ReadFile(metaPath)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeFileNotFound, err)
			}
			var meta indexer.Meta
			if err := json.Unmarshal(b, &meta); err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeCorruptIndex, err)
			}

			if jsonOutput {
				return printResult(meta)
			}
			fmt.Printf("schema version: %d\n", meta.IndexSchemaVersion)
			fmt.Printf("dim:            %d\n", meta.Dim)
			fmt.Printf("languages:      %s\n", langNames(meta.Languages))
			fmt.Printf("scan root:      %s\n", meta.ScanRoot)
			fmt.Printf("commit hash:    %s\n", meta.CommitHash)
			fmt.Printf("ast graph:      enabled=%v engine=%s\n", meta.AstGraph.Enabled, meta.AstGraph.Engine)
			return nil
		},
	}
}
