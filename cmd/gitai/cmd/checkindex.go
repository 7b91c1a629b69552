package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitai-dev/gitai/internal/checkindex"
	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
)

func newCheckIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-index",
		Short: "Verify the on-disk .git-ai index is structurally sound (spec.md §4.12)",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := resolveRepoRoot()
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeInternal, err)
			}

			res := checkindex.Check(repoRoot)
			if jsonOutput {
				if printErr := printResult(res); printErr != nil {
					return printErr
				}
			} else {
				fmt.Printf("ok: %v\n", res.OK)
				for _, p := range res.Problems {
					fmt.Println("  problem:", p)
				}
				for _, w := range res.Warnings {
					fmt.Println("  warning:", w)
				}
				if res.Hint != "" {
					fmt.Println("  hint:", res.Hint)
				}
			}
			if !res.OK {
				return gitaierrors.New(gitaierrors.ErrCodeCorruptIndex, "index check failed", nil)
			}
			return nil
		},
	}
}
