package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/pkg/semantic"
)

func newSemanticCmd() *cobra.Command {
	var (
		topK int
		lang string
	)

	cmd := &cobra.Command{
		Use:   "semantic <text>",
		Short: "Semantic (embedding) search over the index (spec.md §4.9)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()

			l, allLangs, err := resolveQueryLang(lang, oi.meta.Languages)
			if err != nil {
				return err
			}

			hits, err := semantic.Search(cmd.Context(), oi.vs, oi.meta.Languages, semantic.Query{
				Text:     args[0],
				Dim:      oi.meta.Dim,
				TopK:     topK,
				Lang:     l,
				AllLangs: allLangs,
			})
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeSearchFailed, err)
			}

			if jsonOutput {
				return printResult(hits)
			}
			for _, h := range hits {
				fmt.Printf("%.4f  %s  %s\n", h.Score, h.Lang, h.ContentHash)
				for _, r := range h.Refs {
					fmt.Printf("    %s:%d-%d %s\n", r.File, r.StartLine, r.EndLine, r.Symbol)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 10, "maximum results")
	cmd.Flags().StringVar(&lang, "lang", "auto", "language, 'auto', or 'all'")

	return cmd
}
