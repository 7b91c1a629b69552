package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/pkg/symbolsearch"
)

func newQueryCmd() *cobra.Command {
	var (
		mode            string
		caseInsensitive bool
		limit           int
		lang            string
		files           bool
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Symbol or file-name search over the index (spec.md §4.8)",
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

			q := symbolsearch.Query{
				Text:            args[0],
				Mode:            symbolsearch.Mode(mode),
				CaseInsensitive: caseInsensitive,
				Limit:           limit,
				Lang:            l,
				AllLangs:        allLangs,
			}

			if files {
				hits, err := symbolsearch.SearchFiles(cmd.Context(), oi.vs, oi.meta.Languages, q)
				if err != nil {
					return gitaierrors.Wrap(gitaierrors.ErrCodeSearchFailed, err)
				}
				return printQueryFileHits(hits)
			}

			hits, err := symbolsearch.SearchSymbols(cmd.Context(), oi.vs, oi.meta.Languages, q)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeSearchFailed, err)
			}
			return printQuerySymbolHits(hits)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "substring, prefix, wildcard, regex, fuzzy (default: infer)")
	cmd.Flags().BoolVar(&caseInsensitive, "ignore-case", false, "case-insensitive matching")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	cmd.Flags().StringVar(&lang, "lang", "auto", "language, 'auto', or 'all'")
	cmd.Flags().BoolVar(&files, "files", false, "search file names instead of symbol names")

	return cmd
}

// resolveQueryLang mirrors graphquery.ResolveLang's auto/all selector
// without importing it here, since symbolsearch languages (available)
// come straight from meta.json.
func resolveQueryLang(selector string, available []model.Lang) (model.Lang, bool, error) {
	if selector == "all" {
		return "", true, nil
	}
	if selector == "" || selector == "auto" {
		for _, pref := range model.PreferenceOrder {
			for _, a := range available {
				if a == pref {
					return pref, false, nil
				}
			}
		}
		if len(available) > 0 {
			return available[0], false, nil
		}
		return "", false, gitaierrors.New(gitaierrors.ErrCodeInvalidInput, "no languages available in index", nil)
	}
	return model.Lang(selector), false, nil
}

func printQuerySymbolHits(hits []symbolsearch.Hit) error {
	if jsonOutput {
		return printResult(hits)
	}
	for _, h := range hits {
		fmt.Printf("%-40s %-10s %s:%d-%d\n", h.Symbol, h.Kind, h.File, h.StartLine, h.EndLine)
	}
	return nil
}

func printQueryFileHits(hits []string) error {
	if jsonOutput {
		return printResult(hits)
	}
	for _, h := range hits {
		fmt.Println(h)
	}
	return nil
}
