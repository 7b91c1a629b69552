package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/pkg/graphquery"
)

func newGraphCmd() *cobra.Command {
	graph := &cobra.Command{
		Use:   "graph",
		Short: "AST graph queries: find, children, refs, callers, callees, chain (spec.md §4.10)",
	}

	graph.AddCommand(newGraphFindCmd())
	graph.AddCommand(newGraphChildrenCmd())
	graph.AddCommand(newGraphRefsCmd())
	graph.AddCommand(newGraphCallersCmd())
	graph.AddCommand(newGraphCalleesCmd())
	graph.AddCommand(newGraphChainCmd())
	graph.AddCommand(newGraphRepomapCmd())

	return graph
}

func langFlag(cmd *cobra.Command, lang *string) {
	cmd.Flags().StringVar(lang, "lang", "auto", "language, 'auto', or 'all'")
}

func newGraphFindCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "find <prefix>",
		Short: "find(prefix, lang?): symbols whose name has the given prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()
			l, allLangs := graphquery.ResolveLang(lang, oi.meta.Languages)
			hits, err := graphquery.Find(cmd.Context(), oi.gs, args[0], l, allLangs)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}
			return printResult(hits)
		},
	}
	langFlag(cmd, &lang)
	return cmd
}

func newGraphChildrenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children <parent-id>",
		Short: "children(parent_id): symbols contained by parent_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()
			hits, err := graphquery.Children(cmd.Context(), oi.gs, args[0])
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}
			return printResult(hits)
		},
	}
	return cmd
}

func newGraphRefsCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "refs <name>",
		Short: "find_references(name, lang?): reference rows matching name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()
			l, allLangs := graphquery.ResolveLang(lang, oi.meta.Languages)
			hits, err := graphquery.FindReferences(cmd.Context(), oi.gs, args[0], l, allLangs)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}
			return printResult(hits)
		},
	}
	langFlag(cmd, &lang)
	return cmd
}

func newGraphCallersCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "callers <name>",
		Short: "callers(name, lang?): call sites whose callee name matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()
			l, allLangs := graphquery.ResolveLang(lang, oi.meta.Languages)
			hits, err := graphquery.Callers(cmd.Context(), oi.gs, args[0], l, allLangs)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}
			return printResult(hits)
		},
	}
	langFlag(cmd, &lang)
	return cmd
}

func newGraphCalleesCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "callees <name>",
		Short: "callees(name, lang?): call sites made by symbols named name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()
			l, allLangs := graphquery.ResolveLang(lang, oi.meta.Languages)
			hits, err := graphquery.Callees(cmd.Context(), oi.gs, args[0], l, allLangs)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}
			return printResult(hits)
		},
	}
	langFlag(cmd, &lang)
	return cmd
}

func newGraphChainCmd() *cobra.Command {
	var (
		lang       string
		direction  string
		maxDepth   int
		minNameLen int
	)
	cmd := &cobra.Command{
		Use:   "chain <name>",
		Short: "call_chain(name, direction, max_depth, lang): bounded call-graph walk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oi, err := openIndex()
			if err != nil {
				return err
			}
			defer oi.Close()
			l, allLangs := graphquery.ResolveLang(lang, oi.meta.Languages)
			dir := graphquery.Downstream
			if direction == "upstream" {
				dir = graphquery.Upstream
			}
			edges, err := graphquery.CallChain(cmd.Context(), oi.gs, args[0], dir, maxDepth, l, allLangs, minNameLen)
			if err != nil {
				return gitaierrors.Wrap(gitaierrors.ErrCodeGraphFailed, err)
			}
			if jsonOutput {
				return printResult(edges)
			}
			for _, e := range edges {
				fmt.Printf("d=%d  %s -> %s  (%s)\n", e.Depth, e.CallerName, e.CalleeName, e.Lang)
			}
			return nil
		},
	}
	langFlag(cmd, &lang)
	cmd.Flags().StringVar(&direction, "direction", "downstream", "downstream or upstream")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 3, "maximum walk depth")
	cmd.Flags().IntVar(&minNameLen, "min-name-len", 0, "filter edges whose caller/callee name is shorter than this")
	return cmd
}
