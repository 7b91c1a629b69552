package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gitai-dev/gitai/internal/checkindex"
	"github.com/gitai-dev/gitai/internal/config"
	gitaierrors "github.com/gitai-dev/gitai/internal/errors"
	"github.com/gitai-dev/gitai/internal/store"
	"github.com/gitai-dev/gitai/pkg/indexer"
)

const (
	gitAIDir        = ".git-ai"
	metaFile        = "meta.json"
	graphFile       = "ast-graph.sqlite"
	graphExportFile = "ast-graph.export.json"
)

// openedIndex bundles the handles every query subcommand needs.
type openedIndex struct {
	repoRoot string
	meta     indexer.Meta
	vs       *store.VectorStore
	gs       store.GraphStore
}

func (oi *openedIndex) Close() {
	if oi.vs != nil {
		_ = oi.vs.Close()
	}
	if oi.gs != nil {
		_ = oi.gs.Close()
	}
}

// resolveRepoRoot finds the project root from the current working
// directory, falling back to cwd if no .git/.git-ai.yaml is found.
func resolveRepoRoot() (string, error) {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		return os.Getwd()
	}
	return root, nil
}

// openIndex verifies the index with checkindex and opens the vector and
// graph stores in read-only mode for querying. Verification failures are
// reported as a corrupt-index error, mapping to exit code 2.
func openIndex() (*openedIndex, error) {
	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return nil, gitaierrors.Wrap(gitaierrors.ErrCodeInternal, err)
	}

	res := checkindex.Check(repoRoot)
	if !res.OK {
		return nil, gitaierrors.New(gitaierrors.ErrCodeCorruptIndex,
			fmt.Sprintf("index check failed: %v", res.Problems), nil).
			WithDetail("hint", res.Hint)
	}

	metaPath := filepath.Join(repoRoot, gitAIDir, metaFile)
	b, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, gitaierrors.Wrap(gitaierrors.ErrCodeFileNotFound, err)
	}
	var meta indexer.Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, gitaierrors.Wrap(gitaierrors.ErrCodeCorruptIndex, err)
	}

	dbDir := meta.DBDir
	if !filepath.IsAbs(dbDir) {
		dbDir = filepath.Join(repoRoot, dbDir)
	}
	vs, err := store.Open(dbDir, meta.Dim, store.OpenOnly, meta.Languages)
	if err != nil {
		return nil, gitaierrors.Wrap(gitaierrors.ErrCodeCorruptIndex, err)
	}

	backend := "auto"
	if cfg, cfgErr := config.Load(repoRoot); cfgErr == nil {
		backend = cfg.Graph.Backend
	}
	gs, status := store.OpenGraphStore(
		filepath.Join(repoRoot, gitAIDir, graphFile),
		filepath.Join(repoRoot, gitAIDir, graphExportFile),
		backend,
	)
	if !status.Enabled {
		slog.Warn("graph store unavailable, using in-memory fallback", "reason", status.SkippedReason)
	}

	return &openedIndex{repoRoot: repoRoot, meta: meta, vs: vs, gs: gs}, nil
}

// printResult renders v as JSON when --json is set, otherwise falls back
// to a human-readable %+v dump (each subcommand overrides this with a
// proper table where it matters).
func printResult(v interface{}) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Printf("%+v\n", v)
	return nil
}
