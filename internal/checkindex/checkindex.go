// Package checkindex implements check_index: verifies an on-disk .git-ai
// index directory is structurally sound and usable by the query packages,
// without re-parsing or re-embedding anything.
package checkindex

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gitai-dev/gitai/internal/store"
	"github.com/gitai-dev/gitai/pkg/indexer"
)

// Result is check_index's return shape, per spec §4.12.
type Result struct {
	OK       bool     `json:"ok"`
	Problems []string `json:"problems"`
	Warnings []string `json:"warnings"`
	Expected string   `json:"expected,omitempty"`
	Found    string   `json:"found,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

const (
	gitAIDir  = ".git-ai"
	metaFile  = "meta.json"
	graphFile = "ast-graph.sqlite"
	graphJSON = "ast-graph.export.json"
)

// Check runs check_index(repo_root): reads meta.json, validates the schema
// version, confirms the vector store opens and every declared language's
// tables exist, confirms the graph store path exists, and compares the
// recorded commit hash against current HEAD (a warning, not a failure, on
// mismatch).
func Check(repoRoot string) Result {
	res := Result{OK: true}

	metaPath := filepath.Join(repoRoot, gitAIDir, metaFile)
	b, err := os.ReadFile(metaPath)
	if err != nil {
		res.OK = false
		res.Problems = append(res.Problems, fmt.Sprintf("meta file unreadable: %v", err))
		res.Hint = "run index to (re)build .git-ai"
		return res
	}

	var meta indexer.Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		res.OK = false
		res.Problems = append(res.Problems, fmt.Sprintf("meta file unparseable: %v", err))
		res.Hint = "meta.json is corrupt; run index --overwrite to rebuild"
		return res
	}

	res.Expected = fmt.Sprintf("%d", indexer.IndexSchemaVersion)
	res.Found = fmt.Sprintf("%d", meta.IndexSchemaVersion)
	if meta.IndexSchemaVersion != indexer.IndexSchemaVersion {
		res.OK = false
		res.Problems = append(res.Problems, fmt.Sprintf(
			"index_schema_version mismatch: expected %d, found %d", indexer.IndexSchemaVersion, meta.IndexSchemaVersion))
		res.Hint = "run index --overwrite to rebuild with the current schema"
	}

	dbDir := resolvePath(repoRoot, meta.DBDir)
	if st, err := os.Stat(dbDir); err != nil || !st.IsDir() {
		res.OK = false
		res.Problems = append(res.Problems, fmt.Sprintf("vector store directory missing: %s", dbDir))
	} else if err := checkVectorTables(dbDir, meta); err != nil {
		res.OK = false
		res.Problems = append(res.Problems, err.Error())
	}

	graphPath := filepath.Join(repoRoot, gitAIDir, graphFile)
	graphJSONPath := filepath.Join(repoRoot, gitAIDir, graphJSON)
	if _, err := os.Stat(graphPath); err != nil {
		if _, jsonErr := os.Stat(graphJSONPath); jsonErr != nil {
			res.OK = false
			res.Problems = append(res.Problems, "graph store path missing (neither sqlite db nor export json found)")
		}
	}

	if meta.CommitHash != "" {
		if head := resolveHead(repoRoot); head != "" && head != meta.CommitHash {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"commit_hash mismatch: index was built at %s, HEAD is now %s", meta.CommitHash, head))
		}
	}

	return res
}

// checkVectorTables confirms chunks_<lang>/refs_<lang> exist for every
// language declared in meta, by attempting an OpenOnly open (which fails
// fast on the first missing table).
func checkVectorTables(dbDir string, meta indexer.Meta) error {
	vs, err := store.Open(dbDir, meta.Dim, store.OpenOnly, meta.Languages)
	if err != nil {
		return fmt.Errorf("vector store table check failed: %w", err)
	}
	defer vs.Close()
	return nil
}

func resolvePath(repoRoot, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(repoRoot, rel)
}

func resolveHead(repoRoot string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return trimNewline(string(out))
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
