package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 256, cfg.Embeddings.Dim)
	assert.Equal(t, "auto", cfg.Graph.Backend)
	assert.Equal(t, ".", cfg.Paths.ScanRoot)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Embeddings.Dim, cfg.Embeddings.Dim)
}

func TestLoad_MergesProjectFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "embeddings:\n  dim: 512\ngraph:\n  backend: memory\npaths:\n  scan_root: src\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git-ai.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Embeddings.Dim)
	assert.Equal(t, "memory", cfg.Graph.Backend)
	assert.Equal(t, "src", cfg.Paths.ScanRoot)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "embeddings:\n  dim: 512\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git-ai.yaml"), []byte(yaml), 0o644))

	t.Setenv("GITAI_DIM", "128")
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Embeddings.Dim)
}

func TestLoad_InvalidGraphBackendFails(t *testing.T) {
	dir := t.TempDir()
	yaml := "graph:\n  backend: lancedb\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git-ai.yaml"), []byte(yaml), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsNonPositiveDim(t *testing.T) {
	cfg := Default()
	cfg.Embeddings.Dim = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeWorkers(t *testing.T) {
	cfg := Default()
	cfg.Performance.Workers = -1
	assert.Error(t, cfg.Validate())
}

func TestFindProjectRoot_StopsAtGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedFound, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, resolvedRoot, resolvedFound)
}

func TestFindProjectRoot_StopsAtConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git-ai.yaml"), []byte("version: 1\n"), 0o644))
	nested := filepath.Join(root, "x")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedFound, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, resolvedRoot, resolvedFound)
}

func TestFindProjectRoot_FallsBackToStartDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "no-git-here")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(nested)
	resolvedFound, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, resolved, resolvedFound)
}
