package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/checkindex"
	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/pkg/indexer"
)

const sampleMarkdown = `# Title

Intro text.

## Section One

Body one.
`

// buildIndexedRepo creates a small repo, indexes it, and returns its root.
func buildIndexedRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte(sampleMarkdown), 0o644))

	_, err := indexer.Run(context.Background(), indexer.Config{RepoRoot: dir, ScanRoot: ".", Dim: 16})
	require.NoError(t, err)

	res := checkindex.Check(dir)
	require.True(t, res.OK, "fixture index should be healthy: %v", res.Problems)
	return dir
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestCheckIndexCmd_HealthyIndexSucceeds(t *testing.T) {
	dir := buildIndexedRepo(t)
	chdir(t, dir)
	jsonOutput = false

	cmd := newCheckIndexCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	err := cmd.Execute()
	assert.NoError(t, err)
}

func TestCheckIndexCmd_JSONOutput(t *testing.T) {
	dir := buildIndexedRepo(t)
	chdir(t, dir)
	jsonOutput = true
	defer func() { jsonOutput = false }()

	cmd := newCheckIndexCmd()
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestCheckIndexCmd_MissingIndexFails(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	jsonOutput = false

	err := newCheckIndexCmd().Execute()
	assert.Error(t, err)
}

func TestStatusCmd_PrintsMeta(t *testing.T) {
	dir := buildIndexedRepo(t)
	chdir(t, dir)
	jsonOutput = true
	defer func() { jsonOutput = false }()

	cmd := newStatusCmd()
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestQueryCmd_FindsIndexedSymbol(t *testing.T) {
	dir := buildIndexedRepo(t)
	chdir(t, dir)
	jsonOutput = true
	defer func() { jsonOutput = false }()

	cmd := newQueryCmd()
	cmd.SetArgs([]string{"Title"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestSemanticCmd_ReturnsHits(t *testing.T) {
	dir := buildIndexedRepo(t)
	chdir(t, dir)
	jsonOutput = true
	defer func() { jsonOutput = false }()

	cmd := newSemanticCmd()
	cmd.SetArgs([]string{"intro text"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestGraphFindCmd_ReturnsSymbols(t *testing.T) {
	dir := buildIndexedRepo(t)
	chdir(t, dir)
	jsonOutput = true
	defer func() { jsonOutput = false }()

	cmd := newGraphFindCmd()
	cmd.SetArgs([]string{"Title"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestExitCode_MapsCorruptIndexToTwo(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	root := NewRootCmd()
	root.SetArgs([]string{"check-index"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestResolveQueryLang_AutoPicksPreferenceOrder(t *testing.T) {
	l, allLangs, err := resolveQueryLang("auto", []model.Lang{model.LangGo, model.LangPython})
	require.NoError(t, err)
	assert.False(t, allLangs)
	assert.Equal(t, model.LangPython, l) // python precedes go in PreferenceOrder
}

func TestResolveQueryLang_AutoWithNoLanguagesErrors(t *testing.T) {
	_, _, err := resolveQueryLang("auto", nil)
	assert.Error(t, err)
}

func TestResolveQueryLang_AllSetsFanOut(t *testing.T) {
	_, allLangs, err := resolveQueryLang("all", nil)
	require.NoError(t, err)
	assert.True(t, allLangs)
}
