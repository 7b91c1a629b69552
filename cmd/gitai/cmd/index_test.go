package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_BuildsIndexFromScratch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte(sampleMarkdown), 0o644))
	chdir(t, dir)
	jsonOutput = false

	cmd := newIndexCmd()
	cmd.SetArgs([]string{"--no-progress"})
	err := cmd.Execute()
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, ".git-ai", "meta.json"))
	assert.NoError(t, statErr)
}

func TestIndexCmd_OverwriteRebuildsCleanly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte(sampleMarkdown), 0o644))
	chdir(t, dir)
	jsonOutput = false

	require.NoError(t, newIndexCmd().Execute())

	overwriteCmd := newIndexCmd()
	overwriteCmd.SetArgs([]string{"--overwrite", "--no-progress"})
	assert.NoError(t, overwriteCmd.Execute())
}
