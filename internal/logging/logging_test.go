package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, int(-4), int(parseLevel("debug")))
	assert.Equal(t, int(0), int(parseLevel("info")))
	assert.Equal(t, int(4), int(parseLevel("warn")))
	assert.Equal(t, int(8), int(parseLevel("error")))
	assert.Equal(t, int(0), int(parseLevel("bogus")))
}

func TestLevelFromString_RejectsUnknown(t *testing.T) {
	_, err := LevelFromString("verbose")
	assert.Error(t, err)
}

func TestLevelFromString_AcceptsKnown(t *testing.T) {
	lvl, err := LevelFromString("WARN")
	require.NoError(t, err)
	assert.Equal(t, int(4), int(lvl))
}

func TestSetup_WritesJSONLogLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitai.log")

	logger, cleanup, err := Setup(Config{
		Level:     "debug",
		FilePath:  path,
		MaxSizeMB: 1,
		MaxFiles:  3,
	})
	require.NoError(t, err)

	logger.Info("indexing started", "files", 12)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "indexing started")
	assert.Contains(t, string(data), "\"files\":12")
}

func TestSetup_DefaultsFillZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitai.log")

	_, cleanup, err := Setup(Config{FilePath: path})
	require.NoError(t, err)
	cleanup()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDefaultConfig_SetsSaneValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.False(t, cfg.WriteToStderr)
}

func TestDebugConfig_EnablesStderrAndDebugLevel(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.WriteToStderr)
}
