package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_RotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitai.log")

	w, err := NewRotatingWriter(path, 0, 3) // maxSize=0 -> any write rotates first
	require.NoError(t, err)
	w.maxSize = 10 // force a small threshold deterministically

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("more-data-triggers-rotation"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err, "current log file should exist")
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "rotated file should exist")
}

func TestRotatingWriter_PrunesBeyondMaxFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitai.log")

	w, err := NewRotatingWriter(path, 0, 2)
	require.NoError(t, err)
	w.maxSize = 5

	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat("x", 6)))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "should not keep more than maxFiles rotated logs")
}

func TestRotatingWriter_PicksUpExistingFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitai.log")
	require.NoError(t, os.WriteFile(path, []byte("preexisting"), 0o644))

	w, err := NewRotatingWriter(path, 10, 3)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, int64(len("preexisting")), w.written)
}
