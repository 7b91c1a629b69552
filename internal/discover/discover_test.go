package discover_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/discover"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestWalk_IgnoreLayering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n")
	writeFile(t, root, "node_modules/dep/index.js", "console.log(1)\n")
	writeFile(t, root, "build/out.go", "package main\n")
	writeFile(t, root, "vendor.py", "x = 1\n")
	writeFile(t, root, ".gitignore", "build/\n")
	writeFile(t, root, ".aiignore", "vendor.py\n")
	writeFile(t, root, "README.rb", "puts 1\n")

	d, err := discover.New()
	require.NoError(t, err)

	files, err := d.Walk(root)
	require.NoError(t, err)
	require.Equal(t, []string{"a.go"}, files)
}

func TestWalk_ExtraExcludesApply(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n")
	writeFile(t, root, "generated/gen.go", "package generated\n")

	d, err := discover.New("generated/")
	require.NoError(t, err)

	files, err := d.Walk(root)
	require.NoError(t, err)
	require.Equal(t, []string{"a.go"}, files)
}

func TestWalk_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.go", "package main\n")
	writeFile(t, root, "a.go", "package main\n")
	writeFile(t, root, "m.go", "package main\n")

	d, err := discover.New()
	require.NoError(t, err)

	files, err := d.Walk(root)
	require.NoError(t, err)
	require.Equal(t, []string{"a.go", "m.go", "z.go"}, files)
}
