package hashid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/hashid"
	"github.com/gitai-dev/gitai/internal/model"
)

func TestSHA256Hex_Deterministic(t *testing.T) {
	a := hashid.SHA256Hex("hello")
	b := hashid.SHA256Hex("hello")
	require.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, hashid.SHA256Hex("hellO"))
}

func TestToPosix(t *testing.T) {
	assert.Equal(t, "a/b/c.go", hashid.ToPosix(`a\b\c.go`))
	assert.Equal(t, "a/b/c.go", hashid.ToPosix("a/b/c.go"))
}

func TestFileID_StableAndPathSeparatorInvariant(t *testing.T) {
	id1 := hashid.FileID(hashid.ToPosix(`pkg\foo\bar.go`))
	id2 := hashid.FileID(hashid.ToPosix("pkg/foo/bar.go"))
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, hashid.FileID("pkg/foo/baz.go"))
}

func TestContentHash_SameInputsSameHash(t *testing.T) {
	h1 := hashid.ContentHash("pkg/foo.go", model.KindFunction, "Foo", "func Foo()")
	h2 := hashid.ContentHash("pkg/foo.go", model.KindFunction, "Foo", "func Foo()")
	assert.Equal(t, h1, h2)

	h3 := hashid.ContentHash("pkg/foo.go", model.KindFunction, "Foo", "func Foo(x int)")
	assert.NotEqual(t, h1, h3)
}

func TestRefID_DistinguishesOccurrences(t *testing.T) {
	ch := hashid.ContentHash("pkg/foo.go", model.KindFunction, "Foo", "func Foo()")
	r1 := hashid.RefID("pkg/foo.go", "Foo", model.KindFunction, 10, 20, ch)
	r2 := hashid.RefID("pkg/foo.go", "Foo", model.KindFunction, 10, 21, ch)
	assert.NotEqual(t, r1, r2)

	r3 := hashid.RefID("pkg/foo.go", "Foo", model.KindFunction, 10, 20, ch)
	assert.Equal(t, r1, r3)
}
