package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

func sampleChunkRow(hash string) store.ChunkRow {
	return store.ChunkRow{
		ContentHash: hash,
		Text:        "func DoThing() {}",
		Dim:         8,
		Scale:       0.5,
		QVecB64:     store.EncodeQVec([]int8{1, -2, 3, 0, 0, 0, 0, 0}),
	}
}

func sampleRefRow(hash, refID string) store.RefRow {
	return store.RefRow{
		RefID:       refID,
		ContentHash: hash,
		File:        "a.go",
		Symbol:      "DoThing",
		Kind:        model.KindFunction,
		Signature:   "func DoThing()",
		StartLine:   1,
		EndLine:     3,
	}
}

func TestOpen_CreateIfMissingThenOpenOnly(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	vs, err := store.Open(dir, 8, store.CreateIfMissing, []model.Lang{model.LangGo})
	require.NoError(t, err)

	require.NoError(t, vs.InsertChunks(ctx, model.LangGo, []store.ChunkRow{sampleChunkRow("h1")}))
	require.NoError(t, vs.InsertRefs(ctx, model.LangGo, []store.RefRow{sampleRefRow("h1", "r1")}))
	require.NoError(t, vs.Close())

	vs2, err := store.Open(dir, 8, store.OpenOnly, []model.Lang{model.LangGo})
	require.NoError(t, err)
	defer vs2.Close()

	hashes, err := vs2.ExistingHashes(ctx, model.LangGo)
	require.NoError(t, err)
	assert.True(t, hashes["h1"])
}

func TestOpen_OpenOnlyMissingTableErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := store.Open(dir, 8, store.OpenOnly, []model.Lang{model.LangGo})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrTableMissing))
}

func TestOpen_OverwriteDropsExistingRows(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	vs, err := store.Open(dir, 8, store.CreateIfMissing, []model.Lang{model.LangGo})
	require.NoError(t, err)
	require.NoError(t, vs.InsertChunks(ctx, model.LangGo, []store.ChunkRow{sampleChunkRow("h1")}))
	require.NoError(t, vs.Close())

	vs2, err := store.Open(dir, 8, store.Overwrite, []model.Lang{model.LangGo})
	require.NoError(t, err)
	defer vs2.Close()

	hashes, err := vs2.ExistingHashes(ctx, model.LangGo)
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestInsertChunks_DedupesByContentHash(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vs, err := store.Open(dir, 8, store.CreateIfMissing, []model.Lang{model.LangGo})
	require.NoError(t, err)
	defer vs.Close()

	row := sampleChunkRow("dup")
	require.NoError(t, vs.InsertChunks(ctx, model.LangGo, []store.ChunkRow{row}))
	require.NoError(t, vs.InsertChunks(ctx, model.LangGo, []store.ChunkRow{row}))

	chunks, err := vs.AllChunks(ctx, model.LangGo)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestQuerySymbolCandidates_PushdownAndNoPredicate(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vs, err := store.Open(dir, 8, store.CreateIfMissing, []model.Lang{model.LangGo})
	require.NoError(t, err)
	defer vs.Close()

	require.NoError(t, vs.InsertRefs(ctx, model.LangGo, []store.RefRow{
		sampleRefRow("h1", "r1"),
		{RefID: "r2", ContentHash: "h2", File: "b.go", Symbol: "Other", Kind: model.KindFunction, Signature: "func Other()", StartLine: 10, EndLine: 12},
	}))

	all, err := vs.QuerySymbolCandidates(ctx, model.LangGo, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := vs.QuerySymbolCandidates(ctx, model.LangGo, "symbol LIKE 'Do%'", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "DoThing", filtered[0].Symbol)
}

func TestQueryFileCandidates_SharesWhereClauseShape(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vs, err := store.Open(dir, 8, store.CreateIfMissing, []model.Lang{model.LangGo})
	require.NoError(t, err)
	defer vs.Close()

	require.NoError(t, vs.InsertRefs(ctx, model.LangGo, []store.RefRow{
		sampleRefRow("h1", "r1"),
		{RefID: "r2", ContentHash: "h2", File: "b.go", Symbol: "Other", Kind: model.KindFunction, Signature: "func Other()", StartLine: 10, EndLine: 12},
	}))

	files, err := vs.QueryFileCandidates(ctx, model.LangGo, "symbol LIKE 'a%'", 10)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.go", files[0])
}

func TestRefsByContentHash(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	vs, err := store.Open(dir, 8, store.CreateIfMissing, []model.Lang{model.LangGo})
	require.NoError(t, err)
	defer vs.Close()

	require.NoError(t, vs.InsertRefs(ctx, model.LangGo, []store.RefRow{
		sampleRefRow("h1", "r1"),
		{RefID: "r2", ContentHash: "h2", File: "b.go", Symbol: "Other", Kind: model.KindFunction, Signature: "func Other()", StartLine: 10, EndLine: 12},
	}))

	refs, err := vs.RefsByContentHash(ctx, model.LangGo, []string{"h2"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Other", refs[0].Symbol)
}

func TestEncodeDecodeQVec_RoundTrip(t *testing.T) {
	q := []int8{-127, -1, 0, 1, 127}
	b64 := store.EncodeQVec(q)
	got, err := store.DecodeQVec(b64)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}
