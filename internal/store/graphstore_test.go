package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

func sampleBatch() store.Batch {
	return store.Batch{
		Files: []store.FileTuple{
			{FileID: "f1", File: "a.go", Lang: model.LangGo},
		},
		Symbols: []store.SymbolTuple{
			{RefID: "s1", File: "a.go", Lang: model.LangGo, Name: "DoThing", Kind: model.KindFunction, Signature: "func DoThing()", StartLine: 1, EndLine: 3},
			{RefID: "s2", File: "a.go", Lang: model.LangGo, Name: "Helper", Kind: model.KindFunction, Signature: "func Helper()", StartLine: 5, EndLine: 7},
		},
		Contains: []store.ContainsTuple{
			{ParentID: "f1", ChildID: "s1"},
			{ParentID: "f1", ChildID: "s2"},
		},
		Refs: []store.RefNameTuple{
			{FromID: "s1", FromLang: model.LangGo, Name: "Helper", RefKind: model.RefCall, File: "a.go", Line: 2, Col: 2},
		},
		Calls: []store.CallNameTuple{
			{CallerID: "s1", CallerLang: model.LangGo, CalleeName: "Helper", File: "a.go", Line: 2, Col: 2},
		},
	}
}

func TestMemoryGraphStore_WriteAndQuery(t *testing.T) {
	gs := newGraphStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, gs.Write(ctx, store.WriteReplace, sampleBatch()))

	children, err := gs.Children(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	callers, err := gs.Callers(ctx, "helper", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "s1", callers[0].CallerID)

	refs, err := gs.FindReferences(ctx, "HELPER", model.LangGo, false)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	syms, err := gs.FindByPrefix(ctx, "do", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "DoThing", syms[0].Name)
}

func TestMemoryGraphStore_RemoveFile(t *testing.T) {
	gs := newGraphStoreForTest(t)
	ctx := context.Background()
	require.NoError(t, gs.Write(ctx, store.WriteReplace, sampleBatch()))

	require.NoError(t, gs.RemoveFile(ctx, "a.go"))

	syms, err := gs.AllSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, syms)

	calls, err := gs.AllCalls(ctx)
	require.NoError(t, err)
	assert.Empty(t, calls)

	exp, err := gs.Export(ctx)
	require.NoError(t, err)
	assert.Empty(t, exp.Contains)
}

func TestMemoryGraphStore_ExportImportRoundTrip(t *testing.T) {
	gs := newGraphStoreForTest(t)
	ctx := context.Background()
	require.NoError(t, gs.Write(ctx, store.WriteReplace, sampleBatch()))

	exp, err := gs.Export(ctx)
	require.NoError(t, err)

	gs2 := newGraphStoreForTest(t)
	require.NoError(t, gs2.Import(ctx, exp))

	syms, err := gs2.AllSymbols(ctx)
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestWriteReadExportJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ast-graph.export.json")

	exp := store.ExportData{
		Files:   []store.FileTuple{{FileID: "f1", File: "a.go", Lang: model.LangGo}},
		Symbols: []store.SymbolTuple{{RefID: "s1", File: "a.go", Lang: model.LangGo, Name: "X", Kind: model.KindFunction}},
	}
	require.NoError(t, store.WriteExportJSON(path, exp))

	got, err := store.ReadExportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, exp.Files, got.Files)
	assert.Equal(t, exp.Symbols, got.Symbols)
}

func TestOpenGraphStore_FallsBackOrOpensSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "graph.db")
	exportPath := filepath.Join(dir, "graph.export.json")
	gs, status := store.OpenGraphStore(dbPath, exportPath, "auto")
	defer gs.Close()

	if status.Enabled {
		assert.Equal(t, "sqlite3", status.Engine)
	} else {
		assert.Equal(t, "memory", status.Engine)
		assert.NotEmpty(t, status.SkippedReason)
	}

	ctx := context.Background()
	require.NoError(t, gs.Write(ctx, store.WriteReplace, sampleBatch()))
	syms, err := gs.SymbolsByName(ctx, "dothing", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "DoThing", syms[0].Name)
}

func TestOpenGraphStore_MemoryBackendHydratesFromExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "graph.db")
	exportPath := filepath.Join(dir, "graph.export.json")
	ctx := context.Background()

	first, status := store.OpenGraphStore(dbPath, exportPath, "memory")
	assert.False(t, status.Enabled)
	require.NoError(t, first.Write(ctx, store.WriteReplace, sampleBatch()))
	exp, err := first.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, store.WriteExportJSON(exportPath, exp))
	require.NoError(t, first.Close())

	second, status := store.OpenGraphStore(dbPath, exportPath, "memory")
	assert.False(t, status.Enabled)
	defer second.Close()

	syms, err := second.SymbolsByName(ctx, "dothing", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, syms, 1, "a fresh memory backend should rehydrate from the prior JSON export")
	assert.Equal(t, "DoThing", syms[0].Name)
}

// newGraphStoreForTest opens whichever backend OpenGraphStore resolves to in
// this environment (sqlite3 if cgo is usable, the in-memory fallback
// otherwise); both satisfy the same GraphStore contract exercised here.
func newGraphStoreForTest(t *testing.T) store.GraphStore {
	t.Helper()
	dir := t.TempDir()
	gs, _ := store.OpenGraphStore(filepath.Join(dir, "graph.db"), filepath.Join(dir, "graph.export.json"), "auto")
	t.Cleanup(func() { _ = gs.Close() })
	return gs
}
