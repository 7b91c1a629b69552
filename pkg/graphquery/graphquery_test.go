package graphquery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

// setupGraph opens a graph store (sqlite3 if cgo is available, else the
// in-memory fallback — both implement store.GraphStore identically for
// these tests) and seeds it with a small call graph:
//
//	main -> doThing -> helper
//	main -> helper
func setupGraph(t *testing.T) store.GraphStore {
	t.Helper()
	dir := t.TempDir()
	gs, _ := store.OpenGraphStore(filepath.Join(dir, "ast-graph.sqlite"), filepath.Join(dir, "ast-graph.export.json"), "auto")
	t.Cleanup(func() { _ = gs.Close() })

	batch := store.Batch{
		Files: []store.FileTuple{
			{FileID: "file:main.go", File: "main.go", Lang: model.LangGo},
		},
		Symbols: []store.SymbolTuple{
			{RefID: "sym:main", File: "main.go", Lang: model.LangGo, Name: "main", Kind: model.KindFunction, Signature: "func main()", StartLine: 1, EndLine: 10},
			{RefID: "sym:doThing", File: "main.go", Lang: model.LangGo, Name: "doThing", Kind: model.KindFunction, Signature: "func doThing()", StartLine: 12, EndLine: 20},
			{RefID: "sym:helper", File: "main.go", Lang: model.LangGo, Name: "helper", Kind: model.KindFunction, Signature: "func helper()", StartLine: 22, EndLine: 25},
		},
		Contains: []store.ContainsTuple{
			{ParentID: "file:main.go", ChildID: "sym:main"},
			{ParentID: "file:main.go", ChildID: "sym:doThing"},
			{ParentID: "file:main.go", ChildID: "sym:helper"},
		},
		Calls: []store.CallNameTuple{
			{CallerID: "sym:main", CallerLang: model.LangGo, CalleeName: "doThing", File: "main.go", Line: 3, Col: 2},
			{CallerID: "sym:main", CallerLang: model.LangGo, CalleeName: "helper", File: "main.go", Line: 4, Col: 2},
			{CallerID: "sym:doThing", CallerLang: model.LangGo, CalleeName: "helper", File: "main.go", Line: 14, Col: 2},
		},
		Refs: []store.RefNameTuple{
			{FromID: "sym:main", FromLang: model.LangGo, Name: "doThing", RefKind: model.RefCall, File: "main.go", Line: 3, Col: 2},
			{FromID: "sym:main", FromLang: model.LangGo, Name: "helper", RefKind: model.RefCall, File: "main.go", Line: 4, Col: 2},
			{FromID: "sym:doThing", FromLang: model.LangGo, Name: "helper", RefKind: model.RefCall, File: "main.go", Line: 14, Col: 2},
		},
	}
	require.NoError(t, gs.Write(context.Background(), store.WriteReplace, batch))
	return gs
}

func TestResolveLang(t *testing.T) {
	available := []model.Lang{model.LangGo, model.LangMarkdown}

	lang, all := ResolveLang(LangAll, available)
	assert.True(t, all)
	assert.Equal(t, model.Lang(""), lang)

	lang, all = ResolveLang(LangAuto, available)
	assert.False(t, all)
	assert.Equal(t, model.LangGo, lang) // Go ranks before Markdown in PreferenceOrder

	lang, all = ResolveLang("java", available)
	assert.False(t, all)
	assert.Equal(t, model.LangJava, lang)
}

func TestFind(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	hits, err := Find(ctx, gs, "do", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doThing", hits[0].Name)
}

func TestChildren(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	kids, err := Children(ctx, gs, "file:main.go")
	require.NoError(t, err)
	assert.Len(t, kids, 3)
}

func TestFindReferences(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	refs, err := FindReferences(ctx, gs, "HELPER", model.LangGo, false)
	require.NoError(t, err)
	assert.Len(t, refs, 2) // main->helper, doThing->helper
}

func TestCallers(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	hits, err := Callers(ctx, gs, "helper", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.NotNil(t, h.Caller)
		assert.Contains(t, []string{"main", "doThing"}, h.Caller.Name)
	}
}

func TestCallees(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	hits, err := Callees(ctx, gs, "main", model.LangGo, false)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	calleeNames := map[string]bool{}
	for _, h := range hits {
		for _, c := range h.Callees {
			calleeNames[c.Name] = true
		}
	}
	assert.True(t, calleeNames["doThing"])
	assert.True(t, calleeNames["helper"])
}

func TestCallChain_Downstream(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	edges, err := CallChain(ctx, gs, "main", Downstream, 2, model.LangGo, false, 0)
	require.NoError(t, err)

	// depth 1: main->doThing, main->helper; depth 2: doThing->helper
	var depths []int
	for _, e := range edges {
		depths = append(depths, e.Depth)
	}
	assert.Len(t, edges, 3)
	assert.Contains(t, depths, 1)
	assert.Contains(t, depths, 2)
}

func TestCallChain_Upstream(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	edges, err := CallChain(ctx, gs, "helper", Upstream, 2, model.LangGo, false, 0)
	require.NoError(t, err)

	// depth 1: main->helper, doThing->helper (both calling helper directly);
	// depth 2: main->doThing, found by walking up from doThing (a depth-1
	// caller) to its own caller.
	require.Len(t, edges, 3)
	depth1 := 0
	foundDepth2 := false
	for _, e := range edges {
		if e.Depth == 1 {
			depth1++
			assert.Equal(t, "helper", e.CalleeName)
		}
		if e.Depth == 2 {
			foundDepth2 = true
			assert.Equal(t, "main", e.CallerName)
			assert.Equal(t, "doThing", e.CalleeName)
		}
	}
	assert.Equal(t, 2, depth1)
	assert.True(t, foundDepth2)
}

func TestCallChain_MinNameLenFilters(t *testing.T) {
	gs := setupGraph(t)
	ctx := context.Background()

	edges, err := CallChain(ctx, gs, "main", Downstream, 2, model.LangGo, false, 100)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
