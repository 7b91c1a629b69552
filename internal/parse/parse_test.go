package parse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/parse"
)

func TestParseFile_UnsupportedExtensionSkipsSilently(t *testing.T) {
	d := parse.NewDispatcher()
	rec, ok := d.ParseFile(context.Background(), "README.rb", []byte("puts 1"))
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestParseFile_Markdown_NoTreeSitter(t *testing.T) {
	d := parse.NewDispatcher()
	rec, ok := d.ParseFile(context.Background(), "docs/a.md", []byte("# Title\nbody\n"))
	require.True(t, ok)
	require.NotNil(t, rec)
	assert.Equal(t, model.LangMarkdown, rec.Lang)
	if assert.Len(t, rec.Symbols, 1) {
		assert.Equal(t, "Title", rec.Symbols[0].Name)
	}
}

func TestParseFile_Go_ExtractsFunction(t *testing.T) {
	d := parse.NewDispatcher()
	src := []byte("package main\n\nfunc Hello() {\n\tworld()\n}\n")
	rec, ok := d.ParseFile(context.Background(), "main.go", src)
	require.True(t, ok)
	require.NotNil(t, rec)
	assert.Equal(t, model.LangGo, rec.Lang)
	if assert.Len(t, rec.Symbols, 1) {
		assert.Equal(t, "Hello", rec.Symbols[0].Name)
		assert.Equal(t, model.KindFunction, rec.Symbols[0].Kind)
	}
	if assert.Len(t, rec.Refs, 1) {
		assert.Equal(t, "world", rec.Refs[0].Name)
		assert.Equal(t, model.RefCall, rec.Refs[0].Kind)
	}
}

func TestParseFile_TS_ClassAndFunction(t *testing.T) {
	d := parse.NewDispatcher()
	src := []byte("export function handleAuth(req) { return parse(req); }\nclass Project {}\n")
	rec, ok := d.ParseFile(context.Background(), "a.ts", src)
	require.True(t, ok)
	require.NotNil(t, rec)
	assert.Equal(t, model.LangTS, rec.Lang)

	var names []string
	for _, s := range rec.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "handleAuth")
	assert.Contains(t, names, "Project")
}
