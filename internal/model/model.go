// Package model defines the data shapes shared across the parsing, indexing,
// storage, and query layers: symbols and references extracted from source
// files, and the graph tuples derived from them.
package model

// Lang identifies one of the supported source languages.
type Lang string

const (
	LangJava     Lang = "java"
	LangTS       Lang = "ts"
	LangC        Lang = "c"
	LangGo       Lang = "go"
	LangPython   Lang = "python"
	LangRust     Lang = "rust"
	LangMarkdown Lang = "markdown"
	LangYAML     Lang = "yaml"
)

// PreferenceOrder is the language resolution order for the "auto" selector
// (graph queries, repo-map).
var PreferenceOrder = []Lang{LangJava, LangTS, LangPython, LangGo, LangRust, LangC, LangMarkdown, LangYAML}

// Kind is the kind of a Symbol.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindVariable  Kind = "variable"
	KindExport    Kind = "export"
	KindField     Kind = "field"
	KindSection   Kind = "section"
	KindDocument  Kind = "document"
	KindNode      Kind = "node"
	KindTest      Kind = "test"
)

// RefKind is the kind of an AstReference.
type RefKind string

const (
	RefCall RefKind = "call"
	RefNew  RefKind = "new"
	RefType RefKind = "type"
)

// Symbol is a named code construct discovered by parsing a single file.
// Line numbers are 1-based and inclusive.
type Symbol struct {
	Name       string
	Kind       Kind
	StartLine  int
	EndLine    int
	Signature  string
	Container  *Symbol  // immediately enclosing declaration, if any
	Extends    []string // heritage names only
	Implements []string
}

// AstReference is an occurrence of a name used as a call, constructor, or
// type reference at a given source position.
type AstReference struct {
	Name   string
	Kind   RefKind
	Line   int // 1-based
	Column int // 0-based
}

// FileRecord is the canonical (symbols, refs) output of parsing one file.
type FileRecord struct {
	Path    string // POSIX-normalized, repo-relative
	Lang    Lang
	Symbols []*Symbol
	Refs    []*AstReference
}
