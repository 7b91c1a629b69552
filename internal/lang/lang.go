// Package lang implements the per-language symbol/reference extractors: one
// adapter per supported IndexLang, each turning a parsed source file into the
// canonical (symbols, refs) record of the data model.
package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gitai-dev/gitai/internal/model"
)

// Adapter is a per-language extractor. Tree-sitter adapters parse via
// Grammar(); the markdown/yaml adapters return ok=false from Grammar() and
// are driven by ScanSource instead.
type Adapter interface {
	LanguageID() model.Lang
	// Grammar returns the tree-sitter grammar for this language, or
	// ok=false when the language is not tree-sitter-backed.
	Grammar() (*sitter.Language, bool)
	// Extract walks a parsed tree and emits symbols/refs. Only called for
	// tree-sitter-backed adapters.
	Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference)
	// ScanSource is called instead of Extract for line-scanner adapters
	// (markdown, yaml); Grammar() returns ok=false for these and the
	// dispatcher never parses them with tree-sitter.
	ScanSource(path string, source []byte) ([]*model.Symbol, []*model.AstReference)
}

// extensionRoute is the authoritative extension → language table. First
// match wins; entries are routed through routeTable for O(1) lookup.
var extensionRoute = []struct {
	ext  string
	lang model.Lang
}{
	{"java", model.LangJava},
	{"c", model.LangC},
	{"h", model.LangC},
	{"go", model.LangGo},
	{"py", model.LangPython},
	{"rs", model.LangRust},
	{"md", model.LangMarkdown},
	{"mdx", model.LangMarkdown},
	{"yml", model.LangYAML},
	{"yaml", model.LangYAML},
	{"ts", model.LangTS},
	{"tsx", model.LangTS},
	{"js", model.LangTS},
	{"jsx", model.LangTS},
	{"mjs", model.LangTS},
	{"cjs", model.LangTS},
}

var routeTable = func() map[string]model.Lang {
	m := make(map[string]model.Lang, len(extensionRoute))
	for _, e := range extensionRoute {
		m[e.ext] = e.lang
	}
	return m
}()

// RouteExtension returns the IndexLang routed from a file extension (without
// the leading dot, case-insensitive). Unrecognized extensions return
// ("", false) — the dispatcher skips such files.
func RouteExtension(ext string) (model.Lang, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if l, ok := routeTable[ext]; ok {
		return l, true
	}
	return "", false
}

// IsTSXExtension reports whether ext should use the tsx grammar variant
// instead of the plain typescript grammar.
func IsTSXExtension(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "tsx", "jsx":
		return true
	default:
		return false
	}
}

var registry = map[model.Lang]Adapter{}

func register(a Adapter) {
	registry[a.LanguageID()] = a
}

// Get returns the adapter for a language, if one is registered.
func Get(l model.Lang) (Adapter, bool) {
	a, ok := registry[l]
	return a, ok
}

func init() {
	register(newTSAdapter())
	register(newJavaAdapter())
	register(newCAdapter())
	register(newGoAdapter())
	register(newPythonAdapter())
	register(newRustAdapter())
	register(newMarkdownAdapter())
	register(newYAMLAdapter())
}
