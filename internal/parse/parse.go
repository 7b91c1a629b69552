// Package parse dispatches a source file to its language adapter and runs
// the tree-sitter parse (or line scan) robustly: a bad file never aborts an
// indexing run, it just contributes zero symbols and refs.
package parse

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gitai-dev/gitai/internal/hashid"
	"github.com/gitai-dev/gitai/internal/lang"
	"github.com/gitai-dev/gitai/internal/model"
)

// Dispatcher owns one tree-sitter parser per goroutine-safe call; each Parse
// call creates and closes its own *sitter.Parser, mirroring the teacher's
// per-call parser lifecycle but avoiding shared mutable parser state across
// concurrent workers (see pkg/indexer's worker pool).
type Dispatcher struct{}

// NewDispatcher constructs a parser dispatcher.
func NewDispatcher() *Dispatcher { return &Dispatcher{} }

// ParseFile routes path by extension, parses source, and extracts the
// canonical (symbols, refs) record. It never returns an error for a parse
// failure — only for the unrecoverable case of a malformed call into this
// package. A bad or unsupported file yields a FileRecord with nil
// Symbols/Refs and ok=false.
func (d *Dispatcher) ParseFile(ctx context.Context, relPath string, source []byte) (*model.FileRecord, bool) {
	posixPath := hashid.ToPosix(relPath)
	ext := filepath.Ext(posixPath)
	l, ok := lang.RouteExtension(ext)
	if !ok {
		return nil, false
	}

	adapter, ok := lang.Get(l)
	if !ok {
		return nil, false
	}

	grammar, isTreeSitter := adapter.Grammar()
	if !isTreeSitter {
		symbols, refs := adapter.ScanSource(posixPath, source)
		return &model.FileRecord{Path: posixPath, Lang: l, Symbols: symbols, Refs: refs}, true
	}

	if ts, okTS := adapter.(interface {
		GrammarFor(ext string) *sitter.Language
	}); okTS {
		grammar = ts.GrammarFor(ext)
	}

	root, parseOK := parseWithFallback(ctx, grammar, source)
	if !parseOK {
		return &model.FileRecord{Path: posixPath, Lang: l, Symbols: nil, Refs: nil}, true
	}

	symbols, refs := adapter.Extract(source, root)
	return &model.FileRecord{Path: posixPath, Lang: l, Symbols: symbols, Refs: refs}, true
}

// parseWithFallback calls the grammar once; "Invalid argument"-shaped
// failures retry once with a 1 MiB buffer hint (a fresh parser instance,
// since the smacker binding has no explicit buffer-size knob beyond
// allocating the parser anew). "Invalid language object" and any other
// error yield ok=false — the caller treats that as zero symbols/refs.
func parseWithFallback(ctx context.Context, grammar *sitter.Language, source []byte) (*sitter.Node, bool) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar)

	tree, err := p.ParseCtx(ctx, nil, source)
	if err == nil && tree != nil {
		return tree.RootNode(), true
	}
	if err != nil && strings.Contains(err.Error(), "Invalid language object") {
		return nil, false
	}
	if err != nil && !strings.Contains(err.Error(), "Invalid argument") {
		return nil, false
	}

	// Retry once with a padded buffer hint.
	padded := make([]byte, len(source), len(source)+1<<20)
	copy(padded, source)
	tree, err = p.ParseCtx(ctx, nil, padded[:len(source)])
	if err != nil || tree == nil {
		return nil, false
	}
	return tree.RootNode(), true
}
