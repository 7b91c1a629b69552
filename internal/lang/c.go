package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/gitai-dev/gitai/internal/model"
)

type cAdapter struct{}

func newCAdapter() *cAdapter { return &cAdapter{} }

func (cAdapter) LanguageID() model.Lang { return model.LangC }

func (cAdapter) Grammar() (*sitter.Language, bool) { return c.GetLanguage(), true }

func (cAdapter) Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	var symbols []*model.Symbol
	var refs []*model.AstReference
	cs := &containerStack{}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition":
			name := functionDefName(n, source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindFunction, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "struct_specifier":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindClass, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)

		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn != nil && fn.Type() == "identifier" {
				sl, _ := line1(n)
				refs = append(refs, &model.AstReference{Name: content(fn, source), Kind: model.RefCall, Line: sl, Column: int(n.StartPoint().Column)})
			}

		case "type_identifier":
			sl, _ := line1(n)
			refs = append(refs, &model.AstReference{Name: content(n, source), Kind: model.RefType, Line: sl, Column: int(n.StartPoint().Column)})
		}

		walkChildren(n, visit)
	}
	visit(root)
	return symbols, refs
}

// functionDefName digs through the declarator chain for the innermost
// identifier, which is the function's name in a C function_definition.
func functionDefName(n *sitter.Node, source []byte) string {
	decl := n.ChildByFieldName("declarator")
	for decl != nil {
		if decl.Type() == "identifier" {
			return content(decl, source)
		}
		inner := decl.ChildByFieldName("declarator")
		if inner == nil {
			break
		}
		decl = inner
	}
	return ""
}

func (cAdapter) ScanSource(string, []byte) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}
