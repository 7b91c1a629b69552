package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/gitai-dev/gitai/internal/model"
)

type goAdapter struct{}

func newGoAdapter() *goAdapter { return &goAdapter{} }

func (goAdapter) LanguageID() model.Lang { return model.LangGo }

func (goAdapter) Grammar() (*sitter.Language, bool) { return golang.GetLanguage(), true }

func (goAdapter) Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	var symbols []*model.Symbol
	var refs []*model.AstReference
	cs := &containerStack{}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindFunction, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "method_declaration":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindMethod, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "type_spec":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindClass, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)

		case "call_expression":
			fn := n.ChildByFieldName("function")
			name := goCalleeName(fn, source)
			if name != "" {
				sl, _ := line1(n)
				refs = append(refs, &model.AstReference{Name: name, Kind: model.RefCall, Line: sl, Column: int(n.StartPoint().Column)})
			}
		}

		walkChildren(n, visit)
	}
	visit(root)
	return symbols, refs
}

func goCalleeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return content(n, source)
	case "selector_expression":
		field := n.ChildByFieldName("field")
		if field != nil {
			return content(field, source)
		}
	}
	return ""
}

func (goAdapter) ScanSource(string, []byte) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}
