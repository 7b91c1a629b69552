package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/gitai-dev/gitai/internal/model"
)

type pythonAdapter struct{}

func newPythonAdapter() *pythonAdapter { return &pythonAdapter{} }

func (pythonAdapter) LanguageID() model.Lang { return model.LangPython }

func (pythonAdapter) Grammar() (*sitter.Language, bool) { return python.GetLanguage(), true }

func (pythonAdapter) Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	var symbols []*model.Symbol
	var refs []*model.AstReference
	cs := &containerStack{}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "class_definition":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindClass, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "function_definition":
			name := content(n.ChildByFieldName("name"), source)
			kind := model.KindFunction
			if parent := cs.top(); parent != nil && parent.Kind == model.KindClass {
				kind = model.KindMethod
			}
			sym := cs.emit(&model.Symbol{Name: name, Kind: kind, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "call":
			fn := n.ChildByFieldName("function")
			name := pythonCalleeName(fn, source)
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

func pythonCalleeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return content(n, source)
	case "attribute":
		attr := n.ChildByFieldName("attribute")
		if attr != nil {
			return content(attr, source)
		}
	}
	return ""
}

func (pythonAdapter) ScanSource(string, []byte) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}
