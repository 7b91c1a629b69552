package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/gitai-dev/gitai/internal/model"
)

type rustAdapter struct{}

func newRustAdapter() *rustAdapter { return &rustAdapter{} }

func (rustAdapter) LanguageID() model.Lang { return model.LangRust }

func (rustAdapter) Grammar() (*sitter.Language, bool) { return rust.GetLanguage(), true }

var rustTypeDecls = map[string]bool{
	"struct_item": true,
	"enum_item":   true,
	"trait_item":  true,
	"impl_item":   true,
}

func (rustAdapter) Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	var symbols []*model.Symbol
	var refs []*model.AstReference
	cs := &containerStack{}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_item":
			name := content(n.ChildByFieldName("name"), source)
			kind := model.KindFunction
			if inImpl(n) {
				kind = model.KindMethod
			}
			sym := cs.emit(&model.Symbol{Name: name, Kind: kind, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "struct_item", "enum_item", "trait_item", "impl_item":
			name := rustTypeName(n, source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindClass, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "call_expression":
			fn := n.ChildByFieldName("function")
			name := rustCalleeName(fn, source)
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

// inImpl reports whether n's direct parent chain reaches an impl_item before
// any other item boundary (i.e. n is a method inside an impl block).
func inImpl(n *sitter.Node) bool {
	p := n.Parent()
	for p != nil {
		if p.Type() == "impl_item" {
			return true
		}
		if p.Type() == "declaration_list" {
			p = p.Parent()
			continue
		}
		return false
	}
	return false
}

func rustTypeName(n *sitter.Node, source []byte) string {
	name := n.ChildByFieldName("name")
	if name != nil {
		return content(name, source)
	}
	if n.Type() == "impl_item" {
		ty := n.ChildByFieldName("type")
		if ty != nil {
			return content(ty, source)
		}
	}
	return ""
}

func rustCalleeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return content(n, source)
	case "scoped_identifier":
		name := n.ChildByFieldName("name")
		if name != nil {
			return content(name, source)
		}
	case "field_expression":
		field := n.ChildByFieldName("field")
		if field != nil {
			return content(field, source)
		}
	}
	return ""
}

func (rustAdapter) ScanSource(string, []byte) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}
