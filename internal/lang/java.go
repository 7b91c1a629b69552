package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/gitai-dev/gitai/internal/model"
)

type javaAdapter struct{}

func newJavaAdapter() *javaAdapter { return &javaAdapter{} }

func (javaAdapter) LanguageID() model.Lang { return model.LangJava }

func (javaAdapter) Grammar() (*sitter.Language, bool) { return java.GetLanguage(), true }

var javaTypeDecls = map[string]string{
	"class_declaration":           "class",
	"interface_declaration":       "interface",
	"enum_declaration":            "enum",
	"record_declaration":          "record",
	"annotation_type_declaration": "annotation type",
}

func (javaAdapter) Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	var symbols []*model.Symbol
	var refs []*model.AstReference
	cs := &containerStack{}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if word, ok := javaTypeDecls[n.Type()]; ok {
			name := content(n.ChildByFieldName("name"), source)
			sig := word + " " + signature(n, source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindClass, Signature: sig})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return
		}

		switch n.Type() {
		case "method_declaration", "constructor_declaration":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindMethod, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "field_declaration":
			declarator := childByType(n, "variable_declarator")
			name := ""
			if declarator != nil {
				name = content(declarator.ChildByFieldName("name"), source)
			}
			sig := fieldSignature(n, source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindField, Signature: sig})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)

		case "method_invocation":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				sl, _ := line1(n)
				refs = append(refs, &model.AstReference{Name: content(nameNode, source), Kind: model.RefCall, Line: sl, Column: int(n.StartPoint().Column)})
			}

		case "object_creation_expression":
			typeNode := n.ChildByFieldName("type")
			if typeNode != nil {
				sl, _ := line1(n)
				refs = append(refs, &model.AstReference{Name: content(typeNode, source), Kind: model.RefNew, Line: sl, Column: int(n.StartPoint().Column)})
			}
		}

		walkChildren(n, visit)
	}
	visit(root)
	return symbols, refs
}

func (javaAdapter) ScanSource(string, []byte) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}

// fieldSignature trims a field declaration's text at the first ';'.
func fieldSignature(n *sitter.Node, source []byte) string {
	text := content(n, source)
	for i := 0; i < len(text); i++ {
		if text[i] == ';' {
			return collapseSpace(text[:i])
		}
	}
	return collapseSpace(text)
}
