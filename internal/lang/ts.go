package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/gitai-dev/gitai/internal/model"
)

type tsAdapter struct{}

func newTSAdapter() *tsAdapter { return &tsAdapter{} }

func (tsAdapter) LanguageID() model.Lang { return model.LangTS }

// Grammar returns the plain TypeScript grammar; GrammarFor picks the tsx
// variant for .tsx/.jsx sources. Plain .js/.mjs/.cjs sources use the
// javascript grammar via GrammarFor as well.
func (tsAdapter) Grammar() (*sitter.Language, bool) {
	return typescript.GetLanguage(), true
}

// GrammarFor returns the grammar appropriate for a specific extension within
// the ts family: tsx for .tsx/.jsx, javascript for .js/.mjs/.cjs, typescript
// otherwise.
func (tsAdapter) GrammarFor(ext string) *sitter.Language {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "tsx", "jsx":
		return tsx.GetLanguage()
	case "js", "mjs", "cjs":
		return javascript.GetLanguage()
	default:
		return typescript.GetLanguage()
	}
}

var extendsImplementsRe = regexp.MustCompile(`(?i)\bextends\s+([^{]+?)(?:\s+implements\s+([^{]+))?$`)
var implementsOnlyRe = regexp.MustCompile(`(?i)\bimplements\s+([^{]+?)$`)

// parseHeritage extracts extends/implements name lists from a class or
// interface declaration head (the signature text, not including the body).
func parseHeritage(head string) (extends []string, implements []string) {
	head = collapseSpace(head)
	if m := extendsImplementsRe.FindStringSubmatch(head); m != nil {
		extends = heritageNames(m[1])
		if m[2] != "" {
			implements = heritageNames(m[2])
		}
		return
	}
	if m := implementsOnlyRe.FindStringSubmatch(head); m != nil {
		implements = heritageNames(m[1])
	}
	return
}

// heritageNames splits a comma list at bracket depth 0 and strips generic
// parameters from each entry, leaving bare names.
func heritageNames(s string) []string {
	var out []string
	for _, part := range splitBalanced(s, ',') {
		if i := strings.IndexByte(part, '<'); i >= 0 {
			part = part[:i]
		}
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a tsAdapter) Extract(source []byte, root *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
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

		case "method_definition":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindMethod, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "class_declaration":
			name := content(n.ChildByFieldName("name"), source)
			head := signature(n, source)
			ext, impl := parseHeritage(head)
			sym := cs.emit(&model.Symbol{
				Name: name, Kind: model.KindClass, Signature: head,
				Extends: ext, Implements: impl,
			})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "interface_declaration":
			name := content(n.ChildByFieldName("name"), source)
			head := signature(n, source)
			ext, impl := parseHeritage(head)
			sym := cs.emit(&model.Symbol{
				Name: name, Kind: model.KindInterface, Signature: head,
				Extends: ext, Implements: impl,
			})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)
			cs.push(sym)
			walkChildren(n, visit)
			cs.pop()
			return

		case "type_alias_declaration":
			name := content(n.ChildByFieldName("name"), source)
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindType, Signature: signature(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)

		case "lexical_declaration", "variable_declaration":
			for _, decl := range namedChildrenByType(n, "variable_declarator") {
				name := content(decl.ChildByFieldName("name"), source)
				value := decl.ChildByFieldName("value")
				if value != nil && (value.Type() == "arrow_function" || value.Type() == "function" || value.Type() == "function_expression") {
					sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindFunction, Signature: signature(n, source)})
					sym.StartLine, sym.EndLine = line1(n)
					symbols = append(symbols, sym)
				} else if isExported(n, source) {
					sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindVariable, Signature: signature(n, source)})
					sym.StartLine, sym.EndLine = line1(n)
					symbols = append(symbols, sym)
				}
			}

		case "export_specifier":
			name := content(n.ChildByFieldName("name"), source)
			if name == "" {
				name = content(n, source)
			}
			sym := cs.emit(&model.Symbol{Name: name, Kind: model.KindExport, Signature: content(n, source)})
			sym.StartLine, sym.EndLine = line1(n)
			symbols = append(symbols, sym)

		case "call_expression":
			fn := n.ChildByFieldName("function")
			name := calleeName(fn, source)
			if name != "" {
				sl, _ := line1(n)
				refs = append(refs, &model.AstReference{Name: name, Kind: model.RefCall, Line: sl, Column: int(n.StartPoint().Column)})
			}
			if name == "test" || name == "describe" {
				if args := n.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
					first := args.NamedChild(0)
					if first != nil && first.Type() == "string" {
						lit := strings.Trim(content(first, source), `"'`+"`")
						sl, el := line1(n)
						sym := cs.emit(&model.Symbol{Name: lit, Kind: model.KindTest, Signature: signature(n, source), StartLine: sl, EndLine: el})
						symbols = append(symbols, sym)
					}
				}
			}

		case "new_expression":
			ctor := n.ChildByFieldName("constructor")
			name := calleeName(ctor, source)
			if name != "" {
				sl, _ := line1(n)
				refs = append(refs, &model.AstReference{Name: name, Kind: model.RefNew, Line: sl, Column: int(n.StartPoint().Column)})
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

func (tsAdapter) ScanSource(string, []byte) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}

// calleeName extracts the referenced name from a call/new callee: plain
// identifiers return their own text; member expressions return only the
// trailing property name.
func calleeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return content(n, source)
	case "member_expression":
		prop := n.ChildByFieldName("property")
		if prop != nil {
			return content(prop, source)
		}
	}
	return ""
}

func isExported(n *sitter.Node, source []byte) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "export_statement"
}

func walkChildren(n *sitter.Node, visit func(*sitter.Node)) {
	for i := 0; i < int(n.ChildCount()); i++ {
		visit(n.Child(i))
	}
}
