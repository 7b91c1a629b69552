package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gitai-dev/gitai/internal/model"
)

type markdownAdapter struct{}

func newMarkdownAdapter() *markdownAdapter { return &markdownAdapter{} }

func (markdownAdapter) LanguageID() model.Lang { return model.LangMarkdown }

// Grammar reports ok=false: markdown is parsed by a header scanner, not
// tree-sitter, per spec §4.3.
func (markdownAdapter) Grammar() (*sitter.Language, bool) { return nil, false }

func (markdownAdapter) Extract(_ []byte, _ *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}

var headerRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

type mdHeader struct {
	level     int
	title     string
	startLine int
}

func (markdownAdapter) ScanSource(_ string, source []byte) ([]*model.Symbol, []*model.AstReference) {
	lines := strings.Split(string(source), "\n")
	var headers []mdHeader
	for i, l := range lines {
		if m := headerRe.FindStringSubmatch(l); m != nil {
			headers = append(headers, mdHeader{level: len(m[1]), title: strings.TrimSpace(m[2]), startLine: i + 1})
		}
	}
	if len(headers) == 0 {
		return []*model.Symbol{{
			Name: "", Kind: model.KindDocument, StartLine: 1, EndLine: len(lines), Signature: "",
		}}, nil
	}

	totalLines := len(lines)
	symbols := make([]*model.Symbol, 0, len(headers))
	var stack []mdHeader // breadcrumb stack of ancestors, shallow→deep
	var symStack []*model.Symbol

	for i, h := range headers {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
			symStack = symStack[:len(symStack)-1]
		}

		end := totalLines
		for j := i + 1; j < len(headers); j++ {
			if headers[j].level <= h.level {
				end = headers[j].startLine - 1
				break
			}
		}

		crumbs := make([]string, 0, len(stack)+1)
		for _, anc := range stack {
			crumbs = append(crumbs, anc.title)
		}
		crumbs = append(crumbs, h.title)

		var container *model.Symbol
		if len(symStack) > 0 {
			container = symStack[len(symStack)-1]
		}

		sym := &model.Symbol{
			Name:      h.title,
			Kind:      model.KindSection,
			StartLine: h.startLine,
			EndLine:   end,
			Signature: strings.Join(crumbs, " > "),
			Container: container,
		}
		symbols = append(symbols, sym)

		stack = append(stack, h)
		symStack = append(symStack, sym)
	}
	return symbols, nil
}
