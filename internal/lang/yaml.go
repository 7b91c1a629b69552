package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gitai-dev/gitai/internal/model"
)

type yamlAdapter struct{}

func newYAMLAdapter() *yamlAdapter { return &yamlAdapter{} }

func (yamlAdapter) LanguageID() model.Lang { return model.LangYAML }

// Grammar reports ok=false: yaml is parsed by a key scanner, not
// tree-sitter, per spec §4.3.
func (yamlAdapter) Grammar() (*sitter.Language, bool) { return nil, false }

func (yamlAdapter) Extract(_ []byte, _ *sitter.Node) ([]*model.Symbol, []*model.AstReference) {
	return nil, nil
}

var yamlKeyRe = regexp.MustCompile(`^\s*([A-Za-z0-9_.-]+)\s*:`)

var configLikePathSegments = []string{".agents/", "templates/agents/", "rules/", "skills/"}

func isConfigLikePath(posixPath string) bool {
	for _, seg := range configLikePathSegments {
		if strings.Contains(posixPath, seg) {
			return true
		}
	}
	return false
}

func (yamlAdapter) ScanSource(path string, source []byte) ([]*model.Symbol, []*model.AstReference) {
	lines := strings.Split(string(source), "\n")

	type key struct {
		name      string
		startLine int
	}
	var keys []key
	for i, l := range lines {
		trimmed := strings.TrimLeft(l, " \t")
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			continue
		}
		if m := yamlKeyRe.FindStringSubmatch(l); m != nil {
			keys = append(keys, key{name: m[1], startLine: i + 1})
		}
	}

	if len(keys) == 0 {
		if isConfigLikePath(path) {
			return []*model.Symbol{{
				Name: "", Kind: model.KindDocument, StartLine: 1, EndLine: len(lines),
			}}, nil
		}
		return nil, nil
	}

	symbols := make([]*model.Symbol, 0, len(keys))
	for i, k := range keys {
		end := len(lines)
		if i+1 < len(keys) {
			end = keys[i+1].startLine - 1
		}
		symbols = append(symbols, &model.Symbol{
			Name: k.name, Kind: model.KindNode, StartLine: k.startLine, EndLine: end,
		})
	}
	return symbols, nil
}
