package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// content returns a node's exact source text.
func content(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

// line1 returns the 1-based line a node starts/ends on.
func line1(n *sitter.Node) (start, end int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

// childByType returns the first direct (possibly unnamed) child with the
// given type.
func childByType(n *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && c.Type() == t {
			return c
		}
	}
	return nil
}

// namedChildrenByType returns all named children with the given type.
func namedChildrenByType(n *sitter.Node, t string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c != nil && c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}

// walk visits every node in the tree depth-first, root included.
func walk(n *sitter.Node, fn func(*sitter.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}

// signature returns the first line of a declaration's text, trimmed at the
// first '{' or ':' (whichever comes first), then whitespace-trimmed.
func signature(n *sitter.Node, source []byte) string {
	text := content(n, source)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	cut := len(text)
	if i := strings.IndexByte(text, '{'); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.IndexByte(text, ':'); i >= 0 && i < cut {
		cut = i
	}
	return strings.TrimSpace(text[:cut])
}

var wsRun = regexp.MustCompile(`\s+`)

// collapseSpace normalizes internal whitespace runs to single spaces.
func collapseSpace(s string) string {
	return strings.TrimSpace(wsRun.ReplaceAllString(s, " "))
}

// splitBalanced splits s on sep at bracket depth 0, tracking <>, (), [].
// Used to split heritage clause lists without breaking generics.
func splitBalanced(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
