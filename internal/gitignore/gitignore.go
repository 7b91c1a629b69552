// Package gitignore compiles the simplified gitignore-style pattern set used
// by file discovery: no negation, leading '/' stripped, trailing '/'
// expands to "/**", and '#'-comment/blank lines are dropped.
package gitignore

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// Matcher holds compiled patterns from one ignore file (or pattern list) and
// answers whether a repo-relative, POSIX-normalized path is ignored.
type Matcher struct {
	regexes []*regexp.Regexp
}

// Compile builds a Matcher from raw pattern lines (as read from a
// .gitignore/.aiignore file, one pattern per line).
func Compile(lines []string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		if re := compilePattern(line); re != nil {
			m.regexes = append(m.regexes, re)
		}
	}
	return m
}

// CompileFile reads and compiles patterns from an ignore file; a missing
// file yields an empty Matcher, not an error — ignore files are optional.
func CompileFile(path string) *Matcher {
	f, err := os.Open(path)
	if err != nil {
		return &Matcher{}
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return Compile(lines)
}

// compilePattern turns one gitignore-style line into a compiled regex, or
// nil if the line is a comment, negation, or blank.
func compilePattern(line string) *regexp.Regexp {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
		return nil
	}

	pattern := strings.TrimPrefix(trimmed, "/")
	if strings.HasSuffix(pattern, "/") {
		pattern = strings.TrimSuffix(pattern, "/") + "/**"
	}

	var b strings.Builder
	b.WriteString("^")
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch {
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i += 2
		case c == '*':
			b.WriteString("[^/]*")
			i++
		case c == '?':
			b.WriteString("[^/]")
			i++
		case strings.ContainsRune(`.+()|{}^$`, rune(c)):
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	// A pattern with no embedded '/' matches at any depth (rooted only at
	// a path segment boundary); one with '/' is anchored at the root.
	if !strings.Contains(pattern, "/") {
		b2 := "(^|.*/)" + b.String()[1:] + "(/.*)?$"
		return regexp.MustCompile(b2)
	}
	b.WriteString("(/.*)?$")
	return regexp.MustCompile(b.String())
}

// Match reports whether a POSIX, repo-relative path is ignored by this
// matcher.
func (m *Matcher) Match(posixPath string) bool {
	for _, re := range m.regexes {
		if re.MatchString(posixPath) {
			return true
		}
	}
	return false
}

// BuiltinExcludes are the always-ignored directory names (and their
// recursive contents) applied before any ignore file.
var BuiltinExcludes = []string{
	"node_modules", ".git", ".git-ai", ".repo", "dist", "target", "build", ".gradle",
}

// MatchesBuiltinExclude reports whether any path segment of posixPath is a
// built-in excluded directory name.
func MatchesBuiltinExclude(posixPath string) bool {
	for _, seg := range strings.Split(posixPath, "/") {
		for _, ex := range BuiltinExcludes {
			if seg == ex {
				return true
			}
		}
	}
	return false
}
