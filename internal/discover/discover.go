// Package discover enumerates candidate files under a scan root, applying
// the built-in excludes, .aiignore, and .gitignore layers in that order.
package discover

import (
	"os"
	"path/filepath"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gitai-dev/gitai/internal/gitignore"
	"github.com/gitai-dev/gitai/internal/hashid"
	"github.com/gitai-dev/gitai/internal/lang"
)

// matcherCacheSize bounds the number of compiled ignore matchers kept per
// directory, preventing unbounded growth on very large trees.
const matcherCacheSize = 1000

// Discoverer walks a scan root, caching compiled .aiignore/.gitignore
// matchers per directory so repeated Walk calls over the same tree (e.g.
// incremental reconciliation) don't recompile them.
type Discoverer struct {
	aiignoreCache  *lru.Cache[string, *gitignore.Matcher]
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	extra          *gitignore.Matcher
}

// New constructs a Discoverer with bounded per-directory matcher caches.
// extraExcludes are additional gitignore-style patterns (e.g. from
// internal/config's paths.exclude) applied on top of the built-in excludes
// and the scan root's .aiignore/.gitignore files. Ignore files in nested
// directories are not read.
func New(extraExcludes ...string) (*Discoverer, error) {
	ai, err := lru.New[string, *gitignore.Matcher](matcherCacheSize)
	if err != nil {
		return nil, err
	}
	gi, err := lru.New[string, *gitignore.Matcher](matcherCacheSize)
	if err != nil {
		return nil, err
	}
	var extra *gitignore.Matcher
	if len(extraExcludes) > 0 {
		extra = gitignore.Compile(extraExcludes)
	}
	return &Discoverer{aiignoreCache: ai, gitignoreCache: gi, extra: extra}, nil
}

func (d *Discoverer) matcherFor(cache *lru.Cache[string, *gitignore.Matcher], dir, filename string) *gitignore.Matcher {
	if m, ok := cache.Get(dir); ok {
		return m
	}
	m := gitignore.CompileFile(filepath.Join(dir, filename))
	cache.Add(dir, m)
	return m
}

// Walk enumerates every regular file under scanRoot whose extension routes
// to a supported language, applying built-in excludes, scanRoot's
// .aiignore, and scanRoot's .gitignore (in that order). Returned paths
// are POSIX-normalized and relative to scanRoot, sorted lexicographically
// for deterministic enumeration order.
func (d *Discoverer) Walk(scanRoot string) ([]string, error) {
	aiMatcher := d.matcherFor(d.aiignoreCache, scanRoot, ".aiignore")
	giMatcher := d.matcherFor(d.gitignoreCache, scanRoot, ".gitignore")

	var out []string
	err := filepath.Walk(scanRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // a single unreadable entry must not abort discovery
		}
		rel, relErr := filepath.Rel(scanRoot, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		posixRel := hashid.ToPosix(rel)

		if gitignore.MatchesBuiltinExclude(posixRel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if aiMatcher.Match(posixRel) || giMatcher.Match(posixRel) {
			return nil
		}
		if d.extra != nil && d.extra.Match(posixRel) {
			return nil
		}

		if _, ok := lang.RouteExtension(filepath.Ext(posixRel)); !ok {
			return nil
		}

		out = append(out, posixRel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
