// Package repomap implements the repo-map PageRank: an in-memory directed
// graph over symbols and calls/refs, ranked by 10 rounds of damped
// PageRank, aggregated per file, with optional wiki-link attachment.
package repomap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

const (
	rounds  = 10
	damping = 0.85
)

// SymbolRank is one ranked symbol within a file.
type SymbolRank struct {
	RefID string
	Name  string
	Kind  model.Kind
	Rank  float64
}

// FileRank is one ranked file with its top-ranked symbols.
type FileRank struct {
	File     string
	Rank     float64
	Symbols  []SymbolRank
	WikiLink string
}

// Options configures a repo-map build.
type Options struct {
	MaxFiles          int
	MaxSymbolsPerFile int
	WikiDir           string // optional; "" disables wiki-link attachment
}

// Build constructs the symbol/call graph from the graph store, runs
// PageRank, aggregates per file, and optionally attaches wiki links.
func Build(ctx context.Context, gs store.GraphStore, opts Options) ([]FileRank, error) {
	symbols, err := gs.AllSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("repomap: read symbols: %w", err)
	}
	calls, err := gs.AllCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("repomap: read calls: %w", err)
	}
	refs, err := gs.AllRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("repomap: read refs: %w", err)
	}

	g := buildGraph(symbols, calls, refs)
	ranks := g.pageRank()

	files := aggregateByFile(symbols, ranks, opts)

	if opts.WikiDir != "" {
		if err := attachWikiLinks(files, opts.WikiDir); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// graph is the in-memory directed symbol graph: nodes are ref_ids, edges
// are deduplicated, self-loops suppressed.
type graph struct {
	nodeOrder []string
	nodeIdx   map[string]int
	out       [][]int // out[i] = successor node indices of node i
}

func buildGraph(symbols []store.SymbolTuple, calls []store.CallNameTuple, refs []store.RefNameTuple) *graph {
	g := &graph{nodeIdx: map[string]int{}}
	idOf := func(refID string) int {
		if i, ok := g.nodeIdx[refID]; ok {
			return i
		}
		i := len(g.nodeOrder)
		g.nodeIdx[refID] = i
		g.nodeOrder = append(g.nodeOrder, refID)
		g.out = append(g.out, nil)
		return i
	}
	for _, s := range symbols {
		idOf(s.RefID)
	}

	byName := map[string][]string{}
	for _, s := range symbols {
		key := strings.ToLower(s.Name)
		byName[key] = append(byName[key], s.RefID)
	}

	seen := map[[2]int]bool{}
	addEdge := func(fromID, toID string) {
		fromIdx, ok := g.nodeIdx[fromID]
		if !ok {
			return
		}
		toIdx, ok := g.nodeIdx[toID]
		if !ok {
			return
		}
		if fromIdx == toIdx {
			return
		}
		key := [2]int{fromIdx, toIdx}
		if seen[key] {
			return
		}
		seen[key] = true
		g.out[fromIdx] = append(g.out[fromIdx], toIdx)
	}

	for _, c := range calls {
		for _, toID := range byName[strings.ToLower(c.CalleeName)] {
			addEdge(c.CallerID, toID)
		}
	}
	for _, r := range refs {
		for _, toID := range byName[strings.ToLower(r.Name)] {
			addEdge(r.FromID, toID)
		}
	}
	return g
}

// pageRank runs the iteration described in spec §4.11: 10 rounds, damping
// 0.85, dangling-node mass redistributed across all nodes, (1-d)/N added
// every round.
func (g *graph) pageRank() map[string]float64 {
	n := len(g.nodeOrder)
	if n == 0 {
		return map[string]float64{}
	}
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	for round := 0; round < rounds; round++ {
		next := make([]float64, n)
		var danglingMass float64
		for i, r := range rank {
			outDeg := len(g.out[i])
			if outDeg == 0 {
				danglingMass += damping * r / float64(n)
				continue
			}
			share := damping * r / float64(outDeg)
			for _, j := range g.out[i] {
				next[j] += share
			}
		}
		base := (1 - damping) / float64(n)
		for i := range next {
			next[i] += base + danglingMass
		}
		rank = next
	}

	out := make(map[string]float64, n)
	for i, id := range g.nodeOrder {
		out[id] = rank[i]
	}
	return out
}

func aggregateByFile(symbols []store.SymbolTuple, ranks map[string]float64, opts Options) []FileRank {
	byFile := map[string][]store.SymbolTuple{}
	var fileOrder []string
	for _, s := range symbols {
		if _, ok := byFile[s.File]; !ok {
			fileOrder = append(fileOrder, s.File)
		}
		byFile[s.File] = append(byFile[s.File], s)
	}

	files := make([]FileRank, 0, len(fileOrder))
	for _, f := range fileOrder {
		syms := byFile[f]
		var fileRank float64
		symRanks := make([]SymbolRank, 0, len(syms))
		for _, s := range syms {
			r := ranks[s.RefID]
			fileRank += r
			symRanks = append(symRanks, SymbolRank{RefID: s.RefID, Name: s.Name, Kind: s.Kind, Rank: r})
		}
		sort.SliceStable(symRanks, func(i, j int) bool { return symRanks[i].Rank > symRanks[j].Rank })
		maxSyms := opts.MaxSymbolsPerFile
		if maxSyms > 0 && len(symRanks) > maxSyms {
			symRanks = symRanks[:maxSyms]
		}
		files = append(files, FileRank{File: f, Rank: fileRank, Symbols: symRanks})
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].Rank > files[j].Rank })
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		files = files[:opts.MaxFiles]
	}
	return files
}

// attachWikiLinks scans *.md under wikiDir, matching each file first by
// base-name substring, else by any symbol name longer than 3 characters
// appearing in the wiki page's lowercased text.
func attachWikiLinks(files []FileRank, wikiDir string) error {
	pages, err := readWikiPages(wikiDir)
	if err != nil {
		return err
	}
	for i := range files {
		files[i].WikiLink = matchWikiLink(files[i], pages)
	}
	return nil
}

type wikiPage struct {
	path      string
	lowerText string
}

func readWikiPages(wikiDir string) ([]wikiPage, error) {
	var pages []wikiPage
	err := filepath.WalkDir(wikiDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		pages = append(pages, wikiPage{path: path, lowerText: strings.ToLower(string(b))})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repomap: scan wiki dir: %w", err)
	}
	return pages, nil
}

func matchWikiLink(f FileRank, pages []wikiPage) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(f.File), filepath.Ext(f.File)))
	for _, p := range pages {
		if base != "" && strings.Contains(strings.ToLower(filepath.Base(p.path)), base) {
			return p.path
		}
	}
	for _, p := range pages {
		for _, s := range f.Symbols {
			name := strings.ToLower(s.Name)
			if len(name) > 3 && strings.Contains(p.lowerText, name) {
				return p.path
			}
		}
	}
	return ""
}
