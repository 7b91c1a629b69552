// Package indexer orchestrates a full or incremental indexing run:
// discover files, parse each with internal/parse, hash/dedup symbols,
// embed and quantize new chunks, and write the vector store and graph
// store that back the query packages.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gitai-dev/gitai/internal/discover"
	"github.com/gitai-dev/gitai/internal/embedding"
	"github.com/gitai-dev/gitai/internal/hashid"
	"github.com/gitai-dev/gitai/internal/lang"
	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/parse"
	"github.com/gitai-dev/gitai/internal/store"
)

// IndexSchemaVersion is the compatibility gate written to meta.json and
// checked by internal/checkindex.
const IndexSchemaVersion = 3

// storeDirName is the vector store's on-disk directory name. Historical:
// the teacher's vector backend was LanceDB; this repo's columnar SQLite
// tables kept the directory name so existing .git-ai trees don't need a
// migration step.
const storeDirName = "lancedb"

const graphDBName = "ast-graph.sqlite"
const graphExportName = "ast-graph.export.json"
const graphErrorName = "cozo.error.json"
const metaName = "meta.json"

// Progress is the shape delivered to Config.OnProgress, matching the
// external on_progress callback contract.
type Progress struct {
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Current   string `json:"current"`
}

// Config drives one indexing run.
type Config struct {
	// RepoRoot is the repository root; .git-ai/ lives directly under it.
	RepoRoot string
	// ScanRoot is the directory discovery walks, relative to RepoRoot (use
	// "." to scan the whole repo).
	ScanRoot string
	// Dim is the embedding dimensionality for this run.
	Dim int
	// Overwrite drops and recreates every language's vector tables before
	// writing (full rebuild, no dedup against a prior run).
	Overwrite bool
	// Incremental restricts discovery+parsing to ChangedFiles and writes
	// graph relations in put/targeted-remove mode instead of replace.
	Incremental bool
	// ChangedFiles are repo-root-relative POSIX paths to (re)index when
	// Incremental is set. Deleted files should also be listed; Run removes
	// their graph-store rows when the file no longer exists on disk. Their
	// vector-store rows are left in place.
	ChangedFiles []string
	// Workers bounds the parse stage's concurrency; defaults to
	// runtime.NumCPU() when zero.
	Workers int
	// Exclude lists additional gitignore-style patterns applied on top of
	// the built-in excludes and the scan root's .aiignore/.gitignore files.
	Exclude []string
	// GraphBackend selects the graph store implementation: "auto" (try
	// sqlite3, fall back to in-memory), "sqlite3", or "memory". "" behaves
	// as "auto".
	GraphBackend string
	// OnProgress, if set, is invoked after every file is processed.
	OnProgress func(Progress)
}

// LangCount is one language's contribution to a run, mirrored into
// meta.json's byLang map.
type LangCount struct {
	ChunksAdded int `json:"chunksAdded"`
	RefsAdded   int `json:"refsAdded"`
}

// GraphMeta summarizes graph-store initialization for meta.json's astGraph
// field.
type GraphMeta struct {
	Enabled       bool           `json:"enabled"`
	Engine        string         `json:"engine,omitempty"`
	DBPath        string         `json:"dbPath,omitempty"`
	Counts        map[string]int `json:"counts,omitempty"`
	SkippedReason string         `json:"skippedReason,omitempty"`
}

// Meta is the on-disk IndexMeta record written to .git-ai/meta.json.
type Meta struct {
	IndexSchemaVersion int                       `json:"index_schema_version"`
	Dim                int                       `json:"dim"`
	Languages          []model.Lang              `json:"languages"`
	DBDir              string                    `json:"dbDir"`
	ScanRoot           string                    `json:"scanRoot"`
	CommitHash         string                    `json:"commit_hash,omitempty"`
	AstGraph           GraphMeta                 `json:"astGraph"`
	ByLang             map[model.Lang]*LangCount `json:"byLang"`
	RunID              string                    `json:"run_id,omitempty"`
}

// Result is what Run returns after a completed indexing run.
type Result struct {
	Meta     Meta
	Files    int
	Duration time.Duration
	RunID    string
}

// fileUnit is one discovered file routed to a language, ready to parse.
type fileUnit struct {
	relPath string // repo-root-relative POSIX path
	absPath string
	lang    model.Lang
}

// parsedFile is one file's parse result, handed from the worker stage to
// the single-writer accumulation stage.
type parsedFile struct {
	unit   fileUnit
	record *model.FileRecord
	exists bool // false when the file was removed (incremental delete)
}

// callableSpan is a function/method symbol's line range, used to resolve
// the enclosing callable for each AstReference after a file's symbols are
// all processed.
type callableSpan struct {
	refID     string
	startLine int
	endLine   int
}

// langAccumulator collects the rows a run contributes to one language's
// vector-store tables before the final bulk-flush.
type langAccumulator struct {
	chunks []store.ChunkRow
	refs   []store.RefRow
	seen   map[string]bool // content_hash already embedded this run
}

// Run executes a full or incremental indexing run per cfg and returns the
// published meta.json contents.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()

	repoRoot, err := filepath.Abs(cfg.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("indexer: resolve repo root: %w", err)
	}
	scanRootRel := cfg.ScanRoot
	if scanRootRel == "" {
		scanRootRel = "."
	}
	scanRootAbs := filepath.Join(repoRoot, scanRootRel)

	gitAIDir := filepath.Join(repoRoot, ".git-ai")
	if err := os.MkdirAll(gitAIDir, 0o755); err != nil {
		return nil, fmt.Errorf("indexer: create .git-ai: %w", err)
	}
	dbDir := filepath.Join(gitAIDir, storeDirName)

	units, err := discoverUnits(cfg, scanRootAbs, scanRootRel, repoRoot)
	if err != nil {
		return nil, fmt.Errorf("indexer: discover: %w", err)
	}

	languages := distinctLanguages(units)

	mode := store.CreateIfMissing
	if cfg.Overwrite {
		mode = store.Overwrite
	}
	vs, err := store.Open(dbDir, cfg.Dim, mode, languages)
	if err != nil {
		return nil, fmt.Errorf("indexer: open vector store: %w", err)
	}
	defer vs.Close()

	accumulators := make(map[model.Lang]*langAccumulator, len(languages))
	for _, l := range languages {
		acc := &langAccumulator{seen: map[string]bool{}}
		if !cfg.Overwrite {
			existing, err := vs.ExistingHashes(ctx, l)
			if err != nil {
				return nil, fmt.Errorf("indexer: load existing hashes for %s: %w", l, err)
			}
			acc.seen = existing
		}
		accumulators[l] = acc
	}

	graphDBPath := filepath.Join(gitAIDir, graphDBName)
	graphExportPath := filepath.Join(gitAIDir, graphExportName)
	gs, openStatus := store.OpenGraphStore(graphDBPath, graphExportPath, cfg.GraphBackend)
	defer gs.Close()
	if !openStatus.Enabled {
		slog.Warn("graph store falling back to in-memory", "reason", openStatus.SkippedReason)
		if writeErr := os.WriteFile(filepath.Join(gitAIDir, graphErrorName),
			[]byte(fmt.Sprintf(`{"error":%q}`, openStatus.SkippedReason)), 0o644); writeErr != nil {
			slog.Warn("failed to write graph error diagnostic", "error", writeErr)
		}
	}

	parsed, err := parseFiles(ctx, cfg, units)
	if err != nil {
		return nil, fmt.Errorf("indexer: parse: %w", err)
	}

	batch := store.Batch{}
	processed := 0
	for _, pf := range parsed {
		processed++
		if cfg.OnProgress != nil {
			cfg.OnProgress(Progress{Total: len(parsed), Processed: processed, Current: pf.unit.relPath})
		}

		if cfg.Incremental {
			if removeErr := gs.RemoveFile(ctx, pf.unit.relPath); removeErr != nil {
				return nil, fmt.Errorf("indexer: remove stale graph rows for %s: %w", pf.unit.relPath, removeErr)
			}
		}
		if !pf.exists {
			continue // deleted file: removal above is the whole contribution
		}

		acc := accumulators[pf.unit.lang]
		fileBatch := accumulateFile(pf.unit.relPath, pf.unit.lang, pf.record, acc, cfg.Dim)

		if cfg.Incremental {
			if writeErr := gs.Write(ctx, store.WritePut, fileBatch); writeErr != nil {
				return nil, fmt.Errorf("indexer: write graph rows for %s: %w", pf.unit.relPath, writeErr)
			}
		} else {
			appendBatch(&batch, fileBatch)
		}
	}

	if !cfg.Incremental {
		if writeErr := gs.Write(ctx, store.WriteReplace, batch); writeErr != nil {
			return nil, fmt.Errorf("indexer: write graph relations: %w", writeErr)
		}
	}

	byLang := map[model.Lang]*LangCount{}
	for l, acc := range accumulators {
		if len(acc.chunks) == 0 && len(acc.refs) == 0 {
			continue
		}
		if err := vs.InsertChunks(ctx, l, acc.chunks); err != nil {
			return nil, fmt.Errorf("indexer: insert chunks for %s: %w", l, err)
		}
		if err := vs.InsertRefs(ctx, l, acc.refs); err != nil {
			return nil, fmt.Errorf("indexer: insert refs for %s: %w", l, err)
		}
		byLang[l] = &LangCount{ChunksAdded: len(acc.chunks), RefsAdded: len(acc.refs)}
	}

	graphMeta := GraphMeta{Enabled: openStatus.Enabled, Engine: openStatus.Engine, SkippedReason: openStatus.SkippedReason}
	if openStatus.Enabled {
		graphMeta.DBPath, err = filepath.Rel(repoRoot, graphDBPath)
		if err != nil {
			graphMeta.DBPath = graphDBPath
		}
		if counts, countErr := graphCounts(ctx, gs); countErr == nil {
			graphMeta.Counts = counts
		}
	}
	// The JSON export is written on every run, not just the in-memory
	// fallback: it is the in-memory backend's only durability mechanism
	// across process restarts, and doubles as a sqlite3 recovery export.
	if exp, expErr := gs.Export(ctx); expErr == nil {
		if writeErr := store.WriteExportJSON(graphExportPath, exp); writeErr != nil {
			slog.Warn("failed to write graph export JSON", "error", writeErr)
		}
	} else {
		slog.Warn("failed to export graph for recovery JSON", "error", expErr)
	}

	relDBDir, err := filepath.Rel(repoRoot, dbDir)
	if err != nil {
		relDBDir = dbDir
	}

	meta := Meta{
		IndexSchemaVersion: IndexSchemaVersion,
		Dim:                cfg.Dim,
		Languages:          languages,
		DBDir:              relDBDir,
		ScanRoot:           scanRootRel,
		CommitHash:         resolveCommitHash(repoRoot),
		AstGraph:           graphMeta,
		ByLang:             byLang,
		RunID:              runID,
	}
	if err := writeMeta(filepath.Join(gitAIDir, metaName), meta); err != nil {
		return nil, fmt.Errorf("indexer: write meta.json: %w", err)
	}

	slog.Info("index_complete",
		"run_id", runID,
		"files", len(parsed),
		"languages", languages,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{Meta: meta, Files: len(parsed), Duration: time.Since(start), RunID: runID}, nil
}

// discoverUnits resolves the file list (full walk or the caller-supplied
// incremental change set) into fileUnits routed to a language, skipping
// files whose extension isn't recognized. Per spec §3, relPath on every
// returned unit is POSIX-normalized and relative to the repository root,
// not to scanRoot.
func discoverUnits(cfg Config, scanRootAbs, scanRootRel, repoRoot string) ([]fileUnit, error) {
	var relPaths []string
	if cfg.Incremental {
		// cfg.ChangedFiles is documented as already repo-root-relative.
		relPaths = cfg.ChangedFiles
	} else {
		d, err := discover.New(cfg.Exclude...)
		if err != nil {
			return nil, err
		}
		walked, err := d.Walk(scanRootAbs)
		if err != nil {
			return nil, err
		}
		relPaths = make([]string, len(walked))
		for i, rel := range walked {
			relPaths[i] = rerootToRepo(scanRootRel, rel)
		}
	}

	units := make([]fileUnit, 0, len(relPaths))
	for _, rel := range relPaths {
		l, ok := lang.RouteExtension(filepath.Ext(rel))
		if !ok {
			continue
		}
		units = append(units, fileUnit{
			relPath: rel,
			absPath: filepath.Join(repoRoot, filepath.FromSlash(rel)),
			lang:    l,
		})
	}
	return units, nil
}

// rerootToRepo joins a scanRoot-relative POSIX path with scanRootRel
// (itself repo-root-relative, "." meaning the repo root) to produce a
// repo-root-relative POSIX path.
func rerootToRepo(scanRootRel, rel string) string {
	if scanRootRel == "" || scanRootRel == "." {
		return rel
	}
	return path.Join(hashid.ToPosix(scanRootRel), rel)
}

func distinctLanguages(units []fileUnit) []model.Lang {
	seen := map[model.Lang]bool{}
	for _, u := range units {
		seen[u.lang] = true
	}
	out := make([]model.Lang, 0, len(seen))
	for _, l := range model.PreferenceOrder {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

// parseFiles runs the bounded-parallel parse stage: each worker reads and
// parses one file; results are collected in input order so the downstream
// single-writer stage sees deterministic output regardless of scheduling.
func parseFiles(ctx context.Context, cfg Config, units []fileUnit) ([]parsedFile, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]parsedFile, len(units))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)
	dispatcher := parse.NewDispatcher()
	var mu sync.Mutex

	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			info, err := os.Lstat(u.absPath)
			if err != nil || !info.Mode().IsRegular() {
				mu.Lock()
				results[i] = parsedFile{unit: u, exists: false}
				mu.Unlock()
				return nil
			}
			source, err := os.ReadFile(u.absPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", u.relPath, err)
			}
			record, _ := dispatcher.ParseFile(gctx, u.relPath, source)
			if record == nil {
				record = &model.FileRecord{Path: u.relPath, Lang: u.lang}
			}
			mu.Lock()
			results[i] = parsedFile{unit: u, record: record, exists: true}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// accumulateFile turns one file's (symbols, refs) into graph tuples and
// vector-store rows, per spec §4.7 step 3: containment/heritage tuples are
// emitted alongside each symbol; references are resolved to their
// enclosing callable only after every symbol in the file has been seen.
func accumulateFile(relPath string, l model.Lang, record *model.FileRecord, acc *langAccumulator, dim int) store.Batch {
	fileID := hashid.FileID(relPath)
	batch := store.Batch{
		Files: []store.FileTuple{{FileID: fileID, File: relPath, Lang: l}},
	}

	var callables []callableSpan

	for _, sym := range record.Symbols {
		contentHash := hashid.ContentHash(relPath, sym.Kind, sym.Name, sym.Signature)
		refID := hashid.RefID(relPath, sym.Name, sym.Kind, sym.StartLine, sym.EndLine, contentHash)

		batch.Symbols = append(batch.Symbols, store.SymbolTuple{
			RefID: refID, File: relPath, Lang: l, Name: sym.Name, Kind: sym.Kind,
			Signature: sym.Signature, StartLine: sym.StartLine, EndLine: sym.EndLine,
		})

		parentID := fileID
		if sym.Container != nil {
			containerHash := hashid.ContentHash(relPath, sym.Container.Kind, sym.Container.Name, sym.Container.Signature)
			parentID = hashid.RefID(relPath, sym.Container.Name, sym.Container.Kind, sym.Container.StartLine, sym.Container.EndLine, containerHash)
		}
		batch.Contains = append(batch.Contains, store.ContainsTuple{ParentID: parentID, ChildID: refID})

		if sym.Kind == model.KindClass {
			for _, super := range sym.Extends {
				batch.Extends = append(batch.Extends, store.HeritageTuple{SubID: refID, Name: super})
			}
			for _, iface := range sym.Implements {
				batch.Implements = append(batch.Implements, store.HeritageTuple{SubID: refID, Name: iface})
			}
		}

		if sym.Kind == model.KindFunction || sym.Kind == model.KindMethod {
			callables = append(callables, callableSpan{refID: refID, startLine: sym.StartLine, endLine: sym.EndLine})
		}

		if !acc.seen[contentHash] {
			acc.seen[contentHash] = true
			text := hashid.ChunkText(relPath, sym.Kind, sym.Name, sym.Signature)
			vec := embedding.HashEmbedding(text, dim)
			q := embedding.QuantizeSQ8(vec)
			acc.chunks = append(acc.chunks, store.ChunkRow{
				ContentHash: contentHash,
				Text:        text,
				Dim:         int32(q.Dim),
				Scale:       q.Scale,
				QVecB64:     store.EncodeQVec(q.Q),
			})
		}

		acc.refs = append(acc.refs, store.RefRow{
			RefID: refID, ContentHash: contentHash, File: relPath, Symbol: sym.Name,
			Kind: sym.Kind, Signature: sym.Signature, StartLine: int32(sym.StartLine), EndLine: int32(sym.EndLine),
		})
	}

	sort.Slice(callables, func(i, j int) bool {
		return callables[i].startLine < callables[j].startLine
	})

	for _, ref := range record.Refs {
		fromID := argminSpan(callables, ref.Line, fileID)
		batch.Refs = append(batch.Refs, store.RefNameTuple{
			FromID: fromID, FromLang: l, Name: ref.Name, RefKind: ref.Kind,
			File: relPath, Line: ref.Line, Col: ref.Column,
		})
		if ref.Kind == model.RefCall || ref.Kind == model.RefNew {
			batch.Calls = append(batch.Calls, store.CallNameTuple{
				CallerID: fromID, CallerLang: l, CalleeName: ref.Name, File: relPath, Line: ref.Line, Col: ref.Column,
			})
		}
	}

	return batch
}

// argminSpan returns the refID of the smallest enclosing callable (by line
// range) containing line, falling back to fallback (the file_id) when no
// callable contains it. Ties on span size are broken by whichever callable
// was scanned first after sorting by start line, matching spec §3's
// "smallest enclosing callable" invariant.
func argminSpan(callables []callableSpan, line int, fallback string) string {
	best := fallback
	bestSpan := -1
	for _, c := range callables {
		if line < c.startLine || line > c.endLine {
			continue
		}
		span := c.endLine - c.startLine
		if bestSpan == -1 || span < bestSpan {
			bestSpan = span
			best = c.refID
		}
	}
	return best
}

func appendBatch(dst *store.Batch, src store.Batch) {
	dst.Files = append(dst.Files, src.Files...)
	dst.Symbols = append(dst.Symbols, src.Symbols...)
	dst.Contains = append(dst.Contains, src.Contains...)
	dst.Extends = append(dst.Extends, src.Extends...)
	dst.Implements = append(dst.Implements, src.Implements...)
	dst.Refs = append(dst.Refs, src.Refs...)
	dst.Calls = append(dst.Calls, src.Calls...)
}

func graphCounts(ctx context.Context, gs store.GraphStore) (map[string]int, error) {
	symbols, err := gs.AllSymbols(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := gs.AllRefs(ctx)
	if err != nil {
		return nil, err
	}
	calls, err := gs.AllCalls(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{"ast_symbol": len(symbols), "ast_ref_name": len(refs), "ast_call_name": len(calls)}, nil
}

func resolveCommitHash(repoRoot string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func writeMeta(path string, meta Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
