package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // cgo sqlite driver; graph store's backend

	"github.com/gitai-dev/gitai/internal/model"
)

// WriteMode selects how GraphStore.Write applies a batch of tuples.
type WriteMode string

const (
	// WriteReplace wipes every relation before inserting (full rebuild).
	WriteReplace WriteMode = "replace"
	// WritePut upserts tuples without touching unrelated rows.
	WritePut WriteMode = "put"
)

// FileTuple is one ast_file row.
type FileTuple struct {
	FileID string
	File   string
	Lang   model.Lang
}

// SymbolTuple is one ast_symbol row.
type SymbolTuple struct {
	RefID     string
	File      string
	Lang      model.Lang
	Name      string
	Kind      model.Kind
	Signature string
	StartLine int
	EndLine   int
}

// ContainsTuple is one ast_contains row.
type ContainsTuple struct {
	ParentID string
	ChildID  string
}

// HeritageTuple is one ast_extends_name or ast_implements_name row.
type HeritageTuple struct {
	SubID string
	Name  string
}

// RefNameTuple is one ast_ref_name row.
type RefNameTuple struct {
	FromID   string
	FromLang model.Lang
	Name     string
	RefKind  model.RefKind
	File     string
	Line     int
	Col      int
}

// CallNameTuple is one ast_call_name row.
type CallNameTuple struct {
	CallerID   string
	CallerLang model.Lang
	CalleeName string
	File       string
	Line       int
	Col        int
}

// Batch is the full set of graph tuples produced while indexing (either the
// whole repo for a `replace` write, or one file's worth for a `put`/targeted
// `remove` incremental write).
type Batch struct {
	Files      []FileTuple
	Symbols    []SymbolTuple
	Contains   []ContainsTuple
	Extends    []HeritageTuple
	Implements []HeritageTuple
	Refs       []RefNameTuple
	Calls      []CallNameTuple
}

// ExportData is the portable JSON shape of the whole graph, used both as the
// in-memory backend's sole durability mechanism and as a recovery export
// alongside the sqlite backend.
type ExportData struct {
	Files      []FileTuple     `json:"ast_file"`
	Symbols    []SymbolTuple   `json:"ast_symbol"`
	Contains   []ContainsTuple `json:"ast_contains"`
	Extends    []HeritageTuple `json:"ast_extends_name"`
	Implements []HeritageTuple `json:"ast_implements_name"`
	Refs       []RefNameTuple  `json:"ast_ref_name"`
	Calls      []CallNameTuple `json:"ast_call_name"`
}

// GraphStore is the datalog-style graph store contract: write batches in
// replace/put mode, remove a file's tuples for incremental reindexing, and
// read back relations for the query engines.
type GraphStore interface {
	Write(ctx context.Context, mode WriteMode, b Batch) error
	RemoveFile(ctx context.Context, file string) error
	Export(ctx context.Context) (ExportData, error)
	Import(ctx context.Context, data ExportData) error
	FindByPrefix(ctx context.Context, prefix string, lang model.Lang, allLangs bool) ([]SymbolTuple, error)
	Children(ctx context.Context, parentID string) ([]SymbolTuple, error)
	FindReferences(ctx context.Context, name string, lang model.Lang, allLangs bool) ([]RefNameTuple, error)
	Callers(ctx context.Context, calleeName string, lang model.Lang, allLangs bool) ([]CallNameTuple, error)
	SymbolsByName(ctx context.Context, name string, lang model.Lang, allLangs bool) ([]SymbolTuple, error)
	AllCalls(ctx context.Context) ([]CallNameTuple, error)
	AllSymbols(ctx context.Context) ([]SymbolTuple, error)
	AllRefs(ctx context.Context) ([]RefNameTuple, error)
	Close() error
}

// OpenStatus reports how graph-store initialization went, for meta.json's
// astGraph summary.
type OpenStatus struct {
	Enabled       bool
	Engine        string
	DBPath        string
	SkippedReason string
}

// OpenGraphStore attempts the cgo sqlite3 backend at dbPath, honoring an
// explicit backend selection ("auto", "sqlite3", or "memory"; "" behaves as
// "auto"). When the sqlite3 backend is unavailable or "memory" is forced, it
// falls back to an in-memory store hydrated from exportPath's prior JSON
// export (if any), so the fallback's durability is round-trip, not
// write-only, per spec §4.6.
func OpenGraphStore(dbPath, exportPath, backend string) (GraphStore, OpenStatus) {
	if strings.EqualFold(backend, "memory") {
		mem, status := openMemoryWithHydration(exportPath)
		status.SkippedReason = "graph.backend=memory"
		return mem, status
	}

	gs, err := newSQLiteGraphStore(dbPath)
	if err == nil {
		return gs, OpenStatus{Enabled: true, Engine: "sqlite3", DBPath: dbPath}
	}
	mem, status := openMemoryWithHydration(exportPath)
	status.SkippedReason = err.Error()
	return mem, status
}

// openMemoryWithHydration builds a fresh in-memory graph store and, if
// exportPath names a prior WriteExportJSON output, imports it so an
// already-indexed repo isn't silently emptied on the next open.
func openMemoryWithHydration(exportPath string) (*memoryGraphStore, OpenStatus) {
	mem := newMemoryGraphStore()
	if exportPath != "" {
		if data, err := ReadExportJSON(exportPath); err == nil {
			_ = mem.Import(context.Background(), data)
		}
	}
	return mem, OpenStatus{Enabled: false, Engine: "memory"}
}

// ---- sqlite3 (cgo) backend ----

type sqliteGraphStore struct {
	mu sync.Mutex
	db *sql.DB
}

func newSQLiteGraphStore(dbPath string) (*sqliteGraphStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("graph store: create dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("graph store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("graph store: ping: %w", err)
	}
	db.SetMaxOpenConns(1)

	gs := &sqliteGraphStore{db: db}
	if err := gs.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return gs, nil
}

func (g *sqliteGraphStore) initSchema() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS ast_file (file_id TEXT PRIMARY KEY, file TEXT NOT NULL, lang TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ast_symbol (ref_id TEXT PRIMARY KEY, file TEXT NOT NULL, lang TEXT NOT NULL, name TEXT NOT NULL, kind TEXT NOT NULL, signature TEXT NOT NULL, start_line INTEGER NOT NULL, end_line INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ast_contains (parent_id TEXT NOT NULL, child_id TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ast_extends_name (sub_id TEXT NOT NULL, super_name TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ast_implements_name (sub_id TEXT NOT NULL, iface_name TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ast_ref_name (from_id TEXT NOT NULL, from_lang TEXT NOT NULL, name TEXT NOT NULL, ref_kind TEXT NOT NULL, file TEXT NOT NULL, line INTEGER NOT NULL, col INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ast_call_name (caller_id TEXT NOT NULL, caller_lang TEXT NOT NULL, callee_name TEXT NOT NULL, file TEXT NOT NULL, line INTEGER NOT NULL, col INTEGER NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS idx_ast_symbol_name ON ast_symbol(name)`,
		`CREATE INDEX IF NOT EXISTS idx_ast_call_name_callee ON ast_call_name(callee_name)`,
		`CREATE INDEX IF NOT EXISTS idx_ast_ref_name_name ON ast_ref_name(name)`,
		`CREATE INDEX IF NOT EXISTS idx_ast_contains_parent ON ast_contains(parent_id)`,
	}
	for _, stmt := range ddl {
		if _, err := g.db.Exec(stmt); err != nil {
			return fmt.Errorf("graph store: schema: %w", err)
		}
	}
	return nil
}

func (g *sqliteGraphStore) Write(ctx context.Context, mode WriteMode, b Batch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if mode == WriteReplace {
		for _, t := range []string{"ast_file", "ast_symbol", "ast_contains", "ast_extends_name", "ast_implements_name", "ast_ref_name", "ast_call_name"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return err
			}
		}
	}

	if err := insertTuples(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTuples(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, f := range b.Files {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO ast_file(file_id, file, lang) VALUES (?,?,?)`, f.FileID, f.File, f.Lang); err != nil {
			return err
		}
	}
	for _, s := range b.Symbols {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO ast_symbol(ref_id, file, lang, name, kind, signature, start_line, end_line) VALUES (?,?,?,?,?,?,?,?)`,
			s.RefID, s.File, s.Lang, s.Name, s.Kind, s.Signature, s.StartLine, s.EndLine); err != nil {
			return err
		}
	}
	for _, c := range b.Contains {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ast_contains(parent_id, child_id) VALUES (?,?)`, c.ParentID, c.ChildID); err != nil {
			return err
		}
	}
	for _, e := range b.Extends {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ast_extends_name(sub_id, super_name) VALUES (?,?)`, e.SubID, e.Name); err != nil {
			return err
		}
	}
	for _, im := range b.Implements {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ast_implements_name(sub_id, iface_name) VALUES (?,?)`, im.SubID, im.Name); err != nil {
			return err
		}
	}
	for _, r := range b.Refs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ast_ref_name(from_id, from_lang, name, ref_kind, file, line, col) VALUES (?,?,?,?,?,?,?)`,
			r.FromID, r.FromLang, r.Name, r.RefKind, r.File, r.Line, r.Col); err != nil {
			return err
		}
	}
	for _, c := range b.Calls {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ast_call_name(caller_id, caller_lang, callee_name, file, line, col) VALUES (?,?,?,?,?,?)`,
			c.CallerID, c.CallerLang, c.CalleeName, c.File, c.Line, c.Col); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFile deletes every tuple belonging to file. ast_contains and
// heritage rows are removed before ast_file/ast_symbol so their
// file_id/ref_id lookup subqueries still see the rows they need to match
// against.
func (g *sqliteGraphStore) RemoveFile(ctx context.Context, file string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ast_contains WHERE parent_id IN (SELECT file_id FROM ast_file WHERE file = ?)
		   OR child_id IN (SELECT ref_id FROM ast_symbol WHERE file = ?)`, file, file); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM ast_extends_name WHERE sub_id IN (SELECT ref_id FROM ast_symbol WHERE file = ?)`,
		`DELETE FROM ast_implements_name WHERE sub_id IN (SELECT ref_id FROM ast_symbol WHERE file = ?)`,
		`DELETE FROM ast_symbol WHERE file = ?`,
		`DELETE FROM ast_file WHERE file = ?`,
		`DELETE FROM ast_ref_name WHERE file = ?`,
		`DELETE FROM ast_call_name WHERE file = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, file); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (g *sqliteGraphStore) Export(ctx context.Context) (ExportData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return exportViaQueries(ctx, g.db)
}

func exportViaQueries(ctx context.Context, db *sql.DB) (ExportData, error) {
	var out ExportData

	rows, err := db.QueryContext(ctx, `SELECT file_id, file, lang FROM ast_file`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var f FileTuple
		if err := rows.Scan(&f.FileID, &f.File, &f.Lang); err != nil {
			rows.Close()
			return out, err
		}
		out.Files = append(out.Files, f)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT ref_id, file, lang, name, kind, signature, start_line, end_line FROM ast_symbol`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var s SymbolTuple
		if err := rows.Scan(&s.RefID, &s.File, &s.Lang, &s.Name, &s.Kind, &s.Signature, &s.StartLine, &s.EndLine); err != nil {
			rows.Close()
			return out, err
		}
		out.Symbols = append(out.Symbols, s)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT parent_id, child_id FROM ast_contains`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var c ContainsTuple
		if err := rows.Scan(&c.ParentID, &c.ChildID); err != nil {
			rows.Close()
			return out, err
		}
		out.Contains = append(out.Contains, c)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT sub_id, super_name FROM ast_extends_name`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var h HeritageTuple
		if err := rows.Scan(&h.SubID, &h.Name); err != nil {
			rows.Close()
			return out, err
		}
		out.Extends = append(out.Extends, h)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT sub_id, iface_name FROM ast_implements_name`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var h HeritageTuple
		if err := rows.Scan(&h.SubID, &h.Name); err != nil {
			rows.Close()
			return out, err
		}
		out.Implements = append(out.Implements, h)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT from_id, from_lang, name, ref_kind, file, line, col FROM ast_ref_name`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var r RefNameTuple
		if err := rows.Scan(&r.FromID, &r.FromLang, &r.Name, &r.RefKind, &r.File, &r.Line, &r.Col); err != nil {
			rows.Close()
			return out, err
		}
		out.Refs = append(out.Refs, r)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT caller_id, caller_lang, callee_name, file, line, col FROM ast_call_name`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var c CallNameTuple
		if err := rows.Scan(&c.CallerID, &c.CallerLang, &c.CalleeName, &c.File, &c.Line, &c.Col); err != nil {
			rows.Close()
			return out, err
		}
		out.Calls = append(out.Calls, c)
	}
	rows.Close()

	return out, nil
}

func (g *sqliteGraphStore) Import(ctx context.Context, data ExportData) error {
	return g.Write(ctx, WriteReplace, Batch{
		Files: data.Files, Symbols: data.Symbols, Contains: data.Contains,
		Extends: data.Extends, Implements: data.Implements, Refs: data.Refs, Calls: data.Calls,
	})
}

func (g *sqliteGraphStore) FindByPrefix(ctx context.Context, prefix string, lang model.Lang, allLangs bool) ([]SymbolTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	q := `SELECT ref_id, file, lang, name, kind, signature, start_line, end_line FROM ast_symbol WHERE LOWER(name) LIKE ? ESCAPE '\'`
	args := []any{escapeLike(strings.ToLower(prefix)) + "%"}
	if !allLangs {
		q += " AND lang = ?"
		args = append(args, lang)
	}
	return scanSymbols(ctx, g.db, q, args...)
}

func (g *sqliteGraphStore) Children(ctx context.Context, parentID string) ([]SymbolTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q := `SELECT s.ref_id, s.file, s.lang, s.name, s.kind, s.signature, s.start_line, s.end_line
	      FROM ast_symbol s JOIN ast_contains c ON c.child_id = s.ref_id WHERE c.parent_id = ?`
	return scanSymbols(ctx, g.db, q, parentID)
}

func (g *sqliteGraphStore) FindReferences(ctx context.Context, name string, lang model.Lang, allLangs bool) ([]RefNameTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q := `SELECT from_id, from_lang, name, ref_kind, file, line, col FROM ast_ref_name WHERE LOWER(name) = LOWER(?)`
	args := []any{name}
	if !allLangs {
		q += " AND from_lang = ?"
		args = append(args, lang)
	}
	rows, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RefNameTuple
	for rows.Next() {
		var r RefNameTuple
		if err := rows.Scan(&r.FromID, &r.FromLang, &r.Name, &r.RefKind, &r.File, &r.Line, &r.Col); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (g *sqliteGraphStore) Callers(ctx context.Context, calleeName string, lang model.Lang, allLangs bool) ([]CallNameTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q := `SELECT caller_id, caller_lang, callee_name, file, line, col FROM ast_call_name WHERE LOWER(callee_name) = LOWER(?)`
	args := []any{calleeName}
	if !allLangs {
		q += " AND caller_lang = ?"
		args = append(args, lang)
	}
	rows, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CallNameTuple
	for rows.Next() {
		var c CallNameTuple
		if err := rows.Scan(&c.CallerID, &c.CallerLang, &c.CalleeName, &c.File, &c.Line, &c.Col); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (g *sqliteGraphStore) SymbolsByName(ctx context.Context, name string, lang model.Lang, allLangs bool) ([]SymbolTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q := `SELECT ref_id, file, lang, name, kind, signature, start_line, end_line FROM ast_symbol WHERE LOWER(name) = LOWER(?)`
	args := []any{name}
	if !allLangs {
		q += " AND lang = ?"
		args = append(args, lang)
	}
	return scanSymbols(ctx, g.db, q, args...)
}

func (g *sqliteGraphStore) AllCalls(ctx context.Context) ([]CallNameTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, err := g.db.QueryContext(ctx, `SELECT caller_id, caller_lang, callee_name, file, line, col FROM ast_call_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CallNameTuple
	for rows.Next() {
		var c CallNameTuple
		if err := rows.Scan(&c.CallerID, &c.CallerLang, &c.CalleeName, &c.File, &c.Line, &c.Col); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (g *sqliteGraphStore) AllSymbols(ctx context.Context) ([]SymbolTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return scanSymbols(ctx, g.db, `SELECT ref_id, file, lang, name, kind, signature, start_line, end_line FROM ast_symbol`)
}

func (g *sqliteGraphStore) AllRefs(ctx context.Context) ([]RefNameTuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, err := g.db.QueryContext(ctx, `SELECT from_id, from_lang, name, ref_kind, file, line, col FROM ast_ref_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RefNameTuple
	for rows.Next() {
		var r RefNameTuple
		if err := rows.Scan(&r.FromID, &r.FromLang, &r.Name, &r.RefKind, &r.File, &r.Line, &r.Col); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanSymbols(ctx context.Context, db *sql.DB, query string, args ...any) ([]SymbolTuple, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SymbolTuple
	for rows.Next() {
		var s SymbolTuple
		if err := rows.Scan(&s.RefID, &s.File, &s.Lang, &s.Name, &s.Kind, &s.Signature, &s.StartLine, &s.EndLine); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (g *sqliteGraphStore) Close() error {
	return g.db.Close()
}

// escapeLike backslash-escapes LIKE wildcard characters in a user-supplied
// prefix so literal `%`/`_` in a symbol name don't act as wildcards.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// ---- in-memory fallback backend ----

type memoryGraphStore struct {
	mu   sync.Mutex
	data ExportData
}

func newMemoryGraphStore() *memoryGraphStore {
	return &memoryGraphStore{}
}

func (m *memoryGraphStore) Write(_ context.Context, mode WriteMode, b Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode == WriteReplace {
		m.data = ExportData{}
	}
	m.data.Files = append(m.data.Files, b.Files...)
	m.data.Symbols = append(m.data.Symbols, b.Symbols...)
	m.data.Contains = append(m.data.Contains, b.Contains...)
	m.data.Extends = append(m.data.Extends, b.Extends...)
	m.data.Implements = append(m.data.Implements, b.Implements...)
	m.data.Refs = append(m.data.Refs, b.Refs...)
	m.data.Calls = append(m.data.Calls, b.Calls...)
	return nil
}

func (m *memoryGraphStore) RemoveFile(_ context.Context, file string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedSymbolIDs := map[string]bool{}
	var keptSymbols []SymbolTuple
	for _, s := range m.data.Symbols {
		if s.File == file {
			removedSymbolIDs[s.RefID] = true
			continue
		}
		keptSymbols = append(keptSymbols, s)
	}
	m.data.Symbols = keptSymbols

	var removedFileIDs []string
	var keptFiles []FileTuple
	for _, f := range m.data.Files {
		if f.File == file {
			removedFileIDs = append(removedFileIDs, f.FileID)
			continue
		}
		keptFiles = append(keptFiles, f)
	}
	m.data.Files = keptFiles

	isRemovedParent := func(id string) bool {
		if removedSymbolIDs[id] {
			return true
		}
		for _, fid := range removedFileIDs {
			if fid == id {
				return true
			}
		}
		return false
	}

	var keptContains []ContainsTuple
	for _, c := range m.data.Contains {
		if isRemovedParent(c.ParentID) || removedSymbolIDs[c.ChildID] {
			continue
		}
		keptContains = append(keptContains, c)
	}
	m.data.Contains = keptContains

	keepHeritage := func(in []HeritageTuple) []HeritageTuple {
		var out []HeritageTuple
		for _, h := range in {
			if !removedSymbolIDs[h.SubID] {
				out = append(out, h)
			}
		}
		return out
	}
	m.data.Extends = keepHeritage(m.data.Extends)
	m.data.Implements = keepHeritage(m.data.Implements)

	var keptRefs []RefNameTuple
	for _, r := range m.data.Refs {
		if r.File == file {
			continue
		}
		keptRefs = append(keptRefs, r)
	}
	m.data.Refs = keptRefs

	var keptCalls []CallNameTuple
	for _, c := range m.data.Calls {
		if c.File == file {
			continue
		}
		keptCalls = append(keptCalls, c)
	}
	m.data.Calls = keptCalls
	return nil
}

func (m *memoryGraphStore) Export(_ context.Context) (ExportData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, nil
}

func (m *memoryGraphStore) Import(_ context.Context, data ExportData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

func (m *memoryGraphStore) FindByPrefix(_ context.Context, prefix string, lang model.Lang, allLangs bool) ([]SymbolTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lp := strings.ToLower(prefix)
	var out []SymbolTuple
	for _, s := range m.data.Symbols {
		if !allLangs && s.Lang != lang {
			continue
		}
		if hasPrefixFold(s.Name, lp) {
			out = append(out, s)
		}
	}
	return out, nil
}

func hasPrefixFold(name, lowerPrefix string) bool {
	ln := strings.ToLower(name)
	return len(ln) >= len(lowerPrefix) && ln[:len(lowerPrefix)] == lowerPrefix
}

func (m *memoryGraphStore) Children(_ context.Context, parentID string) ([]SymbolTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	childIDs := map[string]bool{}
	for _, c := range m.data.Contains {
		if c.ParentID == parentID {
			childIDs[c.ChildID] = true
		}
	}
	var out []SymbolTuple
	for _, s := range m.data.Symbols {
		if childIDs[s.RefID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryGraphStore) FindReferences(_ context.Context, name string, lang model.Lang, allLangs bool) ([]RefNameTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ln := strings.ToLower(name)
	var out []RefNameTuple
	for _, r := range m.data.Refs {
		if strings.ToLower(r.Name) != ln {
			continue
		}
		if !allLangs && r.FromLang != lang {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryGraphStore) Callers(_ context.Context, calleeName string, lang model.Lang, allLangs bool) ([]CallNameTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ln := strings.ToLower(calleeName)
	var out []CallNameTuple
	for _, c := range m.data.Calls {
		if strings.ToLower(c.CalleeName) != ln {
			continue
		}
		if !allLangs && c.CallerLang != lang {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryGraphStore) SymbolsByName(_ context.Context, name string, lang model.Lang, allLangs bool) ([]SymbolTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ln := strings.ToLower(name)
	var out []SymbolTuple
	for _, s := range m.data.Symbols {
		if strings.ToLower(s.Name) != ln {
			continue
		}
		if !allLangs && s.Lang != lang {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryGraphStore) AllCalls(_ context.Context) ([]CallNameTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CallNameTuple(nil), m.data.Calls...), nil
}

func (m *memoryGraphStore) AllSymbols(_ context.Context) ([]SymbolTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SymbolTuple(nil), m.data.Symbols...), nil
}

func (m *memoryGraphStore) AllRefs(_ context.Context) ([]RefNameTuple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RefNameTuple(nil), m.data.Refs...), nil
}

func (m *memoryGraphStore) Close() error { return nil }

// WriteExportJSON persists ExportData to disk (ast-graph.export.json).
func WriteExportJSON(path string, data ExportData) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ReadExportJSON loads ExportData previously written by WriteExportJSON.
func ReadExportJSON(path string) (ExportData, error) {
	var out ExportData
	b, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}
