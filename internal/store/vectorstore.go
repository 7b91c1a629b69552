// Package store implements the vector store (columnar chunk/ref tables per
// language) and the graph store (seven datalog-style relations) that the
// indexer writes to and the search/query engines read from.
package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	"github.com/gitai-dev/gitai/internal/model"
)

// OpenMode controls how VectorStore.Open treats existing on-disk tables.
type OpenMode string

const (
	OpenOnly        OpenMode = "open_only"
	CreateIfMissing OpenMode = "create_if_missing"
	Overwrite       OpenMode = "overwrite"
)

// ErrTableMissing is returned by Open in OpenOnly mode when a requested
// language's tables do not already exist.
var ErrTableMissing = fmt.Errorf("vector store: table missing in open_only mode")

// ChunkRow is one row of chunks_<lang>.
type ChunkRow struct {
	ContentHash string
	Text        string
	Dim         int32
	Scale       float32
	QVecB64     string
}

// RefRow is one row of refs_<lang>.
type RefRow struct {
	RefID       string
	ContentHash string
	File        string
	Symbol      string
	Kind        model.Kind
	Signature   string
	StartLine   int32
	EndLine     int32
}

// VectorStore owns the per-language chunks_<lang>/refs_<lang> tables in a
// single SQLite database file (mirrors the teacher's single-writer,
// WAL-mode SQLiteBM25Index shape, generalized to typed columnar tables
// instead of an FTS5 virtual table).
type VectorStore struct {
	mu        sync.Mutex
	db        *sql.DB
	path      string
	languages map[model.Lang]bool
}

// Open opens (or creates) the vector store at dbDir/vectors.sqlite for the
// given languages and dim, honoring mode. Writes are additive, except that
// content_hash (chunks) and ref_id (refs) are primary keys, so inserting a
// row whose key is already present is a no-op. The indexer's own dedup set
// (see pkg/indexer) keeps it from embedding a known chunk again.
func Open(dbDir string, dim int, mode OpenMode, languages []model.Lang) (*VectorStore, error) {
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("vector store: create dir: %w", err)
	}
	path := filepath.Join(dbDir, "vectors.sqlite")

	dsn := path + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("vector store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("vector store: pragma: %w", err)
		}
	}

	vs := &VectorStore{db: db, path: path, languages: map[model.Lang]bool{}}
	for _, l := range languages {
		if err := vs.openLanguage(l, mode); err != nil {
			_ = db.Close()
			return nil, err
		}
		vs.languages[l] = true
	}
	return vs, nil
}

func (vs *VectorStore) openLanguage(l model.Lang, mode OpenMode) error {
	chunksTable := "chunks_" + string(l)
	refsTable := "refs_" + string(l)

	if mode == Overwrite {
		if _, err := vs.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", chunksTable)); err != nil {
			return err
		}
		if _, err := vs.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", refsTable)); err != nil {
			return err
		}
	}

	if mode == OpenOnly {
		for _, t := range []string{chunksTable, refsTable} {
			if !vs.tableExists(t) {
				return fmt.Errorf("%w: %s", ErrTableMissing, t)
			}
		}
		return nil
	}

	chunksDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		content_hash TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		dim INTEGER NOT NULL,
		scale REAL NOT NULL,
		qvec_b64 TEXT NOT NULL
	)`, chunksTable)
	if _, err := vs.db.Exec(chunksDDL); err != nil {
		return fmt.Errorf("vector store: create %s: %w", chunksTable, err)
	}

	refsDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ref_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		file TEXT NOT NULL,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		signature TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL
	)`, refsTable)
	if _, err := vs.db.Exec(refsDDL); err != nil {
		return fmt.Errorf("vector store: create %s: %w", refsTable, err)
	}
	return nil
}

func (vs *VectorStore) tableExists(name string) bool {
	var n int
	_ = vs.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	return n > 0
}

// ExistingHashes reads every content_hash already present in chunks_<lang>,
// used to seed the indexer's non-overwrite dedup set.
func (vs *VectorStore) ExistingHashes(ctx context.Context, l model.Lang) (map[string]bool, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	rows, err := vs.db.QueryContext(ctx, fmt.Sprintf("SELECT content_hash FROM chunks_%s", l))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out[h] = true
	}
	return out, rows.Err()
}

// InsertChunks bulk-inserts chunk rows for one language inside a single
// transaction (the "flush" half of the indexer's parse/flush split).
func (vs *VectorStore) InsertChunks(ctx context.Context, l model.Lang, rows []ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR IGNORE INTO chunks_%s(content_hash, text, dim, scale, qvec_b64) VALUES (?,?,?,?,?)", l))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ContentHash, r.Text, r.Dim, r.Scale, r.QVecB64); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertRefs bulk-inserts ref rows for one language inside a single
// transaction.
func (vs *VectorStore) InsertRefs(ctx context.Context, l model.Lang, rows []RefRow) error {
	if len(rows) == 0 {
		return nil
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR IGNORE INTO refs_%s(ref_id, content_hash, file, symbol, kind, signature, start_line, end_line) VALUES (?,?,?,?,?,?,?,?)", l))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.RefID, r.ContentHash, r.File, r.Symbol, string(r.Kind), r.Signature, r.StartLine, r.EndLine); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SymbolCandidate is a pushdown-prefiltered candidate row from refs_<lang>.
type SymbolCandidate struct {
	RefID     string
	File      string
	Symbol    string
	Kind      model.Kind
	Signature string
	StartLine int32
	EndLine   int32
	Lang      model.Lang
}

// QuerySymbolCandidates runs the coarse LIKE/ILIKE pushdown predicate built
// by pkg/symbolsearch and returns up to maxCandidates raw rows for
// in-memory refinement. An empty where clause means "no predicate, full
// scan up to maxCandidates" (the wildcard/regex/fuzzy no-token case).
func (vs *VectorStore) QuerySymbolCandidates(ctx context.Context, l model.Lang, whereClause string, maxCandidates int) ([]SymbolCandidate, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	q := fmt.Sprintf("SELECT ref_id, file, symbol, kind, signature, start_line, end_line FROM refs_%s", l)
	if whereClause != "" {
		q += " WHERE " + whereClause
	}
	q += " LIMIT ?"

	rows, err := vs.db.QueryContext(ctx, q, maxCandidates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SymbolCandidate
	for rows.Next() {
		var c SymbolCandidate
		var kind string
		if err := rows.Scan(&c.RefID, &c.File, &c.Symbol, &kind, &c.Signature, &c.StartLine, &c.EndLine); err != nil {
			return nil, err
		}
		c.Kind = model.Kind(kind)
		c.Lang = l
		out = append(out, c)
	}
	return out, rows.Err()
}

// QueryFileCandidates is the file-name search surface's pushdown query: the
// same shape as QuerySymbolCandidates but matched/returned against the
// distinct `file` column.
func (vs *VectorStore) QueryFileCandidates(ctx context.Context, l model.Lang, whereClause string, maxCandidates int) ([]string, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	q := fmt.Sprintf("SELECT DISTINCT file FROM refs_%s", l)
	if whereClause != "" {
		q += " WHERE " + strings.Replace(whereClause, "symbol", "file", 1)
	}
	q += " LIMIT ?"

	rows, err := vs.db.QueryContext(ctx, q, maxCandidates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// AllChunks reads every chunk row for a language, used by semantic search's
// brute-force scan.
func (vs *VectorStore) AllChunks(ctx context.Context, l model.Lang) ([]ChunkRow, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	rows, err := vs.db.QueryContext(ctx, fmt.Sprintf("SELECT content_hash, text, dim, scale, qvec_b64 FROM chunks_%s", l))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var c ChunkRow
		if err := rows.Scan(&c.ContentHash, &c.Text, &c.Dim, &c.Scale, &c.QVecB64); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RefsByContentHash reads refs_<lang> rows restricted to a set of
// content_hash values, used to attach refs to semantic search hits.
func (vs *VectorStore) RefsByContentHash(ctx context.Context, l model.Lang, hashes []string) ([]RefRow, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()

	placeholders := make([]string, len(hashes))
	args := make([]any, len(hashes))
	for i, h := range hashes {
		placeholders[i] = "?"
		args[i] = h
	}
	q := fmt.Sprintf("SELECT ref_id, content_hash, file, symbol, kind, signature, start_line, end_line FROM refs_%s WHERE content_hash IN (%s)",
		l, strings.Join(placeholders, ","))

	rows, err := vs.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RefRow
	for rows.Next() {
		var r RefRow
		var kind string
		if err := rows.Scan(&r.RefID, &r.ContentHash, &r.File, &r.Symbol, &kind, &r.Signature, &r.StartLine, &r.EndLine); err != nil {
			return nil, err
		}
		r.Kind = model.Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (vs *VectorStore) Close() error {
	return vs.db.Close()
}

// EncodeQVec little-endian-encodes signed int8 components and base64s them.
func EncodeQVec(q []int8) string {
	buf := make([]byte, len(q))
	for i, v := range q {
		buf[i] = byte(v)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeQVec reverses EncodeQVec.
func DecodeQVec(b64 string) ([]int8, error) {
	buf, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]int8, len(buf))
	for i, b := range buf {
		out[i] = int8(b)
	}
	return out, nil
}
