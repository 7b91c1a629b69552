// Package symbolsearch implements mode-inferred symbol and file-name search
// over the vector store's refs_<lang> tables: a coarse SQL pushdown
// predicate followed by an in-memory refine+rank pass.
package symbolsearch

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

// Mode is a symbol-search matching strategy.
type Mode string

const (
	ModeSubstring Mode = "substring"
	ModePrefix    Mode = "prefix"
	ModeWildcard  Mode = "wildcard"
	ModeRegex     Mode = "regex"
	ModeFuzzy     Mode = "fuzzy"
)

// Query is one symbol-search request.
type Query struct {
	Text            string
	Mode            Mode // empty means "infer"
	CaseInsensitive bool
	Limit           int
	MaxCandidates   int // 0 means derive from Limit
	Lang            model.Lang
	AllLangs        bool // Lang == "all"
}

// Hit is one ranked result, shared by symbol search and file-name search
// (File is always populated; Symbol/Kind/Signature/lines are empty for
// file-name search hits).
type Hit struct {
	RefID     string
	File      string
	Symbol    string
	Kind      model.Kind
	Signature string
	StartLine int32
	EndLine   int32
	Score     float64
}

// stripPatterns are applied iteratively (up to 5 passes) to strip a leading
// language keyword before matching, per spec §4.8.
var stripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(class|interface|type|enum|struct|trait)\s+`),
	regexp.MustCompile(`(?i)^(export\s+async\s+function|export\s+function|async\s+function|function|method|def|func|fn)\s+`),
	regexp.MustCompile(`(?i)^(export\s+const|export\s+let|export\s+var|const|let|var|val)\s+`),
	regexp.MustCompile(`(?i)^(public|private|protected|static|readonly|abstract)\s+`),
}

const maxStripPasses = 5

// InferMode implements infer_mode(q, m): an explicit mode wins; otherwise a
// query containing a glob metacharacter is wildcard, else substring.
func InferMode(q string, m Mode) Mode {
	if m != "" {
		return m
	}
	if strings.ContainsAny(q, "*?") {
		return ModeWildcard
	}
	return ModeSubstring
}

// Strip iteratively removes leading language keywords up to 5 passes or
// until a pass makes no change, whichever comes first.
func Strip(q string) string {
	for i := 0; i < maxStripPasses; i++ {
		stripped := q
		for _, re := range stripPatterns {
			stripped = re.ReplaceAllString(stripped, "")
		}
		stripped = strings.TrimSpace(stripped)
		if stripped == q {
			return stripped
		}
		q = stripped
	}
	return q
}

// escapeLikeLiteral doubles single quotes and backslash-escapes LIKE
// wildcards, per spec §4.8 ("single quotes are doubled for escaping").
func escapeLikeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// longestAlnumToken returns the longest maximal run of alphanumeric
// characters in q, used by wildcard/regex/fuzzy pushdown.
func longestAlnumToken(q string) string {
	var best, cur strings.Builder
	flush := func() {
		if cur.Len() > best.Len() {
			best.Reset()
			best.WriteString(cur.String())
		}
		cur.Reset()
	}
	for _, r := range q {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return best.String()
}

// buildWhere is build_where: the coarse LIKE/ILIKE pushdown predicate for
// the given mode and (stripped) query text, against columnName ("symbol" or
// "file").
func buildWhere(columnName string, mode Mode, text string, caseInsensitive bool) string {
	// modernc.org/sqlite has no ILIKE operator; case-insensitive matching is
	// done by lower-casing both the column and the pattern instead.
	esc := escapeLikeLiteral(text)

	var pattern string
	switch mode {
	case ModePrefix:
		pattern = esc + "%"
	case ModeSubstring:
		pattern = "%" + esc + "%"
	default: // wildcard, regex, fuzzy
		token := longestAlnumToken(text)
		if token == "" {
			return ""
		}
		pattern = "%" + escapeLikeLiteral(token) + "%"
	}

	col := columnName
	if caseInsensitive {
		col = "LOWER(" + columnName + ")"
		pattern = strings.ToLower(pattern)
	}
	return fmt.Sprintf("%s LIKE '%s' ESCAPE '\\'", col, pattern)
}

func defaultMaxCandidates(limit int) int {
	if limit <= 0 {
		limit = 20
	}
	cand := limit * 20
	if cand > 2000 {
		cand = 2000
	}
	if cand < limit {
		cand = limit
	}
	return cand
}

// languagesFor resolves which languages a query runs over: a specific lang,
// or every language present in the store when AllLangs is set.
func languagesFor(q Query, available []model.Lang) []model.Lang {
	if !q.AllLangs {
		return []model.Lang{q.Lang}
	}
	return available
}

// SearchSymbols runs the full query/pushdown/refine pipeline against one or
// more languages' refs_<lang> tables, returning up to Limit ranked hits.
func SearchSymbols(ctx context.Context, vs *store.VectorStore, available []model.Lang, q Query) ([]Hit, error) {
	mode := InferMode(q.Text, q.Mode)
	stripped := Strip(q.Text)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	maxCandidates := q.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates(limit)
	}

	where := buildWhere("symbol", mode, stripped, q.CaseInsensitive)

	var all []Hit
	for _, l := range languagesFor(q, available) {
		candidates, err := vs.QuerySymbolCandidates(ctx, l, where, maxCandidates)
		if err != nil {
			return nil, fmt.Errorf("symbolsearch: query %s: %w", l, err)
		}
		refined, err := refineSymbols(candidates, mode, stripped, q.CaseInsensitive)
		if err != nil {
			return nil, err
		}
		all = append(all, refined...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// SearchFiles is the file-name search surface: the same mode inference,
// stripping, and ranking, operating on the distinct `file` column instead
// of `symbol`.
func SearchFiles(ctx context.Context, vs *store.VectorStore, available []model.Lang, q Query) ([]string, error) {
	mode := InferMode(q.Text, q.Mode)
	stripped := Strip(q.Text)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	maxCandidates := q.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates(limit)
	}

	where := buildWhere("file", mode, stripped, q.CaseInsensitive)

	var all []rankedFile
	for _, l := range languagesFor(q, available) {
		files, err := vs.QueryFileCandidates(ctx, l, where, maxCandidates)
		if err != nil {
			return nil, fmt.Errorf("symbolsearch: query files %s: %w", l, err)
		}
		refined, err := refineNames(files, mode, stripped, q.CaseInsensitive)
		if err != nil {
			return nil, err
		}
		all = append(all, refined...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.name
	}
	return out, nil
}

type rankedFile struct {
	name  string
	score float64
}

// refineSymbols applies the in-memory exact-match/refine+rank pass to a set
// of coarse pushdown candidates.
func refineSymbols(candidates []store.SymbolCandidate, mode Mode, text string, caseInsensitive bool) ([]Hit, error) {
	rx, err := compileForMode(mode, text)
	if err != nil {
		if mode == ModeRegex {
			return nil, nil // spec §4.8: on compile error return empty
		}
		return nil, err
	}

	var out []Hit
	for _, c := range candidates {
		score, ok := rank(c.Symbol, mode, text, caseInsensitive, rx)
		if !ok {
			continue
		}
		out = append(out, Hit{
			RefID: c.RefID, File: c.File, Symbol: c.Symbol, Kind: c.Kind,
			Signature: c.Signature, StartLine: c.StartLine, EndLine: c.EndLine, Score: score,
		})
	}
	return out, nil
}

func refineNames(names []string, mode Mode, text string, caseInsensitive bool) ([]rankedFile, error) {
	rx, err := compileForMode(mode, text)
	if err != nil {
		if mode == ModeRegex {
			return nil, nil
		}
		return nil, err
	}
	var out []rankedFile
	for _, n := range names {
		score, ok := rank(n, mode, text, caseInsensitive, rx)
		if !ok {
			continue
		}
		out = append(out, rankedFile{name: n, score: score})
	}
	return out, nil
}

// compileForMode precompiles the regex used by ModeWildcard/ModeRegex; the
// other modes don't need one.
func compileForMode(mode Mode, text string) (*regexp.Regexp, error) {
	switch mode {
	case ModeWildcard:
		return regexp.Compile("^" + globToRegex(text) + "$")
	case ModeRegex:
		return regexp.Compile(text)
	default:
		return nil, nil
	}
}

func globToRegex(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// fuzzyNormalizeRe strips everything but [a-z0-9_$.] before subsequence
// matching, per spec §4.8.
var fuzzyNormalizeRe = regexp.MustCompile(`[^a-z0-9_$.]+`)

func fuzzyNormalize(s string) string {
	return fuzzyNormalizeRe.ReplaceAllString(strings.ToLower(s), "")
}

// rank applies the refine+score rule for one candidate name under mode,
// returning (score, matched).
func rank(name string, mode Mode, text string, caseInsensitive bool, rx *regexp.Regexp) (float64, bool) {
	switch mode {
	case ModePrefix:
		n, q := name, text
		if caseInsensitive {
			n, q = strings.ToLower(n), strings.ToLower(q)
		}
		if strings.HasPrefix(n, q) {
			return 1, true
		}
		return 0, false
	case ModeSubstring:
		n, q := name, text
		if caseInsensitive {
			n, q = strings.ToLower(n), strings.ToLower(q)
		}
		if strings.Contains(n, q) {
			return 1, true
		}
		return 0, false
	case ModeWildcard, ModeRegex:
		if rx == nil {
			return 0, false
		}
		n := name
		if caseInsensitive {
			n = strings.ToLower(n)
		}
		if rx.MatchString(n) {
			return 1, true
		}
		return 0, false
	case ModeFuzzy:
		return fuzzyScore(fuzzyNormalize(name), fuzzyNormalize(text))
	default:
		return 0, false
	}
}

// fuzzyScore implements the subsequence-match scorer: score = Σ (2 if the
// matched character continues a consecutive run, else 1); rejects unless
// every character of needle appears in order within haystack.
func fuzzyScore(haystack, needle string) (float64, bool) {
	if needle == "" {
		return 0, false
	}
	score := 0.0
	hi := 0
	lastMatched := -2
	for ni := 0; ni < len(needle); ni++ {
		found := false
		for ; hi < len(haystack); hi++ {
			if haystack[hi] == needle[ni] {
				if hi == lastMatched+1 {
					score += 2
				} else {
					score++
				}
				lastMatched = hi
				hi++
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return score, true
}
