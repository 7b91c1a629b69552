// Package graphquery implements the six fixed-shape queries over the
// AST graph store's relations: find, children, find_references, callers,
// callees, and call_chain.
package graphquery

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

// LangAuto and LangAll are the special lang selector values accepted
// alongside a concrete model.Lang, per spec §4.10.
const (
	LangAuto = "auto"
	LangAll  = "all"
)

// ResolveLang implements the lang selector: "auto" picks the first
// available language in model.PreferenceOrder, "all" fans out across every
// available language, and anything else restricts to that language.
//
// Returns the concrete lang to filter on (meaningless when allLangs is
// true) and whether to fan out across every available language.
func ResolveLang(selector string, available []model.Lang) (lang model.Lang, allLangs bool) {
	switch selector {
	case LangAll:
		return "", true
	case LangAuto, "":
		present := map[model.Lang]bool{}
		for _, l := range available {
			present[l] = true
		}
		for _, l := range model.PreferenceOrder {
			if present[l] {
				return l, false
			}
		}
		return "", false
	default:
		return model.Lang(selector), false
	}
}

// Find implements find(prefix, lang?): ast_symbol rows whose lowercased
// name has the lowercased prefix.
func Find(ctx context.Context, gs store.GraphStore, prefix string, lang model.Lang, allLangs bool) ([]store.SymbolTuple, error) {
	return gs.FindByPrefix(ctx, prefix, lang, allLangs)
}

// Children implements children(parent_id): ast_symbol rows joined through
// ast_contains.
func Children(ctx context.Context, gs store.GraphStore, parentID string) ([]store.SymbolTuple, error) {
	return gs.Children(ctx, parentID)
}

// FindReferences implements find_references(name, lang?): ast_ref_name
// rows whose name case-insensitively matches.
func FindReferences(ctx context.Context, gs store.GraphStore, name string, lang model.Lang, allLangs bool) ([]store.RefNameTuple, error) {
	return gs.FindReferences(ctx, name, lang, allLangs)
}

// CallerHit is one callers() result: the call-site tuple plus the resolved
// caller symbol, when it could be found.
type CallerHit struct {
	Call   store.CallNameTuple
	Caller *store.SymbolTuple
}

// Callers implements callers(name, lang?): ast_call_name rows whose
// callee_name case-insensitively equals name, joined to the caller symbol.
func Callers(ctx context.Context, gs store.GraphStore, name string, lang model.Lang, allLangs bool) ([]CallerHit, error) {
	calls, err := gs.Callers(ctx, name, lang, allLangs)
	if err != nil {
		return nil, fmt.Errorf("graphquery: callers: %w", err)
	}
	if len(calls) == 0 {
		return nil, nil
	}

	symbolsByID, err := symbolIndex(ctx, gs)
	if err != nil {
		return nil, err
	}

	out := make([]CallerHit, len(calls))
	for i, c := range calls {
		hit := CallerHit{Call: c}
		if sym, ok := symbolsByID[c.CallerID]; ok {
			s := sym
			hit.Caller = &s
		}
		out[i] = hit
	}
	return out, nil
}

// CalleeHit is one callees() result: the call-site tuple plus the resolved
// callee symbol(s) matching its callee_name, when any could be found.
type CalleeHit struct {
	Call    store.CallNameTuple
	Callees []store.SymbolTuple
}

// Callees implements callees(name, lang?): ast_symbol rows matching the
// caller name, joined to ast_call_name, joined to callee symbols by name.
func Callees(ctx context.Context, gs store.GraphStore, name string, lang model.Lang, allLangs bool) ([]CalleeHit, error) {
	callerSymbols, err := gs.SymbolsByName(ctx, name, lang, allLangs)
	if err != nil {
		return nil, fmt.Errorf("graphquery: callees: resolve caller: %w", err)
	}
	if len(callerSymbols) == 0 {
		return nil, nil
	}
	callerIDs := map[string]bool{}
	for _, s := range callerSymbols {
		callerIDs[s.RefID] = true
	}

	allCalls, err := gs.AllCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("graphquery: callees: read calls: %w", err)
	}

	var out []CalleeHit
	for _, c := range allCalls {
		if !callerIDs[c.CallerID] {
			continue
		}
		calleeSyms, err := gs.SymbolsByName(ctx, c.CalleeName, lang, allLangs)
		if err != nil {
			return nil, fmt.Errorf("graphquery: callees: resolve callee %q: %w", c.CalleeName, err)
		}
		out = append(out, CalleeHit{Call: c, Callees: calleeSyms})
	}
	return out, nil
}

// ChainDirection is call_chain's walk direction.
type ChainDirection string

const (
	Downstream ChainDirection = "downstream" // caller -> callee-by-name
	Upstream   ChainDirection = "upstream"   // callee -> caller-by-name
)

// ChainEdge is one call_chain result tuple, per spec §4.10.
type ChainEdge struct {
	CallerID   string
	CalleeID   string
	Depth      int
	CallerName string
	CalleeName string
	Lang       model.Lang
}

// CallChain implements call_chain(name, direction, max_depth, lang): a
// bounded fixed-point walk over ast_call_name seeded by symbols named name,
// extending along caller->callee-by-name (downstream) or callee->caller-by-
// name (upstream) edges until depth exceeds maxDepth. Results are filtered
// to edges whose caller/callee names both have length > minNameLen.
func CallChain(ctx context.Context, gs store.GraphStore, name string, direction ChainDirection, maxDepth int, lang model.Lang, allLangs bool, minNameLen int) ([]ChainEdge, error) {
	seeds, err := gs.SymbolsByName(ctx, name, lang, allLangs)
	if err != nil {
		return nil, fmt.Errorf("graphquery: call_chain: seed: %w", err)
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	allCalls, err := gs.AllCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("graphquery: call_chain: read calls: %w", err)
	}
	symbolsByID, err := symbolIndex(ctx, gs)
	if err != nil {
		return nil, err
	}
	symbolsByName := map[string][]store.SymbolTuple{}
	for _, s := range symbolsByID {
		key := strings.ToLower(s.Name)
		symbolsByName[key] = append(symbolsByName[key], s)
	}

	// callsByCallerID indexes downstream edges; callsByCalleeName indexes
	// upstream edges (ast_call_name only stores the callee's *name*, not its
	// resolved id, so upstream walks match by name).
	callsByCallerID := map[string][]store.CallNameTuple{}
	callsByCalleeName := map[string][]store.CallNameTuple{}
	for _, c := range allCalls {
		callsByCallerID[c.CallerID] = append(callsByCallerID[c.CallerID], c)
		key := strings.ToLower(c.CalleeName)
		callsByCalleeName[key] = append(callsByCalleeName[key], c)
	}

	visited := map[string]bool{}
	var frontier []store.SymbolTuple
	for _, s := range seeds {
		visited[s.RefID] = true
		frontier = append(frontier, s)
	}

	var edges []ChainEdge
	depth := 1
	for depth <= maxDepth && len(frontier) > 0 {
		var next []store.SymbolTuple
		for _, sym := range frontier {
			switch direction {
			case Upstream:
				for _, c := range callsByCalleeName[strings.ToLower(sym.Name)] {
					caller, ok := symbolsByID[c.CallerID]
					if !ok {
						continue
					}
					edges = append(edges, ChainEdge{
						CallerID: c.CallerID, CalleeID: sym.RefID, Depth: depth,
						CallerName: caller.Name, CalleeName: sym.Name, Lang: c.CallerLang,
					})
					if !visited[caller.RefID] {
						visited[caller.RefID] = true
						next = append(next, caller)
					}
				}
			default: // Downstream
				for _, c := range callsByCallerID[sym.RefID] {
					for _, callee := range symbolsByName[strings.ToLower(c.CalleeName)] {
						edges = append(edges, ChainEdge{
							CallerID: sym.RefID, CalleeID: callee.RefID, Depth: depth,
							CallerName: sym.Name, CalleeName: callee.Name, Lang: c.CallerLang,
						})
						if !visited[callee.RefID] {
							visited[callee.RefID] = true
							next = append(next, callee)
						}
					}
				}
			}
		}
		frontier = next
		depth++
	}

	if minNameLen <= 0 {
		return edges, nil
	}
	var filtered []ChainEdge
	for _, e := range edges {
		if len(e.CallerName) > minNameLen && len(e.CalleeName) > minNameLen {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func symbolIndex(ctx context.Context, gs store.GraphStore) (map[string]store.SymbolTuple, error) {
	all, err := gs.AllSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("graphquery: read symbols: %w", err)
	}
	out := make(map[string]store.SymbolTuple, len(all))
	for _, s := range all {
		out[s.RefID] = s
	}
	return out, nil
}
