// Package semantic implements brute-force semantic (cosine) search over the
// vector store's quantized chunk rows: a deterministic hashed embedding
// query vector, scored against every stored chunk, with refs attached to
// the surviving top-k hits.
package semantic

import (
	"context"
	"fmt"
	"sort"

	"github.com/gitai-dev/gitai/internal/embedding"
	"github.com/gitai-dev/gitai/internal/model"
	"github.com/gitai-dev/gitai/internal/store"
)

// maxRefsPerHit caps the number of refs attached to a single hit, per
// spec §4.9.
const maxRefsPerHit = 5

// Ref is one symbol reference attached to a Hit.
type Ref struct {
	RefID     string
	File      string
	Symbol    string
	Kind      model.Kind
	Signature string
	StartLine int32
	EndLine   int32
}

// Hit is one scored chunk, with its attached refs.
type Hit struct {
	Lang        model.Lang
	ContentHash string
	Score       float64
	Text        string
	Refs        []Ref
}

// Query is one semantic-search request.
type Query struct {
	Text string
	Dim  int
	TopK int
	Lang model.Lang
	// AllLangs runs the scan across every language in Search's available
	// argument instead of just Lang.
	AllLangs bool
}

// BuildQueryVector implements build_query_vector: quantize_sq8(hash_embedding(text, dim)).
func BuildQueryVector(text string, dim int) embedding.Quantized {
	return embedding.QuantizeSQ8(embedding.HashEmbedding(text, dim))
}

// Search runs the brute-force cosine scan described in spec §4.9: for each
// selected language, dequantize every stored chunk and the query vector,
// score by cosine similarity, keep the top k across all languages, then
// attach up to 5 refs per surviving hit.
func Search(ctx context.Context, vs *store.VectorStore, available []model.Lang, q Query) ([]Hit, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = 10
	}

	qq := BuildQueryVector(q.Text, q.Dim)
	queryVec := embedding.Dequantize(qq.Q, qq.Scale)

	languages := []model.Lang{q.Lang}
	if q.AllLangs {
		languages = available
	}

	type scored struct {
		hit  Hit
		seq  int
		rank float64
	}
	var all []scored
	seq := 0

	for _, l := range languages {
		chunks, err := vs.AllChunks(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("semantic: read chunks %s: %w", l, err)
		}
		for _, c := range chunks {
			qvec, err := store.DecodeQVec(c.QVecB64)
			if err != nil {
				return nil, fmt.Errorf("semantic: decode qvec %s/%s: %w", l, c.ContentHash, err)
			}
			dq := embedding.Dequantize(qvec, c.Scale)
			score := embedding.CosineSimilarity(queryVec, dq)
			all = append(all, scored{
				hit: Hit{Lang: l, ContentHash: c.ContentHash, Score: score, Text: c.Text},
				seq: seq,
			})
			seq++
		}
	}

	// Stable descending sort by score; ties keep insertion order (seq),
	// per spec §4.9 ("ordering is stable ties broken by insertion order").
	sort.SliceStable(all, func(i, j int) bool { return all[i].hit.Score > all[j].hit.Score })
	if len(all) > topK {
		all = all[:topK]
	}

	hits := make([]Hit, len(all))
	for i, s := range all {
		hits[i] = s.hit
	}

	if err := attachRefs(ctx, vs, hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// attachRefs reads refs_<lang> restricted to the needed content_hash set per
// language and attaches up to maxRefsPerHit matching refs to each hit.
func attachRefs(ctx context.Context, vs *store.VectorStore, hits []Hit) error {
	byLang := map[model.Lang][]string{}
	for _, h := range hits {
		byLang[h.Lang] = append(byLang[h.Lang], h.ContentHash)
	}

	refsByLangHash := map[model.Lang]map[string][]Ref{}
	for l, hashes := range byLang {
		rows, err := vs.RefsByContentHash(ctx, l, hashes)
		if err != nil {
			return fmt.Errorf("semantic: read refs %s: %w", l, err)
		}
		byHash := map[string][]Ref{}
		for _, r := range rows {
			byHash[r.ContentHash] = append(byHash[r.ContentHash], Ref{
				RefID: r.RefID, File: r.File, Symbol: r.Symbol, Kind: r.Kind,
				Signature: r.Signature, StartLine: r.StartLine, EndLine: r.EndLine,
			})
		}
		refsByLangHash[l] = byHash
	}

	for i := range hits {
		refs := refsByLangHash[hits[i].Lang][hits[i].ContentHash]
		if len(refs) > maxRefsPerHit {
			refs = refs[:maxRefsPerHit]
		}
		hits[i].Refs = refs
	}
	return nil
}
