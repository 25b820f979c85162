package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// Retriever picks the facts most relevant to a free-text query.
type Retriever interface {
	// Index makes a newly stored fact retrievable. Best-effort.
	Index(ctx context.Context, fact types.Fact) error
	// Retrieve returns up to k of facts ordered by relevance to query.
	Retrieve(ctx context.Context, query string, facts []types.Fact, k int) ([]types.Fact, error)
}

// Embedder turns text into a vector. llm.EmbeddingGenerator satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// KeywordRetriever ranks facts by word overlap with the query, with recency
// as the secondary signal. With no query, or no overlap at all, it returns
// the most recent facts.
type KeywordRetriever struct{}

// Index is a no-op; keyword matching scans the facts directly.
func (KeywordRetriever) Index(context.Context, types.Fact) error { return nil }

// Retrieve scores facts with weights TextMatch=0.7, Recency=0.3.
func (KeywordRetriever) Retrieve(_ context.Context, query string, facts []types.Fact, k int) ([]types.Fact, error) {
	if k <= 0 || len(facts) == 0 {
		return nil, nil
	}
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return append([]types.Fact(nil), trimFront(facts, k)...), nil
	}

	type scored struct {
		fact  types.Fact
		score float64
	}
	var candidates []scored
	n := len(facts)
	for i, f := range facts {
		match := textMatch(strings.ToLower(f.Content), queryLower)
		if match == 0 {
			continue
		}
		recency := 1.0
		if n > 1 {
			recency = float64(i) / float64(n-1)
		}
		candidates = append(candidates, scored{fact: f, score: match*0.7 + recency*0.3})
	}
	if len(candidates) == 0 {
		return append([]types.Fact(nil), trimFront(facts, k)...), nil
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]types.Fact, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.fact)
	}
	return out, nil
}

// textMatch is 1 for a phrase match, else the fraction of query words
// (three letters or more) found in content.
func textMatch(contentLower, queryLower string) float64 {
	if strings.Contains(contentLower, queryLower) {
		return 1
	}
	var words, matched int
	for _, w := range strings.Fields(queryLower) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if len([]rune(w)) < 3 {
			continue
		}
		words++
		if strings.Contains(contentLower, w) {
			matched++
		}
	}
	if words == 0 {
		return 0
	}
	return float64(matched) / float64(words)
}

// SemanticRetriever ranks facts by embedding similarity. Any failure of the
// embedder or the index falls back to keyword retrieval.
type SemanticRetriever struct {
	embedder Embedder
	index    storage.VectorIndex
	fallback Retriever
	logger   zerolog.Logger
}

// NewSemanticRetriever wires an embedder to a vector index.
func NewSemanticRetriever(embedder Embedder, index storage.VectorIndex, logger zerolog.Logger) *SemanticRetriever {
	return &SemanticRetriever{
		embedder: embedder,
		index:    index,
		fallback: KeywordRetriever{},
		logger:   logger.With().Str("component", "engine.retriever").Logger(),
	}
}

// Index embeds the fact and stores the vector under the fact ID.
func (r *SemanticRetriever) Index(ctx context.Context, fact types.Fact) error {
	vec, err := r.embedder.Embed(ctx, fact.Content)
	if err != nil {
		return err
	}
	return r.index.Upsert(ctx, fact.ID, vec, r.embedder.GetModel())
}

// Retrieve returns the nearest indexed facts among facts.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, facts []types.Fact, k int) ([]types.Fact, error) {
	if strings.TrimSpace(query) == "" || k <= 0 || len(facts) == 0 {
		return r.fallback.Retrieve(ctx, query, facts, k)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Debug().Err(err).Msg("query embedding failed, using keyword retrieval")
		return r.fallback.Retrieve(ctx, query, facts, k)
	}
	// Over-fetch: the index also holds facts outside this slice.
	matches, err := r.index.Nearest(ctx, vec, k*4)
	if err != nil {
		r.logger.Debug().Err(err).Msg("vector search failed, using keyword retrieval")
		return r.fallback.Retrieve(ctx, query, facts, k)
	}

	byID := make(map[string]types.Fact, len(facts))
	for _, f := range facts {
		byID[f.ID] = f
	}
	var out []types.Fact
	for _, m := range matches {
		if f, ok := byID[m.ID]; ok {
			out = append(out, f)
			if len(out) == k {
				break
			}
		}
	}
	if len(out) == 0 {
		return r.fallback.Retrieve(ctx, query, facts, k)
	}
	return out, nil
}
