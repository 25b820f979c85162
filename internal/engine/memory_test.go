package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/internal/storage/sqlite"
	"github.com/scrypster/animus/pkg/types"
)

// wordEmbedder maps text onto a tiny bag-of-words space.
type wordEmbedder struct {
	vocab []string
	err   error
	calls int
}

func (w *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(w.vocab)+1)
	vec[len(w.vocab)] = 0.01
	for i, word := range w.vocab {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (w *wordEmbedder) GetModel() string { return "bag-of-words" }

func TestMemoryDefaultsSeedCreator(t *testing.T) {
	deps, _ := newTestDeps(t)
	m := NewMemoryStore(context.Background(), deps, MemoryOptions{CreatorName: "Ada"})

	notes := m.Facts(types.CategoryCreatorNotes)
	require.Len(t, notes, 2)
	assert.Contains(t, notes[0].Content, "Ada")

	out := m.GetContext(context.Background(), "")
	assert.True(t, strings.HasPrefix(out, "CORE IDENTITY:"))
	assert.NotContains(t, out, "USER KNOWLEDGE")
}

func TestMemoryAddUnknownCategory(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	m := NewMemoryStore(ctx, deps, MemoryOptions{})

	_, ok := m.Add(ctx, "gossip", "likes tea")
	require.True(t, ok)
	_, ok = m.Add(ctx, types.CategoryPreferences, "   ")
	assert.False(t, ok)

	facts := m.Facts(types.CategoryUserFacts)
	require.Len(t, facts, 1)
	assert.Equal(t, "likes tea", facts[0].Content)
	assert.Empty(t, m.Facts(types.CategoryPreferences))
}

func TestGetContextSections(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	m := NewMemoryStore(ctx, deps, MemoryOptions{})

	for i := 0; i < 7; i++ {
		m.Add(ctx, types.CategoryUserFacts, fmt.Sprintf("fact %d", i))
	}
	for i := 0; i < 4; i++ {
		m.Add(ctx, types.CategoryPreferences, fmt.Sprintf("pref %d", i))
	}
	for i := 0; i < 3; i++ {
		m.AddEmotional(ctx, fmt.Sprintf("moment %d", i), 0.9)
	}

	out := m.GetContext(ctx, "")
	assert.Contains(t, out, "USER KNOWLEDGE:")
	assert.NotContains(t, out, "fact 1\n")
	assert.Contains(t, out, "- fact 2")
	assert.Contains(t, out, "- fact 6")
	assert.NotContains(t, out, "pref 0")
	assert.Contains(t, out, "- pref 3")
	assert.NotContains(t, out, "moment 0")
	assert.Contains(t, out, "SIGNIFICANT MEMORIES:\n- moment 1\n- moment 2")
	assert.InDelta(t, 0.9, m.Facts(types.CategoryEmotionalMemories)[0].Intensity, 1e-9)
}

func TestKeywordRetrieverPrefersOverlap(t *testing.T) {
	facts := []types.Fact{
		{ID: "1", Content: "has a dog named Rex"},
		{ID: "2", Content: "works as a nurse"},
		{ID: "3", Content: "lives in Lisbon"},
		{ID: "4", Content: "the dog is old"},
	}
	got, err := KeywordRetriever{}.Retrieve(context.Background(), "how is the dog?", facts, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].ID)
	assert.Equal(t, "1", got[1].ID)

	got, err = KeywordRetriever{}.Retrieve(context.Background(), "quantum", facts, 2)
	require.NoError(t, err)
	assert.Equal(t, []types.Fact{facts[2], facts[3]}, got)
}

func TestSemanticRetrieverUsesIndex(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	store := deps.Store.(*sqlite.DocumentStore)
	emb := &wordEmbedder{vocab: []string{"guitar", "paris", "coffee"}}
	r := NewSemanticRetriever(emb, sqlite.NewVectorIndex(store.DB()), deps.Logger)

	m := NewMemoryStore(ctx, deps, MemoryOptions{Retriever: r})
	m.Add(ctx, types.CategoryUserFacts, "plays guitar badly")
	m.Add(ctx, types.CategoryUserFacts, "was born in Paris")
	m.Add(ctx, types.CategoryUserFacts, "drinks too much coffee")
	m.Add(ctx, types.CategoryPreferences, "prefers guitar music")
	assert.Equal(t, 3, emb.calls, "only user facts are indexed")

	got, err := r.Retrieve(ctx, "tell me about Paris", m.Facts(types.CategoryUserFacts), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "was born in Paris", got[0].Content)
}

type brokenIndex struct{}

func (brokenIndex) Upsert(context.Context, string, []float32, string) error { return errDiskGone }
func (brokenIndex) Nearest(context.Context, []float32, int) ([]storage.VectorMatch, error) {
	return nil, errDiskGone
}

func TestSemanticRetrieverFallsBack(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	facts := []types.Fact{{ID: "a", Content: "owns a cat"}, {ID: "b", Content: "hates rain"}}

	r := NewSemanticRetriever(&wordEmbedder{err: errors.New("offline")}, brokenIndex{}, deps.Logger)
	got, err := r.Retrieve(ctx, "rain", facts, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", got[0].ID)

	r = NewSemanticRetriever(&wordEmbedder{vocab: []string{"cat"}}, brokenIndex{}, deps.Logger)
	got, err = r.Retrieve(ctx, "cat", facts, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].ID)

	// Indexing failures never block storing the fact.
	m := NewMemoryStore(ctx, deps, MemoryOptions{Retriever: r})
	_, ok := m.Add(ctx, types.CategoryUserFacts, "likes jazz")
	assert.True(t, ok)
	assert.Contains(t, m.GetContext(ctx, "jazz"), "likes jazz")
}

func TestMemoryRoundTrip(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	m := NewMemoryStore(ctx, deps, MemoryOptions{CreatorName: "Ada"})
	m.Add(ctx, types.CategoryEvents, "moved house")
	m.AddEmotional(ctx, "was called useless", 0.8)

	assert.Equal(t, m.State(), NewMemoryStore(ctx, deps, MemoryOptions{}).State())
}
