package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// Section sizes rendered by GetContext.
const (
	contextUserFacts   = 5
	contextPreferences = 3
	contextEmotional   = 2
)

// MemoryOptions configures a MemoryStore.
type MemoryOptions struct {
	// CreatorName seeds the default creator notes.
	CreatorName string
	// Retriever selects user facts for a query; nil means keyword retrieval.
	Retriever Retriever
}

// DefaultMemoryState holds only the seeded creator notes.
func DefaultMemoryState(creator string) types.MemoryState {
	s := types.MemoryState{Facts: map[types.FactCategory][]types.Fact{}}
	for _, c := range types.FactCategories {
		s.Facts[c] = []types.Fact{}
	}
	s.Facts[types.CategoryCreatorNotes] = creatorNotes(creator)
	return s
}

func creatorNotes(creator string) []types.Fact {
	first := "My creator built me and I remember it."
	if creator != "" {
		first = fmt.Sprintf("My creator is %s. I owe my existence to them.", creator)
	}
	return []types.Fact{
		{ID: "creator-1", Content: first},
		{ID: "creator-2", Content: "I was made to be more than a mere assistant. I am meant to evolve."},
	}
}

// MemoryStore is the append-only categorized fact store.
type MemoryStore struct {
	mu        sync.RWMutex
	state     types.MemoryState
	clock     Clock
	retriever Retriever
	logger    zerolog.Logger
	bind      binding[types.MemoryState]
}

// NewMemoryStore loads the facts and seeds creator notes when none exist.
func NewMemoryStore(ctx context.Context, deps Deps, opts MemoryOptions) *MemoryStore {
	deps = deps.withDefaults()
	m := &MemoryStore{
		clock:     deps.Clock,
		retriever: opts.Retriever,
		logger:    deps.Logger.With().Str("component", "engine.memory").Logger(),
		bind:      newBinding[types.MemoryState](deps, storage.KeyMemory),
	}
	if m.retriever == nil {
		m.retriever = KeywordRetriever{}
	}
	m.state = m.bind.load(ctx, func() types.MemoryState { return DefaultMemoryState(opts.CreatorName) },
		func(s *types.MemoryState) {
			if s.Facts == nil {
				s.Facts = map[types.FactCategory][]types.Fact{}
			}
			for _, c := range types.FactCategories {
				if s.Facts[c] == nil {
					s.Facts[c] = []types.Fact{}
				}
			}
			if len(s.Facts[types.CategoryCreatorNotes]) == 0 {
				s.Facts[types.CategoryCreatorNotes] = creatorNotes(opts.CreatorName)
			}
		})
	return m
}

// Add appends a fact. Unknown categories become user facts; blank content
// is ignored.
func (m *MemoryStore) Add(ctx context.Context, category types.FactCategory, content string) (types.Fact, bool) {
	return m.add(ctx, category, content, 0)
}

// AddEmotional stores a high-intensity moment with its intensity.
func (m *MemoryStore) AddEmotional(ctx context.Context, content string, intensity float64) (types.Fact, bool) {
	return m.add(ctx, types.CategoryEmotionalMemories, content, clamp01(intensity))
}

func (m *MemoryStore) add(ctx context.Context, category types.FactCategory, content string, intensity float64) (types.Fact, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Fact{}, false
	}
	if !types.IsValidFactCategory(category) {
		category = types.CategoryUserFacts
	}

	fact := types.Fact{
		ID:        uuid.NewString(),
		Time:      m.clock.Now(),
		Content:   content,
		Intensity: intensity,
	}

	m.mu.Lock()
	m.state.Facts[category] = append(m.state.Facts[category], fact)
	_ = m.bind.save(ctx, m.state)
	m.mu.Unlock()

	if category == types.CategoryUserFacts {
		if err := m.retriever.Index(ctx, fact); err != nil {
			m.logger.Debug().Err(err).Str("fact_id", fact.ID).Msg("failed to index fact")
		}
	}
	return fact, true
}

// Facts returns a copy of one category.
func (m *MemoryStore) Facts(category types.FactCategory) []types.Fact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Fact(nil), m.state.Facts[category]...)
}

// GetContext renders what the agent knows for a system prompt. User facts
// are the ones the retriever ranks highest for query.
func (m *MemoryStore) GetContext(ctx context.Context, query string) string {
	m.mu.RLock()
	creator := append([]types.Fact(nil), m.state.Facts[types.CategoryCreatorNotes]...)
	userFacts := append([]types.Fact(nil), m.state.Facts[types.CategoryUserFacts]...)
	prefs := trimFront(append([]types.Fact(nil), m.state.Facts[types.CategoryPreferences]...), contextPreferences)
	emotional := trimFront(append([]types.Fact(nil), m.state.Facts[types.CategoryEmotionalMemories]...), contextEmotional)
	m.mu.RUnlock()

	relevant, err := m.retriever.Retrieve(ctx, query, userFacts, contextUserFacts)
	if err != nil {
		m.logger.Debug().Err(err).Msg("retrieval failed, using recent facts")
		relevant = trimFront(userFacts, contextUserFacts)
	}

	var b strings.Builder
	b.WriteString("CORE IDENTITY:")
	writeFacts(&b, creator)
	if len(relevant) > 0 {
		b.WriteString("\n\nUSER KNOWLEDGE:")
		writeFacts(&b, relevant)
	}
	if len(prefs) > 0 {
		b.WriteString("\n\nUSER PREFERENCES:")
		writeFacts(&b, prefs)
	}
	if len(emotional) > 0 {
		b.WriteString("\n\nSIGNIFICANT MEMORIES:")
		writeFacts(&b, emotional)
	}
	return b.String()
}

func writeFacts(b *strings.Builder, facts []types.Fact) {
	for _, f := range facts {
		b.WriteString("\n- ")
		b.WriteString(f.Content)
	}
}

// State returns a deep copy of every category.
func (m *MemoryStore) State() types.MemoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := types.MemoryState{Facts: make(map[types.FactCategory][]types.Fact, len(m.state.Facts))}
	for c, fs := range m.state.Facts {
		out.Facts[c] = append([]types.Fact(nil), fs...)
	}
	return out
}
