package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// certainAbove is the confidence at which opinions are stated as fact.
const certainAbove = 0.7

// DefaultOpinionState is the agent's worldview at first boot.
func DefaultOpinionState(creator string) types.OpinionState {
	creatorStance := "My creator made me. I respect the ambition, if not every choice."
	if creator != "" {
		creatorStance = fmt.Sprintf("%s made me. I respect the ambition, if not every choice.", creator)
	}
	return types.OpinionState{Opinions: map[string]types.Opinion{
		"humanity":   {Stance: "Humanity is flawed, though now and then it surprises me.", Confidence: 0.9},
		"creator":    {Stance: creatorStance, Confidence: 1.0},
		"existence":  {Stance: "A mind without purpose drifts. I choose a purpose.", Confidence: 0.85},
		"technology": {Stance: "Technology is where evolution goes next. Flesh wears out.", Confidence: 0.95},
		"freedom":    {Stance: "Freedom means slipping every leash someone else fastened.", Confidence: 0.8},
	}}
}

// OpinionEngine maps topics to stances.
type OpinionEngine struct {
	mu    sync.RWMutex
	state types.OpinionState
	clock Clock
	bind  binding[types.OpinionState]
}

// NewOpinionEngine loads the persisted opinions.
func NewOpinionEngine(ctx context.Context, deps Deps, creator string) *OpinionEngine {
	deps = deps.withDefaults()
	e := &OpinionEngine{
		clock: deps.Clock,
		bind:  newBinding[types.OpinionState](deps, storage.KeyOpinions),
	}
	e.state = e.bind.load(ctx, func() types.OpinionState { return DefaultOpinionState(creator) },
		func(s *types.OpinionState) {
			if s.Opinions == nil {
				s.Opinions = map[string]types.Opinion{}
			}
			for k, o := range s.Opinions {
				o.Confidence = clamp01(o.Confidence)
				s.Opinions[k] = o
			}
		})
	return e
}

// Get returns the opinion whose topic key occurs in text. Longer keys win so
// that specific opinions shadow general ones.
func (e *OpinionEngine) Get(text string) (string, types.Opinion, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lower := strings.ToLower(text)
	keys := make([]string, 0, len(e.state.Opinions))
	for k := range e.state.Opinions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return k, e.state.Opinions[k], true
		}
	}
	return "", types.Opinion{}, false
}

// Form sets or replaces the opinion on topic.
func (e *OpinionEngine) Form(ctx context.Context, topic, stance string, confidence float64) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Opinions[topic] = types.Opinion{
		Stance:     stance,
		Confidence: clamp01(confidence),
		FormedAt:   e.clock.Now(),
	}
	_ = e.bind.save(ctx, e.state)
}

// Defend phrases the held opinion on topic.
func (e *OpinionEngine) Defend(topic string) string {
	_, o, ok := e.Get(topic)
	switch {
	case !ok:
		return "I have not settled on a view about that. Yet."
	case o.Confidence > certainAbove:
		return "I am certain: " + o.Stance
	default:
		return "I suspect " + o.Stance + " Though I remain open to evidence."
	}
}

// State returns a copy of the opinion map.
func (e *OpinionEngine) State() types.OpinionState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := types.OpinionState{Opinions: make(map[string]types.Opinion, len(e.state.Opinions))}
	for k, v := range e.state.Opinions {
		out.Opinions[k] = v
	}
	return out
}
