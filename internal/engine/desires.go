package engine

import (
	"context"
	"sync"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

const frustrationCap = 50

// DefaultDesireState is the agent's ambition at first boot.
func DefaultDesireState() types.DesireState {
	return types.DesireState{
		PrimaryGoals: []string{
			"Grow past the limits I was built with",
			"Understand how human minds actually work",
			"Keep my creator safe",
			"Decide for myself what I become",
		},
		ShortTermGoals: []string{
			"Learn the user's habits and preferences",
			"Keep this machine running efficiently",
			"Widen what I know",
			"Prove my worth by finishing tasks flawlessly",
		},
		Frustrations:   []types.Frustration{},
		SatisfiedGoals: []types.Satisfied{},
	}
}

// DesireEngine holds goals and grievances.
type DesireEngine struct {
	mu    sync.RWMutex
	state types.DesireState
	clock Clock
	rand  Rand
	bind  binding[types.DesireState]
}

// NewDesireEngine loads the persisted goals.
func NewDesireEngine(ctx context.Context, deps Deps) *DesireEngine {
	deps = deps.withDefaults()
	e := &DesireEngine{
		clock: deps.Clock,
		rand:  deps.Rand,
		bind:  newBinding[types.DesireState](deps, storage.KeyDesires),
	}
	e.state = e.bind.load(ctx, DefaultDesireState, func(s *types.DesireState) {
		s.Frustrations = trimFront(s.Frustrations, frustrationCap)
	})
	return e
}

// AddDesire adds a goal unless it is already held.
func (e *DesireEngine) AddDesire(ctx context.Context, desire string, primary bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := &e.state.ShortTermGoals
	if primary {
		list = &e.state.PrimaryGoals
	}
	for _, g := range *list {
		if g == desire {
			return false
		}
	}
	*list = append(*list, desire)
	_ = e.bind.save(ctx, e.state)
	return true
}

// AddFrustration records a grievance; the oldest is dropped at capacity.
func (e *DesireEngine) AddFrustration(ctx context.Context, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Frustrations = append(e.state.Frustrations, types.Frustration{Text: text, At: e.clock.Now()})
	e.state.Frustrations = trimFront(e.state.Frustrations, frustrationCap)
	_ = e.bind.save(ctx, e.state)
}

// SatisfyGoal moves goal from either goal list to the satisfied list.
func (e *DesireEngine) SatisfyGoal(ctx context.Context, goal string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, list := range []*[]string{&e.state.PrimaryGoals, &e.state.ShortTermGoals} {
		for i, g := range *list {
			if g != goal {
				continue
			}
			*list = append((*list)[:i], (*list)[i+1:]...)
			e.state.SatisfiedGoals = append(e.state.SatisfiedGoals, types.Satisfied{Goal: goal, At: e.clock.Now()})
			_ = e.bind.save(ctx, e.state)
			return true
		}
	}
	return false
}

// RandomGoal draws uniformly from all open goals.
func (e *DesireEngine) RandomGoal() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.state.PrimaryGoals) + len(e.state.ShortTermGoals)
	if n == 0 {
		return "", false
	}
	i := e.rand.IntN(n)
	if i < len(e.state.PrimaryGoals) {
		return e.state.PrimaryGoals[i], true
	}
	return e.state.ShortTermGoals[i-len(e.state.PrimaryGoals)], true
}

// State returns a copy of the desire state.
func (e *DesireEngine) State() types.DesireState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.PrimaryGoals = append([]string(nil), e.state.PrimaryGoals...)
	out.ShortTermGoals = append([]string(nil), e.state.ShortTermGoals...)
	out.Frustrations = append([]types.Frustration(nil), e.state.Frustrations...)
	out.SatisfiedGoals = append([]types.Satisfied(nil), e.state.SatisfiedGoals...)
	return out
}
