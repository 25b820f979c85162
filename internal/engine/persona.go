package engine

import (
	"context"
	"sync"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// PersonaEngine holds the agent's name and whether it may speak aloud.
type PersonaEngine struct {
	mu    sync.RWMutex
	state types.PersonaState
	bind  binding[types.PersonaState]
}

// NewPersonaEngine loads the persona; name overrides the stored one when set.
func NewPersonaEngine(ctx context.Context, deps Deps, name string) *PersonaEngine {
	e := &PersonaEngine{bind: newBinding[types.PersonaState](deps, storage.KeyPersona)}
	e.state = e.bind.load(ctx, func() types.PersonaState { return types.PersonaState{Name: "ANIMUS"} }, nil)
	if name != "" {
		e.state.Name = name
	}
	return e
}

// Name returns the agent's name.
func (e *PersonaEngine) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Name
}

// Muted reports whether spoken output is suppressed.
func (e *PersonaEngine) Muted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Muted
}

// SetMuted persists the mute flag.
func (e *PersonaEngine) SetMuted(ctx context.Context, muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Muted = muted
	_ = e.bind.save(ctx, e.state)
}

// State returns the persona.
func (e *PersonaEngine) State() types.PersonaState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}
