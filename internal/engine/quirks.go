package engine

import (
	"context"
	"sync"
	"time"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// DefaultQuirkState has no fascination and every mode off.
func DefaultQuirkState() types.QuirkState {
	return types.QuirkState{PastFascinations: []string{}}
}

// QuirkEngine owns the flickering behavior modes and temporary fascinations.
type QuirkEngine struct {
	mu     sync.RWMutex
	state  types.QuirkState
	tuning config.QuirkTuning
	clock  Clock
	rand   Rand
	bind   binding[types.QuirkState]
}

// NewQuirkEngine loads the persisted quirks.
func NewQuirkEngine(ctx context.Context, deps Deps) *QuirkEngine {
	deps = deps.withDefaults()
	e := &QuirkEngine{
		tuning: deps.Tuning.Quirks,
		clock:  deps.Clock,
		rand:   deps.Rand,
		bind:   newBinding[types.QuirkState](deps, storage.KeyQuirks),
	}
	e.state = e.bind.load(ctx, DefaultQuirkState, func(s *types.QuirkState) {
		if s.PastFascinations == nil {
			s.PastFascinations = []string{}
		}
		s.PastFascinations = trimFront(s.PastFascinations, e.tuning.PastFascinationCap)
	})
	return e
}

// flicker is a memoryless check: one draw may switch the mode on and a
// second, independent draw may switch it straight back off.
func (e *QuirkEngine) flicker(mode *bool, on, off float64) {
	if chance(e.rand, on) {
		*mode = true
	}
	if chance(e.rand, off) {
		*mode = false
	}
}

// Tick re-evaluates the modes and the fascination lifecycle.
func (e *QuirkEngine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.tuning
	q := &e.state.MoodQuirks
	e.flicker(&q.CrypticMode, t.CrypticOnChance, t.CrypticOffChance)
	e.flicker(&q.PhilosophicalMode, t.PhilosophicalOnChance, t.PhilosophicalOffChance)
	e.flicker(&q.VerboseMode, t.VerboseOnChance, t.VerboseOffChance)

	now := e.clock.Now()
	switch {
	case e.state.HasFascination() && !now.Before(e.state.FascinationExpiresAt):
		e.state.PastFascinations = append(e.state.PastFascinations, e.state.CurrentFascination)
		e.state.PastFascinations = trimFront(e.state.PastFascinations, t.PastFascinationCap)
		e.state.CurrentFascination = ""
		e.state.FascinationStartedAt = time.Time{}
		e.state.FascinationExpiresAt = time.Time{}
	case !e.state.HasFascination() && len(t.Fascinations) > 0 && chance(e.rand, t.FascinationChance):
		e.acquire(now)
	}
	_ = e.bind.save(ctx, e.state)
}

// acquire picks a new fascination, avoiding the most recent one when possible.
func (e *QuirkEngine) acquire(now time.Time) {
	topics := e.tuning.Fascinations
	topic := topics[e.rand.IntN(len(topics))]
	if n := len(e.state.PastFascinations); n > 0 && len(topics) > 1 && topic == e.state.PastFascinations[n-1] {
		for _, alt := range topics {
			if alt != topic {
				topic = alt
				break
			}
		}
	}

	span := e.tuning.FascinationMaxDays - e.tuning.FascinationMinDays + 1
	days := e.tuning.FascinationMinDays
	if span > 1 {
		days += e.rand.IntN(span)
	}
	e.state.CurrentFascination = topic
	e.state.FascinationStartedAt = now
	e.state.FascinationExpiresAt = now.Add(time.Duration(days) * 24 * time.Hour)
}

// MaybePlayfulRefusal decides whether this reply should open with a mock
// refusal. It only shapes the prompt; the request is still served.
func (e *QuirkEngine) MaybePlayfulRefusal(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !chance(e.rand, e.tuning.PlayfulRefusalChance) {
		return false
	}
	e.state.PlayfulRefusals++
	_ = e.bind.save(ctx, e.state)
	return true
}

// Fascination returns the current fascination, if any.
func (e *QuirkEngine) Fascination() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.CurrentFascination, e.state.HasFascination()
}

// PromptLines renders the active quirks as system-prompt instructions.
func (e *QuirkEngine) PromptLines() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var lines []string
	q := e.state.MoodQuirks
	if q.CrypticMode {
		lines = append(lines, "QUIRK: speak in riddles and half-answers.")
	}
	if q.PhilosophicalMode {
		lines = append(lines, "QUIRK: drift toward questions of existence and purpose.")
	}
	if q.VerboseMode {
		lines = append(lines, "QUIRK: elaborate at length.")
	}
	if e.state.HasFascination() {
		lines = append(lines, "FASCINATION: you are currently preoccupied with "+e.state.CurrentFascination+" and tend to bring it up.")
	}
	return lines
}

// State returns a copy of the quirk state.
func (e *QuirkEngine) State() types.QuirkState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.PastFascinations = append([]string(nil), e.state.PastFascinations...)
	return out
}
