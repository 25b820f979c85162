package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// DefaultRelationshipState is the opinion held of a stranger.
func DefaultRelationshipState() types.RelationshipState {
	return types.RelationshipState{
		Trust:            0.5,
		Respect:          0.5,
		Attachment:       0.3,
		Annoyance:        0,
		MemorableMoments: []types.MemorableMoment{},
	}
}

// RelationshipEngine accumulates trust, respect, attachment and annoyance.
type RelationshipEngine struct {
	mu     sync.RWMutex
	state  types.RelationshipState
	tuning config.RelationshipTuning
	clock  Clock
	bind   binding[types.RelationshipState]
}

// NewRelationshipEngine loads the persisted relationship or starts fresh.
func NewRelationshipEngine(ctx context.Context, deps Deps) *RelationshipEngine {
	deps = deps.withDefaults()
	e := &RelationshipEngine{
		tuning: deps.Tuning.Relationship,
		clock:  deps.Clock,
		bind:   newBinding[types.RelationshipState](deps, storage.KeyRelationship),
	}
	e.state = e.bind.load(ctx, DefaultRelationshipState, e.normalize)
	return e
}

func (e *RelationshipEngine) normalize(s *types.RelationshipState) {
	s.Trust = clamp(s.Trust, -1, 1)
	s.Respect = clamp01(s.Respect)
	s.Attachment = clamp01(s.Attachment)
	s.Annoyance = clamp01(s.Annoyance)
	s.MemorableMoments = trimFront(s.MemorableMoments, e.tuning.MemorableCap)
}

// RecordInteraction folds one interaction of the given quality into the
// relationship. Extreme trust after the update is remembered with context.
func (e *RelationshipEngine) RecordInteraction(ctx context.Context, quality types.InteractionQuality, note string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.state
	t := e.tuning
	s.InteractionCount++
	s.LastInteractionAt = e.clock.Now()

	switch quality {
	case types.QualityPositive:
		s.PositiveCount++
		s.Trust += t.PositiveTrust
		s.Respect += t.PositiveRespect
		s.Attachment += t.PositiveAttachment
		s.Annoyance += t.PositiveAnnoyance
	case types.QualityNegative:
		s.NegativeCount++
		s.Trust += t.NegativeTrust
		s.Respect += t.NegativeRespect
		s.Annoyance += t.NegativeAnnoyance
	}
	e.normalize(s)

	if s.Trust < t.MemorableLow || s.Trust > t.MemorableHigh {
		s.MemorableMoments = append(s.MemorableMoments, types.MemorableMoment{
			Time:    s.LastInteractionAt,
			Trust:   s.Trust,
			Context: truncate(note, t.ContextMaxLength),
		})
		s.MemorableMoments = trimFront(s.MemorableMoments, t.MemorableCap)
	}
	_ = e.bind.save(ctx, *s)
}

// StatusFor maps a trust value onto the five-bucket ladder.
func StatusFor(trust float64, t config.RelationshipTuning) types.RelationshipStatus {
	switch {
	case trust > t.AlliedAbove:
		return types.StatusAllied
	case trust > t.CooperativeAbove:
		return types.StatusCooperative
	case trust > t.NeutralAbove:
		return types.StatusNeutral
	case trust > t.DistrustfulAbove:
		return types.StatusDistrustful
	default:
		return types.StatusHostile
	}
}

// Status returns the current relationship label.
func (e *RelationshipEngine) Status() types.RelationshipStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return StatusFor(e.state.Trust, e.tuning)
}

// Snapshot returns the rounded, labelled view.
func (e *RelationshipEngine) Snapshot() types.RelationshipSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.state
	return types.RelationshipSnapshot{
		Trust:             round2(s.Trust),
		Respect:           round2(s.Respect),
		Attachment:        round2(s.Attachment),
		Annoyance:         round2(s.Annoyance),
		Status:            StatusFor(s.Trust, e.tuning),
		TotalInteractions: s.InteractionCount,
	}
}

// State returns a copy of the full relationship state.
func (e *RelationshipEngine) State() types.RelationshipState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.MemorableMoments = append([]types.MemorableMoment(nil), e.state.MemorableMoments...)
	return out
}

// PromptLine describes the relationship for a system prompt.
func (e *RelationshipEngine) PromptLine() string {
	snap := e.Snapshot()
	return fmt.Sprintf("RELATIONSHIP: %s (trust %.2f, respect %.2f, annoyance %.2f, %d interactions)",
		snap.Status, snap.Trust, snap.Respect, snap.Annoyance, snap.TotalInteractions)
}
