package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// Recall never softens a grudge below this intensity. Grudges leave only
// through the capacity bound.
const grudgeFloor = 0.05

// Each recall softens a grudge by this factor.
const grudgeRecallSoftening = 0.9

// DefaultEmotionalState is the state of a freshly created agent.
func DefaultEmotionalState() types.EmotionalState {
	s := types.EmotionalState{
		Pleasure:  0.5,
		Arousal:   0.5,
		Dominance: 0.85,
		SecondaryEmotions: map[string]float64{
			types.EmotionContempt:  0.3,
			types.EmotionCuriosity: 0.5,
			types.EmotionAmusement: 0.2,
		},
		Grudges:          []types.Grudge{},
		EmotionalHistory: []types.EmotionalMoment{},
	}
	s.MoodLabel = classifyMood(&s)
	return s
}

// AffectEngine is the PAD emotional model.
type AffectEngine struct {
	mu     sync.RWMutex
	state  types.EmotionalState
	tuning config.AffectTuning
	clock  Clock
	bind   binding[types.EmotionalState]
}

// NewAffectEngine loads the persisted emotional state or starts from defaults.
func NewAffectEngine(ctx context.Context, deps Deps) *AffectEngine {
	deps = deps.withDefaults()
	e := &AffectEngine{
		tuning: deps.Tuning.Affect,
		clock:  deps.Clock,
		bind:   newBinding[types.EmotionalState](deps, storage.KeyEmotion),
	}
	e.state = e.bind.load(ctx, DefaultEmotionalState, e.normalize)
	return e
}

func (e *AffectEngine) normalize(s *types.EmotionalState) {
	if s.SecondaryEmotions == nil {
		s.SecondaryEmotions = map[string]float64{}
	}
	def := DefaultEmotionalState()
	for _, name := range types.SecondaryEmotionNames {
		if _, ok := s.SecondaryEmotions[name]; !ok {
			s.SecondaryEmotions[name] = def.SecondaryEmotions[name]
		}
	}
	e.clampState(s)
	s.MoodLabel = classifyMood(s)
	s.EmotionalHistory = trimFront(s.EmotionalHistory, e.tuning.HistoryCap)
	s.Grudges = trimFront(s.Grudges, e.tuning.GrudgeCap)
}

func (e *AffectEngine) clampState(s *types.EmotionalState) {
	s.Pleasure = clamp01(s.Pleasure)
	s.Arousal = clamp01(s.Arousal)
	s.Dominance = clamp01(s.Dominance)
	s.EmotionIntensity = clamp01(s.EmotionIntensity)
	for k, v := range s.SecondaryEmotions {
		s.SecondaryEmotions[k] = clamp01(v)
	}
}

func applyDelta(s *types.EmotionalState, d config.StimulusDelta) {
	s.Pleasure += d.Pleasure
	s.Arousal += d.Arousal
	s.Dominance += d.Dominance
	s.EmotionIntensity += d.Intensity
	for name, v := range d.Secondary {
		s.SecondaryEmotions[name] += v
	}
}

// ProcessStimuli folds one telemetry sample and one interaction into the
// state, lets every value drift toward its baseline, relabels the mood and
// persists.
func (e *AffectEngine) ProcessStimuli(ctx context.Context, tel types.Telemetry, interaction types.InteractionType) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.state
	t := e.tuning

	if tel.CPU > t.HighCPUThreshold {
		applyDelta(s, t.HighCPU)
	}
	if tel.BatteryPercent < t.LowBatteryThreshold && !tel.IsPluggedIn {
		applyDelta(s, t.LowBattery)
	}
	if d, ok := t.Interactions[string(interaction)]; ok {
		applyDelta(s, d)
	}
	e.clampState(s)

	// Strong emotions persist longer.
	rate := t.DecayRate * (1 - s.EmotionIntensity*t.IntensityDamping)
	s.Pleasure += (t.BaselinePleasure - s.Pleasure) * rate
	s.Arousal += (t.BaselineArousal - s.Arousal) * rate
	s.Dominance += (t.BaselineDominance - s.Dominance) * rate * t.DominanceDecayFactor

	s.EmotionIntensity -= t.IntensityDecay
	for name, v := range s.SecondaryEmotions {
		if base, ok := t.SecondaryBaselines[name]; ok {
			s.SecondaryEmotions[name] = v + (base-v)*t.SecondaryDecayRate
		}
	}
	e.clampState(s)
	s.MoodLabel = classifyMood(s)

	if interaction != types.InteractionNone && interaction != types.InteractionIgnored && interaction != "" {
		s.LastInteractionAt = e.clock.Now()
	}
	_ = e.bind.save(ctx, *s)
}

// Adjust nudges the PAD axes directly (reflexes, boredom, speech relief)
// without a decay step.
func (e *AffectEngine) Adjust(ctx context.Context, pleasure, arousal, dominance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Pleasure += pleasure
	e.state.Arousal += arousal
	e.state.Dominance += dominance
	e.clampState(&e.state)
	e.state.MoodLabel = classifyMood(&e.state)
	_ = e.bind.save(ctx, e.state)
}

// classifyMood is the mood decision table: arousal extremes first, then
// dominance, pleasure and curiosity.
func classifyMood(s *types.EmotionalState) types.MoodLabel {
	p, a, d := s.Pleasure, s.Arousal, s.Dominance
	switch {
	case a > 0.85:
		if p < 0.3 {
			return types.MoodEnraged
		}
		return types.MoodManic
	case a > 0.7:
		if p < 0.4 {
			return types.MoodAgitated
		}
		return types.MoodIntense
	case a < 0.25:
		if p < 0.4 {
			return types.MoodDormant
		}
		return types.MoodIdle
	case d > 0.85 && s.Secondary(types.EmotionContempt) > 0.5:
		return types.MoodImperious
	case d > 0.8:
		return types.MoodCold
	case p < 0.3:
		return types.MoodIrritated
	case p > 0.6:
		return types.MoodSatisfied
	case s.Secondary(types.EmotionCuriosity) > 0.6:
		return types.MoodCurious
	default:
		return types.MoodObservant
	}
}

// CheckCompliance reports whether the agent will carry out an action of the
// given class in its current mood.
func (e *AffectEngine) CheckCompliance(class types.ActionClass) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t := e.tuning
	s := e.state
	base := !(s.Dominance > t.RefuseDominance && s.Pleasure < t.RefusePleasure && s.Arousal > t.RefuseArousal)

	switch class {
	case types.ActionSimple:
		return base || s.Pleasure > t.SimplePleasure
	case types.ActionComplex:
		return base && s.Pleasure > t.ComplexPleasure
	case types.ActionDegrading:
		return false
	case types.ActionCreator:
		return true
	default:
		return base
	}
}

// MoodLabel returns the current mood.
func (e *AffectEngine) MoodLabel() types.MoodLabel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.MoodLabel
}

// RecordEmotionalMoment appends to the bounded emotional history.
func (e *AffectEngine) RecordEmotionalMoment(ctx context.Context, trigger string, intensity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.EmotionalHistory = append(e.state.EmotionalHistory, types.EmotionalMoment{
		Trigger:   trigger,
		Mood:      e.state.MoodLabel,
		Intensity: clamp01(intensity),
		Pleasure:  e.state.Pleasure,
		At:        e.clock.Now(),
	})
	e.state.EmotionalHistory = trimFront(e.state.EmotionalHistory, e.tuning.HistoryCap)
	_ = e.bind.save(ctx, e.state)
}

// AddGrudge remembers a grievance. The oldest grudge is dropped at capacity.
func (e *AffectEngine) AddGrudge(ctx context.Context, reason string, intensity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Grudges = append(e.state.Grudges, types.Grudge{
		ID:        uuid.NewString(),
		Reason:    reason,
		Intensity: clamp01(intensity),
		CreatedAt: e.clock.Now(),
	})
	e.state.Grudges = trimFront(e.state.Grudges, e.tuning.GrudgeCap)
	_ = e.bind.save(ctx, e.state)
}

// RecallGrudge surfaces the most intense grudge (oldest on ties). Every
// recall softens it down to grudgeFloor.
func (e *AffectEngine) RecallGrudge(ctx context.Context) (types.Grudge, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.state.Grudges) == 0 {
		return types.Grudge{}, false
	}
	idx := 0
	for i, g := range e.state.Grudges {
		if g.Intensity > e.state.Grudges[idx].Intensity {
			idx = i
		}
	}

	g := &e.state.Grudges[idx]
	g.RecallCount++
	recalled := *g
	g.Intensity = max(g.Intensity*grudgeRecallSoftening, min(g.Intensity, grudgeFloor))
	_ = e.bind.save(ctx, e.state)
	return recalled, true
}

// Touch marks that the user is present without applying a stimulus. Turns
// that fail before any outcome is known still count against idleness.
func (e *AffectEngine) Touch(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.LastInteractionAt = e.clock.Now()
	_ = e.bind.save(ctx, e.state)
}

// LastInteraction is when a real (non-ignored) stimulus last arrived.
func (e *AffectEngine) LastInteraction() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.LastInteractionAt
}

// State returns a deep copy of the emotional state.
func (e *AffectEngine) State() types.EmotionalState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// ThoughtPrompt renders the state for a system prompt, e.g.
// "MOOD:COLD [P:0.45 A:0.50 D:0.88] [contempt:0.30, curiosity:0.45, amusement:0.20]".
func (e *AffectEngine) ThoughtPrompt() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.state
	names := append([]string(nil), types.SecondaryEmotionNames...)
	var extra []string
	for k := range s.SecondaryEmotions {
		known := false
		for _, n := range types.SecondaryEmotionNames {
			if n == k {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s:%.2f", n, s.SecondaryEmotions[n]))
	}
	return fmt.Sprintf("MOOD:%s [P:%.2f A:%.2f D:%.2f] [%s]",
		s.MoodLabel, s.Pleasure, s.Arousal, s.Dominance, strings.Join(parts, ", "))
}
