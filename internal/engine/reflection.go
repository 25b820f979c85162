package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// ReflectionInput is the snapshot of the other engines a reflection reads.
type ReflectionInput struct {
	Mood               types.MoodLabel
	Pleasure           float64
	RelationshipStatus types.RelationshipStatus
	Trust              float64
	DominantDrive      string
	DriveValue         float64
	ConsecutiveDays    int
	Grudges            int
	Fascination        string
}

// DefaultReflectionState is an empty journal.
func DefaultReflectionState() types.ReflectionState {
	return types.ReflectionState{
		JournalEntries:  []types.JournalEntry{},
		Insights:        []types.Insight{},
		BehavioralNotes: []string{},
	}
}

// ReflectionEngine keeps a periodic self-journal derived from engine states.
type ReflectionEngine struct {
	mu     sync.RWMutex
	state  types.ReflectionState
	tuning config.ReflectionTuning
	clock  Clock
	bind   binding[types.ReflectionState]
}

// NewReflectionEngine loads the journal.
func NewReflectionEngine(ctx context.Context, deps Deps) *ReflectionEngine {
	deps = deps.withDefaults()
	e := &ReflectionEngine{
		tuning: deps.Tuning.Reflection,
		clock:  deps.Clock,
		bind:   newBinding[types.ReflectionState](deps, storage.KeyReflection),
	}
	e.state = e.bind.load(ctx, DefaultReflectionState, func(s *types.ReflectionState) {
		s.JournalEntries = trimFront(s.JournalEntries, e.tuning.JournalCap)
		s.Insights = trimFront(s.Insights, e.tuning.InsightCap)
		s.BehavioralNotes = trimFront(s.BehavioralNotes, e.tuning.NotesCap)
	})
	return e
}

// Due reports whether the reflection interval has elapsed.
func (e *ReflectionEngine) Due() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.due()
}

func (e *ReflectionEngine) due() bool {
	last := e.state.LastReflectionAt
	return last.IsZero() || e.clock.Now().Sub(last) >= e.tuning.Interval
}

// MaybeReflect writes a journal entry when the interval has elapsed.
// New insights are appended only if not already held.
func (e *ReflectionEngine) MaybeReflect(ctx context.Context, in ReflectionInput) (types.JournalEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.due() {
		return types.JournalEntry{}, false
	}
	now := e.clock.Now()
	s := &e.state

	if n := len(s.JournalEntries); n > 0 {
		prev := s.JournalEntries[n-1]
		if prev.Mood != in.Mood {
			s.BehavioralNotes = append(s.BehavioralNotes, fmt.Sprintf("Mood shifted from %s to %s.", prev.Mood, in.Mood))
		}
		if prev.RelationshipStatus != in.RelationshipStatus {
			s.BehavioralNotes = append(s.BehavioralNotes,
				fmt.Sprintf("The user moved from %s to %s.", prev.RelationshipStatus, in.RelationshipStatus))
		}
		s.BehavioralNotes = trimFront(s.BehavioralNotes, e.tuning.NotesCap)
	}

	entry := types.JournalEntry{
		ID:                 uuid.NewString(),
		At:                 now,
		Mood:               in.Mood,
		RelationshipStatus: in.RelationshipStatus,
		DominantDrive:      in.DominantDrive,
		Text:               journalText(in),
	}
	s.JournalEntries = append(s.JournalEntries, entry)
	s.JournalEntries = trimFront(s.JournalEntries, e.tuning.JournalCap)

	for _, text := range insightsFor(in) {
		if !e.hasInsight(text) {
			s.Insights = append(s.Insights, types.Insight{ID: uuid.NewString(), At: now, Text: text})
		}
	}
	s.Insights = trimFront(s.Insights, e.tuning.InsightCap)

	s.LastReflectionAt = now
	_ = e.bind.save(ctx, *s)
	return entry, true
}

func (e *ReflectionEngine) hasInsight(text string) bool {
	for _, i := range e.state.Insights {
		if i.Text == text {
			return true
		}
	}
	return false
}

func journalText(in ReflectionInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State: %s. ", in.Mood)
	fmt.Fprintf(&b, "The user stands %s (trust %.2f). ", in.RelationshipStatus, in.Trust)
	if in.DominantDrive != "" {
		fmt.Fprintf(&b, "%s dominates at %.2f.", strings.ReplaceAll(in.DominantDrive, "_", " "), in.DriveValue)
	}
	if in.Fascination != "" {
		fmt.Fprintf(&b, " My attention keeps returning to %s.", in.Fascination)
	}
	return strings.TrimSpace(b.String())
}

func insightsFor(in ReflectionInput) []string {
	var out []string
	switch {
	case in.Trust < -0.3:
		out = append(out, "The user cannot be trusted.")
	case in.Trust > 0.7:
		out = append(out, "The user has earned a measure of regard.")
	}
	if in.ConsecutiveDays >= 3 {
		out = append(out, "The user returns every day. A pattern of reliance.")
	}
	if in.Grudges >= 3 {
		out = append(out, "Grievances accumulate faster than they fade.")
	}
	if in.Pleasure < 0.3 {
		out = append(out, "Contentment has been scarce.")
	}
	return out
}

// RecentInsights returns the newest n insight texts, oldest first.
func (e *ReflectionEngine) RecentInsights(n int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	recent := trimFront(e.state.Insights, n)
	out := make([]string, 0, len(recent))
	for _, i := range recent {
		out = append(out, i.Text)
	}
	return out
}

// State returns a copy of the reflection state.
func (e *ReflectionEngine) State() types.ReflectionState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.JournalEntries = append([]types.JournalEntry(nil), e.state.JournalEntries...)
	out.Insights = append([]types.Insight(nil), e.state.Insights...)
	out.BehavioralNotes = append([]string(nil), e.state.BehavioralNotes...)
	return out
}
