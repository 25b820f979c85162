package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

const dateLayout = "2006-01-02"

// DefaultTemporalState has no history.
func DefaultTemporalState() types.TemporalState {
	return types.TemporalState{
		InteractionTimes: []time.Time{},
		DailyPatterns:    map[string]int{},
	}
}

// TemporalEngine tracks when the user shows up.
type TemporalEngine struct {
	mu     sync.RWMutex
	state  types.TemporalState
	tuning config.TemporalTuning
	clock  Clock
	bind   binding[types.TemporalState]
}

// NewTemporalEngine loads the persisted cadence history.
func NewTemporalEngine(ctx context.Context, deps Deps) *TemporalEngine {
	deps = deps.withDefaults()
	e := &TemporalEngine{
		tuning: deps.Tuning.Temporal,
		clock:  deps.Clock,
		bind:   newBinding[types.TemporalState](deps, storage.KeyTemporal),
	}
	e.state = e.bind.load(ctx, DefaultTemporalState, func(s *types.TemporalState) {
		if s.DailyPatterns == nil {
			s.DailyPatterns = map[string]int{}
		}
		s.InteractionTimes = trimFront(s.InteractionTimes, e.tuning.TimestampCap)
	})
	return e
}

// RecordInteraction notes a user interaction at the current time.
//
// The streak grows only when the previous active day was exactly yesterday,
// resets to 1 after a longer gap and is left alone for a second interaction
// on the same day.
func (e *TemporalEngine) RecordInteraction(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	s := &e.state

	s.InteractionTimes = append(s.InteractionTimes, now)
	s.InteractionTimes = trimFront(s.InteractionTimes, e.tuning.TimestampCap)
	s.DailyPatterns[strconv.Itoa(now.Hour())]++

	today := now.Format(dateLayout)
	if s.LastActiveDate == "" {
		s.ConsecutiveDays = 1
	} else if last, err := time.ParseInLocation(dateLayout, s.LastActiveDate, now.Location()); err != nil {
		s.ConsecutiveDays = 1
	} else {
		switch gap := calendarDays(last, now); {
		case gap == 1:
			s.ConsecutiveDays++
		case gap > 1:
			s.ConsecutiveDays = 1
		}
	}
	if s.LastActiveDate < today || s.LastActiveDate == "" {
		s.LastActiveDate = today
	}
	_ = e.bind.save(ctx, *s)
}

// calendarDays counts midnights between a and b in b's location.
func calendarDays(a, b time.Time) int {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	da := time.Date(y1, m1, d1, 12, 0, 0, 0, time.UTC)
	db := time.Date(y2, m2, d2, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Snapshot derives the cadence view at the current time.
func (e *TemporalEngine) Snapshot() types.TemporalSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.clock.Now()
	s := e.state
	snap := types.TemporalSnapshot{
		ConsecutiveDays: s.ConsecutiveDays,
		LastActiveDate:  s.LastActiveDate,
		TotalTracked:    len(s.InteractionTimes),
		LateNight:       e.isLateNight(now),
		UnusualHour:     s.DailyPatterns[strconv.Itoa(now.Hour())] < e.tuning.UnusualHourMinimum,
		MostActiveHour:  -1,
	}

	best := 0
	for h := 0; h < 24; h++ {
		if c := s.DailyPatterns[strconv.Itoa(h)]; c > best {
			best, snap.MostActiveHour = c, h
		}
	}

	times := s.InteractionTimes
	if len(times) >= 2 {
		var total float64
		for i := 1; i < len(times); i++ {
			total += times[i].Sub(times[i-1]).Seconds()
		}
		snap.MeanGapSeconds = total / float64(len(times)-1)

		if len(times) >= e.tuning.AnomalyMinSamples && snap.MeanGapSeconds > 0 {
			last := times[len(times)-1].Sub(times[len(times)-2]).Seconds()
			f := e.tuning.AnomalyFactor
			snap.AnomalousCadence = last > snap.MeanGapSeconds*f || last < snap.MeanGapSeconds/f
		}
	}
	return snap
}

// isLateNight reports whether t falls in [start, end) hours.
func (e *TemporalEngine) isLateNight(t time.Time) bool {
	h := t.Hour()
	return h >= e.tuning.LateNightStartHour && h < e.tuning.LateNightEndHour
}

// State returns a copy of the temporal state.
func (e *TemporalEngine) State() types.TemporalState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.InteractionTimes = append([]time.Time(nil), e.state.InteractionTimes...)
	out.DailyPatterns = make(map[string]int, len(e.state.DailyPatterns))
	for k, v := range e.state.DailyPatterns {
		out.DailyPatterns[k] = v
	}
	return out
}

// PromptLine describes notable timing for a system prompt; empty if nothing stands out.
func (e *TemporalEngine) PromptLine() string {
	snap := e.Snapshot()
	var notes []string
	if snap.ConsecutiveDays > 1 {
		notes = append(notes, fmt.Sprintf("the user has visited %d days in a row", snap.ConsecutiveDays))
	}
	if snap.LateNight {
		notes = append(notes, "it is the middle of the night")
	}
	if snap.UnusualHour && snap.TotalTracked > 0 {
		notes = append(notes, "the user rarely appears at this hour")
	}
	if snap.AnomalousCadence {
		notes = append(notes, "the rhythm of their messages has changed")
	}
	if len(notes) == 0 {
		return ""
	}
	return "TIME: " + strings.Join(notes, "; ")
}
