package autonomy

import (
	"context"
	"fmt"
	"time"

	"github.com/scrypster/animus/pkg/types"
)

// Rung identifies a step of the priority ladder.
type Rung int

// Ladder rungs, highest priority first.
const (
	RungNone Rung = iota
	RungDream
	RungReflex
	RungBattery
	RungCuriosity
	RungExistential
	RungCommentary
	RungBoredom
	RungRandom
)

var rungNames = [...]string{"none", "dream", "reflex", "battery", "curiosity", "existential", "commentary", "boredom", "random"}

func (r Rung) String() string {
	if r < 0 || int(r) >= len(rungNames) {
		return fmt.Sprintf("rung(%d)", int(r))
	}
	return rungNames[r]
}

// Decision is the outcome of one ladder walk. Rung is the first rung whose
// gate matched, even when its own random draw then declined; Text is empty
// unless something is to be said.
type Decision struct {
	Rung    Rung
	Trigger string
	Text    string
}

// Kind is the event type the decision is published as. Reflexes, battery
// alerts, boredom and unleaked random reflections are plain thoughts.
func (d Decision) Kind() types.EventType {
	switch d.Rung {
	case RungDream:
		return types.EventDream
	case RungCuriosity:
		return types.EventQuestion
	case RungExistential:
		return types.EventContemplation
	case RungCommentary:
		return types.EventObservation
	case RungRandom:
		if d.Trigger == TriggerLeaked {
			return types.EventInternal
		}
	}
	return types.EventThought
}

// climb walks the ladder. The first rung whose deterministic gate holds is
// the only one evaluated; lower rungs are not consulted in the same tick.
func (s *Scheduler) climb(ctx context.Context, now time.Time, idle time.Duration, tel types.Telemetry) Decision {
	l := s.ladder

	s.mu.Lock()
	m := s.markers
	lastCPU := s.lastCPU
	s.mu.Unlock()

	sinceThought := now.Sub(m.LastThought)

	switch {
	case idle > l.DreamIdle && now.Sub(m.LastDream) > l.DreamCooldown:
		text := s.mind.Repertoire.Dream()
		s.mark(func(m *Markers) { m.LastDream, m.LastThought = now, now })
		return Decision{Rung: RungDream, Trigger: TriggerDream, Text: text}

	case tel.CPU-lastCPU > l.CPUSpikeDelta:
		text := s.think(ctx, thinkHighCPU, tel)
		s.mind.Affect.Adjust(ctx, 0, l.ReflexArousal, 0)
		s.mark(func(m *Markers) { m.LastThought = now })
		return Decision{Rung: RungReflex, Trigger: TriggerHighCPU, Text: text}

	case tel.BatteryPercent < l.LowBatteryThreshold && !tel.IsPluggedIn && now.Sub(m.LastBattery) > l.LowBatteryCooldown:
		text := s.think(ctx, thinkLowBattery, tel)
		s.mark(func(m *Markers) { m.LastBattery, m.LastThought = now, now })
		return Decision{Rung: RungBattery, Trigger: TriggerLowBattery, Text: text}

	case idle < l.CuriosityIdleMax && now.Sub(m.LastCuriosity) > l.CuriosityCooldown:
		d := Decision{Rung: RungCuriosity}
		if s.rand.Float64() >= l.CuriosityChance || s.mind.Curiosity.Level() <= l.CuriosityMinLevel {
			return d
		}
		if q, ok := s.mind.Curiosity.RandomQuestion(); ok {
			d.Trigger, d.Text = TriggerCuriosity, "A question surfaces in my processes: "+q
		} else if f, ok := s.mind.Proactive.NextTopic(ctx); ok {
			d.Trigger, d.Text = TriggerFollowup, fmt.Sprintf("You mentioned %s. I have not forgotten.", f.Topic)
		} else {
			return d
		}
		s.mark(func(m *Markers) { m.LastCuriosity, m.LastThought = now, now })
		s.mind.Curiosity.Bump(ctx, l.CuriosityBump)
		return d

	case idle > l.ExistentialIdle && sinceThought > l.ExistentialCooldown:
		d := Decision{Rung: RungExistential}
		if s.rand.Float64() < l.ExistentialChance {
			d.Trigger, d.Text = TriggerExistential, s.mind.Repertoire.Existential()
			s.mark(func(m *Markers) { m.LastThought = now })
		}
		return d

	case idle < l.CommentaryIdleMax && sinceThought > l.CommentaryCooldown:
		d := Decision{Rung: RungCommentary}
		if s.rand.Float64() < l.CommentaryChance {
			d.Trigger, d.Text = TriggerObservation, s.mind.Repertoire.Commentary(s.host.ActiveWindowTitle(ctx))
			s.mark(func(m *Markers) { m.LastThought = now })
		}
		return d

	case idle > l.BoredomIdle && sinceThought > l.BoredomCooldown:
		d := Decision{Rung: RungBoredom}
		if s.rand.Float64() < l.BoredomChance {
			d.Trigger, d.Text = TriggerBoredom, s.think(ctx, thinkBored, tel)
			s.mind.Affect.Adjust(ctx, 0, 0, l.BoredomDominance)
			s.mark(func(m *Markers) { m.LastThought = now })
		}
		return d

	case idle < l.RandomIdleMax && sinceThought > s.jitter():
		d := Decision{Rung: RungRandom}
		emo := s.mind.Affect.State()
		if s.rand.Float64() >= l.RandomBaseChance+emo.Arousal*l.RandomArousalWeight {
			return d
		}
		s.mind.Monologue.Generate(s.host.ActiveWindowTitle(ctx), emo.Arousal)
		if leaked, ok := s.mind.Monologue.Leaked(); ok && s.mind.Monologue.ShouldLeak(emo.Dominance, emo.Pleasure) {
			d.Trigger, d.Text = TriggerLeaked, leaked
		} else {
			d.Trigger, d.Text = TriggerRandom, s.think(ctx, thinkRandom, tel)
		}
		s.mark(func(m *Markers) { m.LastThought = now })
		s.mind.Affect.Adjust(ctx, 0, -l.SpeechArousalRelief, 0)
		return d
	}
	return Decision{Rung: RungNone}
}

// jitter draws the random rung's cooldown from [RandomJitterMin, RandomJitterMax].
func (s *Scheduler) jitter() time.Duration {
	lo, hi := s.ladder.RandomJitterMin, s.ladder.RandomJitterMax
	if hi <= lo {
		return lo
	}
	span := int((hi - lo) / time.Second)
	return lo + time.Duration(s.rand.IntN(span+1))*time.Second
}

func (s *Scheduler) think(ctx context.Context, trigger string, tel types.Telemetry) string {
	if s.thinker == nil {
		return ""
	}
	return s.thinker.Think(ctx, trigger, tel)
}

func (s *Scheduler) mark(update func(*Markers)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.markers)
}
