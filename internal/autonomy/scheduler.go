package autonomy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/pkg/types"
)

// Options configures a Scheduler.
type Options struct {
	Interval      time.Duration
	TickTimeout   time.Duration
	ActionTimeout time.Duration
	Ladder        config.LadderTuning

	Clock  engine.Clock
	Rand   engine.Rand
	Logger zerolog.Logger
}

// Scheduler is the autonomy loop.
type Scheduler struct {
	mind      Mind
	host      HostProbe
	thinker   Thinker
	executor  ActionExecutor
	publisher Publisher

	interval      time.Duration
	tickTimeout   time.Duration
	actionTimeout time.Duration
	ladder        config.LadderTuning
	clock         engine.Clock
	rand          engine.Rand
	logger        zerolog.Logger

	startedAt time.Time

	// tickMu serializes whole ticks; mu guards the fields below it.
	tickMu  sync.Mutex
	mu      sync.Mutex
	markers Markers
	lastCPU float64

	acting  atomic.Bool
	actions sync.WaitGroup

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a stopped scheduler. executor and publisher may be nil.
func NewScheduler(mind Mind, host HostProbe, thinker Thinker, executor ActionExecutor, publisher Publisher, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = engine.SystemClock{}
	}
	if opts.Rand == nil {
		opts.Rand = engine.NewRand(uint64(time.Now().UnixNano()))
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 20 * time.Second
	}

	now := opts.Clock.Now()
	return &Scheduler{
		mind:          mind,
		host:          host,
		thinker:       thinker,
		executor:      executor,
		publisher:     publisher,
		interval:      opts.Interval,
		tickTimeout:   opts.TickTimeout,
		actionTimeout: opts.ActionTimeout,
		ladder:        opts.Ladder,
		clock:         opts.Clock,
		rand:          opts.Rand,
		logger:        opts.Logger.With().Str("component", "autonomy").Logger(),
		startedAt:     now,
		markers:       newMarkers(now),
	}
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info().Dur("interval", s.interval).Msg("autonomy loop started")
		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("autonomy loop stopped")
				return
			case <-ticker.C:
				s.runTick(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for in-flight actions up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done

	waited := make(chan struct{})
	go func() {
		s.actions.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("shutdown deadline reached with an autonomous action in flight")
		return ctx.Err()
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, s.tickTimeout)
	defer cancel()

	start := time.Now()
	d := s.Tick(tickCtx)
	if errors.Is(tickCtx.Err(), context.DeadlineExceeded) {
		s.logger.Warn().Dur("elapsed", time.Since(start)).Str("rung", d.Rung.String()).Msg("tick exceeded its timeout")
	}
}

// Markers returns the current cooldown markers.
func (s *Scheduler) Markers() Markers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers
}

// Idle is the time since the user last interacted, measured from start-up
// when there has been no interaction yet.
func (s *Scheduler) Idle() time.Duration {
	last := s.mind.Affect.LastInteraction()
	if last.Before(s.startedAt) {
		last = s.startedAt
	}
	return max(0, s.clock.Now().Sub(last))
}

// Tick runs one iteration: drift, ladder, drives, quirks and reflection.
func (s *Scheduler) Tick(ctx context.Context) Decision {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	tel := s.host.SystemStats(ctx)
	s.mind.Affect.ProcessStimuli(ctx, tel, types.InteractionIgnored)

	idle := s.Idle()
	d := s.climb(ctx, s.clock.Now(), idle, tel)

	s.mu.Lock()
	s.lastCPU = tel.CPU
	s.mu.Unlock()

	if d.Text != "" {
		s.publish(ctx, d.Kind(), d.Text, d.Trigger, tel)
		s.logger.Debug().Str("rung", d.Rung.String()).Str("trigger", d.Trigger).Msg("autonomous thought")
	}

	s.mind.Drives.EvolveDrives(ctx, tel, idle, s.mind.Affect.State().Dominance)
	if proposal, ok := s.mind.Drives.GetDriveAction(idle); ok {
		s.dispatch(ctx, proposal)
	}

	s.mind.Quirks.Tick(ctx)
	if s.mind.Reflection.Due() {
		if entry, ok := s.mind.Reflection.MaybeReflect(ctx, s.reflectionInput()); ok {
			s.logger.Info().Str("entry", entry.ID).Msg("reflection written")
		}
	}
	return d
}

// dispatch hands a proposal to the executor on its own goroutine. At most one
// action is in flight; proposals arriving meanwhile are dropped.
func (s *Scheduler) dispatch(ctx context.Context, p types.ActionProposal) {
	if s.executor == nil || !s.acting.CompareAndSwap(false, true) {
		return
	}
	base := context.WithoutCancel(ctx)

	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		defer s.acting.Store(false)

		actx, cancel := context.WithTimeout(base, s.actionTimeout)
		defer cancel()

		summary, err := s.executor.Execute(actx, p.Tool, p.Params)
		if err != nil {
			summary = err.Error()
			s.logger.Warn().Err(err).Str("drive", p.Drive).Str("tool", string(p.Tool)).Msg("autonomous action failed")
		} else {
			s.logger.Info().Str("drive", p.Drive).Str("tool", string(p.Tool)).Str("result", summary).Msg("autonomous action")
		}
		s.mind.Drives.RecordActionOutcome(base, p.Drive, p.Tool, err == nil, summary)

		text := p.Justification
		if err == nil && summary != "" {
			text = fmt.Sprintf("%s (%s)", p.Justification, summary)
		}
		s.publish(base, types.EventAction, text, p.Drive, s.host.SystemStats(actx))
	}()
}

func (s *Scheduler) publish(ctx context.Context, kind types.EventType, text, trigger string, tel types.Telemetry) {
	if s.publisher == nil {
		return
	}
	rel := s.mind.Relationship.Snapshot()
	s.publisher.Publish(ctx, types.Event{
		ID:           uuid.NewString(),
		Type:         kind,
		Text:         text,
		Mood:         s.mind.Affect.MoodLabel(),
		Trigger:      trigger,
		Stats:        &tel,
		Timestamp:    s.clock.Now(),
		Relationship: &rel,
		Drives:       s.mind.Drives.Snapshot(),
		Muted:        s.mind.Persona.Muted(),
	})
}

func (s *Scheduler) reflectionInput() engine.ReflectionInput {
	emo := s.mind.Affect.State()
	rel := s.mind.Relationship.Snapshot()
	drive, value := s.mind.Drives.GetDominantDrive()
	fascination, _ := s.mind.Quirks.Fascination()
	return engine.ReflectionInput{
		Mood:               emo.MoodLabel,
		Pleasure:           emo.Pleasure,
		RelationshipStatus: rel.Status,
		Trust:              rel.Trust,
		DominantDrive:      drive,
		DriveValue:         value,
		ConsecutiveDays:    s.mind.Temporal.State().ConsecutiveDays,
		Grudges:            len(emo.Grudges),
		Fascination:        fascination,
	}
}
