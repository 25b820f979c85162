// Package agent is the explicitly constructed agent context: it builds every
// engine in dependency order, owns their lifetime, serves the foreground chat
// path and runs the autonomy loop.
package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/autonomy"
	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/internal/llm"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

// Host is the hardware surface the agent drives. hardware.Controller
// implements it.
type Host interface {
	autonomy.HostProbe
	autonomy.ActionExecutor
	ReadClipboard(ctx context.Context) (string, error)
}

// Deps are the collaborators handed to New.
type Deps struct {
	Config    *config.Config
	Store     storage.DocumentStore
	Generator llm.Generator
	Host      Host
	Publisher autonomy.Publisher

	// Embedder and VectorIndex enable semantic fact retrieval; either may be nil.
	Embedder    engine.Embedder
	VectorIndex storage.VectorIndex

	Clock  engine.Clock
	Rand   engine.Rand
	Logger zerolog.Logger
}

// Agent owns the engines and both execution paths.
type Agent struct {
	mind      autonomy.Mind
	desires   *engine.DesireEngine
	opinions  *engine.OpinionEngine
	memory    *engine.MemoryStore
	scheduler *autonomy.Scheduler

	gen       llm.Generator
	host      Host
	publisher autonomy.Publisher
	tuning    config.Tuning
	creator   string
	clock     engine.Clock
	logger    zerolog.Logger

	histMu  sync.Mutex
	history []llm.Message
}

// New loads every engine (leaves first) and wires the autonomy loop. The loop
// is not started; call Start.
func New(ctx context.Context, d Deps) (*Agent, error) {
	if d.Config == nil {
		return nil, errors.New("agent: config is required")
	}
	if d.Generator == nil || d.Host == nil {
		return nil, errors.New("agent: generator and host are required")
	}
	if d.Clock == nil {
		d.Clock = engine.SystemClock{}
	}
	cfg := d.Config

	deps := engine.Deps{
		Store:  d.Store,
		Tuning: cfg.Tuning,
		Clock:  d.Clock,
		Rand:   d.Rand,
		Logger: d.Logger,
	}
	if deps.Rand == nil {
		deps.Rand = engine.NewRand(uint64(d.Clock.Now().UnixNano()))
	}

	var retriever engine.Retriever
	if d.Embedder != nil && d.VectorIndex != nil {
		retriever = engine.NewSemanticRetriever(d.Embedder, d.VectorIndex, d.Logger)
	}

	a := &Agent{
		gen:       d.Generator,
		host:      d.Host,
		publisher: d.Publisher,
		tuning:    cfg.Tuning,
		creator:   cfg.Persona.CreatorName,
		clock:     d.Clock,
		logger:    d.Logger.With().Str("component", "agent").Logger(),
	}

	a.mind = autonomy.Mind{
		Affect:       engine.NewAffectEngine(ctx, deps),
		Drives:       engine.NewDriveEngine(ctx, deps),
		Relationship: engine.NewRelationshipEngine(ctx, deps),
		Temporal:     engine.NewTemporalEngine(ctx, deps),
		Quirks:       engine.NewQuirkEngine(ctx, deps),
		Proactive:    engine.NewProactiveEngine(ctx, deps),
		Reflection:   engine.NewReflectionEngine(ctx, deps),
		Curiosity:    engine.NewCuriosityEngine(ctx, deps),
		Monologue:    engine.NewInternalMonologue(deps),
		Repertoire:   engine.NewRepertoire(deps),
		Persona:      engine.NewPersonaEngine(ctx, deps, cfg.Persona.Name),
	}
	a.desires = engine.NewDesireEngine(ctx, deps)
	a.opinions = engine.NewOpinionEngine(ctx, deps, cfg.Persona.CreatorName)
	a.memory = engine.NewMemoryStore(ctx, deps, engine.MemoryOptions{
		CreatorName: cfg.Persona.CreatorName,
		Retriever:   retriever,
	})

	thinker := autonomy.NewGeneratorThinker(autonomy.ThinkerDeps{
		Generator:    d.Generator,
		Host:         d.Host,
		Affect:       a.mind.Affect,
		Relationship: a.mind.Relationship,
		Desires:      a.desires,
		Persona:      a.mind.Persona,
		Tuning:       cfg.Tuning.Chat,
		Logger:       d.Logger,
	})
	a.scheduler = autonomy.NewScheduler(a.mind, d.Host, thinker, d.Host, d.Publisher, autonomy.Options{
		Interval:      cfg.Autonomy.TickInterval,
		TickTimeout:   cfg.Autonomy.TickTimeout,
		ActionTimeout: cfg.Autonomy.ActionTimeout,
		Ladder:        cfg.Tuning.Ladder,
		Clock:         d.Clock,
		Rand:          deps.Rand,
		Logger:        d.Logger,
	})

	a.logger.Info().
		Str("name", a.mind.Persona.Name()).
		Str("mood", string(a.mind.Affect.MoodLabel())).
		Str("relationship", string(a.mind.Relationship.Status())).
		Msg("agent loaded")
	return a, nil
}

// Start runs the autonomy loop in the background.
func (a *Agent) Start(ctx context.Context) {
	a.scheduler.Start(ctx)
}

// Stop halts the autonomy loop, waiting for an in-flight action up to ctx.
func (a *Agent) Stop(ctx context.Context) error {
	return a.scheduler.Stop(ctx)
}

// Scheduler exposes the autonomy loop (ticks can be driven by hand in tests).
func (a *Agent) Scheduler() *autonomy.Scheduler {
	return a.scheduler
}

// Name is the persona's display name.
func (a *Agent) Name() string {
	return a.mind.Persona.Name()
}

// Muted reports whether spoken output is silenced.
func (a *Agent) Muted() bool {
	return a.mind.Persona.Muted()
}

// SetMuted changes the mute flag and tells subscribers.
func (a *Agent) SetMuted(ctx context.Context, muted bool) bool {
	a.mind.Persona.SetMuted(ctx, muted)
	text := "Voice enabled."
	if muted {
		text = "Voice silenced."
	}
	a.publish(ctx, types.EventMute, text, "", nil)
	return muted
}
