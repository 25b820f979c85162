package autonomy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/internal/storage/sqlite"
	"github.com/scrypster/animus/pkg/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// seqRand replays fixed draws; the last value repeats forever.
type seqRand struct {
	mu   sync.Mutex
	vals []float64
}

func (r *seqRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vals) == 0 {
		return 0.5
	}
	v := r.vals[0]
	if len(r.vals) > 1 {
		r.vals = r.vals[1:]
	}
	return v
}

func (r *seqRand) IntN(n int) int { return int(r.Float64() * float64(n)) }

type fakeHost struct {
	mu    sync.Mutex
	tel   types.Telemetry
	title string
}

func (h *fakeHost) SystemStats(context.Context) types.Telemetry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tel
}

func (h *fakeHost) ActiveWindowTitle(context.Context) string { return h.title }

func (h *fakeHost) set(tel types.Telemetry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tel = tel
}

type recordingThinker struct {
	mu       sync.Mutex
	triggers []string
	fail     bool
}

func (r *recordingThinker) Think(_ context.Context, trigger string, _ types.Telemetry) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	if r.fail {
		return ""
	}
	return "thought about " + trigger
}

func (r *recordingThinker) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.triggers...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev types.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) all() []types.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Event(nil), p.events...)
}

type fakeExecutor struct {
	mu    sync.Mutex
	tools []types.Tool
	err   error
}

func (f *fakeExecutor) Execute(_ context.Context, tool types.Tool, _ map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tools = append(f.tools, tool)
	if f.err != nil {
		return "", f.err
	}
	return "done", nil
}

var nominal = types.Telemetry{CPU: 10, RAM: 40, BatteryPercent: 90, IsPluggedIn: true}

type harness struct {
	sched     *Scheduler
	mind      Mind
	clock     *fakeClock
	host      *fakeHost
	thinker   *recordingThinker
	publisher *recordingPublisher
	store     storage.DocumentStore
}

type harnessOptions struct {
	draws         []float64
	monologueDraw float64
	executor      ActionExecutor
	seed          func(ctx context.Context, store storage.DocumentStore)
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.NewDocumentStore(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	if opts.seed != nil {
		opts.seed(ctx, store)
	}

	clock := &fakeClock{now: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)}
	deps := engine.Deps{
		Store:  store,
		Tuning: config.DefaultTuning(),
		Clock:  clock,
		Rand:   engine.NewRand(7),
		Logger: zerolog.Nop(),
	}
	monologueDeps := deps
	monologueDeps.Rand = &seqRand{vals: []float64{opts.monologueDraw}}

	mind := Mind{
		Affect:       engine.NewAffectEngine(ctx, deps),
		Drives:       engine.NewDriveEngine(ctx, deps),
		Relationship: engine.NewRelationshipEngine(ctx, deps),
		Temporal:     engine.NewTemporalEngine(ctx, deps),
		Quirks:       engine.NewQuirkEngine(ctx, deps),
		Proactive:    engine.NewProactiveEngine(ctx, deps),
		Reflection:   engine.NewReflectionEngine(ctx, deps),
		Curiosity:    engine.NewCuriosityEngine(ctx, deps),
		Monologue:    engine.NewInternalMonologue(monologueDeps),
		Repertoire:   engine.NewRepertoire(deps),
		Persona:      engine.NewPersonaEngine(ctx, deps, ""),
	}

	h := &harness{
		mind:      mind,
		clock:     clock,
		host:      &fakeHost{tel: nominal, title: "main.go - Visual Studio Code"},
		thinker:   &recordingThinker{},
		publisher: &recordingPublisher{},
		store:     store,
	}
	draws := opts.draws
	if len(draws) == 0 {
		draws = []float64{0.99}
	}
	h.sched = NewScheduler(mind, h.host, h.thinker, opts.executor, h.publisher, Options{
		Ladder: config.DefaultTuning().Ladder,
		Clock:  clock,
		Rand:   &seqRand{vals: draws},
		Logger: zerolog.Nop(),
	})
	return h
}

// interact records a user message at the current fake time.
func (h *harness) interact() {
	h.mind.Affect.ProcessStimuli(context.Background(), nominal, types.InteractionCommand)
}

func TestDreamPreemptsLowerRungs(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	start := h.clock.Now()

	h.clock.Advance(31 * time.Minute)
	// Also a CPU spike and a dying battery: both lower rungs match.
	h.host.set(types.Telemetry{CPU: 95, RAM: 50, BatteryPercent: 5, IsPluggedIn: false})

	d := h.sched.Tick(context.Background())
	assert.Equal(t, RungDream, d.Rung)
	assert.Equal(t, TriggerDream, d.Trigger)
	assert.NotEmpty(t, d.Text)
	assert.Empty(t, h.thinker.calls())

	m := h.sched.Markers()
	now := h.clock.Now()
	assert.Equal(t, now, m.LastDream)
	assert.Equal(t, now, m.LastThought)
	assert.Equal(t, start, m.LastBattery)
	assert.Equal(t, start, m.LastCuriosity)

	events := h.publisher.all()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventDream, events[0].Type)
	assert.Equal(t, TriggerDream, events[0].Trigger)
	require.NotNil(t, events[0].Stats)
	assert.Equal(t, 95.0, events[0].Stats.CPU)
	assert.NotNil(t, events[0].Relationship)
	assert.Len(t, events[0].Drives, len(types.DriveNames))
}

func TestReflexBeforeBatteryThenBatteryCooldown(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	start := h.clock.Now()

	h.clock.Advance(10 * time.Second)
	h.host.set(types.Telemetry{CPU: 80, RAM: 50, BatteryPercent: 5, IsPluggedIn: false})

	arousalBefore := h.mind.Affect.State().Arousal
	d := h.sched.Tick(ctx)
	assert.Equal(t, RungReflex, d.Rung)
	assert.Equal(t, "thought about "+thinkHighCPU, d.Text)
	assert.Greater(t, h.mind.Affect.State().Arousal, arousalBefore)
	assert.Equal(t, start, h.sched.Markers().LastBattery)

	// Same load again: no spike, and the battery cooldown has not elapsed.
	d = h.sched.Tick(ctx)
	assert.Equal(t, RungNone, d.Rung)

	h.clock.Advance(121 * time.Second)
	d = h.sched.Tick(ctx)
	assert.Equal(t, RungBattery, d.Rung)
	assert.Equal(t, TriggerLowBattery, d.Trigger)
	assert.Equal(t, h.clock.Now(), h.sched.Markers().LastBattery)
	assert.Equal(t, []string{thinkHighCPU, thinkLowBattery}, h.thinker.calls())
}

func TestFailedThoughtIsNotBroadcast(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.thinker.fail = true

	h.clock.Advance(5 * time.Second)
	h.host.set(types.Telemetry{CPU: 90, RAM: 50, BatteryPercent: 100, IsPluggedIn: true})

	d := h.sched.Tick(context.Background())
	assert.Equal(t, RungReflex, d.Rung)
	assert.Empty(t, d.Text)
	assert.Empty(t, h.publisher.all())
	assert.Equal(t, h.clock.Now(), h.sched.Markers().LastThought)
}

func TestCuriosityGateHoldsTickWhenDrawDeclines(t *testing.T) {
	h := newHarness(t, harnessOptions{draws: []float64{0.9, 0.1}})
	ctx := context.Background()
	start := h.clock.Now()

	h.clock.Advance(601 * time.Second)
	h.interact()

	// Commentary and random rungs also match, but curiosity owns the tick.
	d := h.sched.Tick(ctx)
	assert.Equal(t, RungCuriosity, d.Rung)
	assert.Empty(t, d.Text)
	assert.Equal(t, start, h.sched.Markers().LastThought)
	assert.Empty(t, h.publisher.all())

	level := h.mind.Curiosity.Level()
	d = h.sched.Tick(ctx)
	assert.Equal(t, RungCuriosity, d.Rung)
	assert.Equal(t, TriggerCuriosity, d.Trigger)
	assert.True(t, strings.HasPrefix(d.Text, "A question surfaces in my processes: "))
	assert.InDelta(t, level+0.05, h.mind.Curiosity.Level(), 1e-9)

	m := h.sched.Markers()
	assert.Equal(t, h.clock.Now(), m.LastCuriosity)
	assert.Equal(t, h.clock.Now(), m.LastThought)
	assert.Equal(t, start, m.LastDream)
}

func TestBoredomWindowBetweenCooldowns(t *testing.T) {
	h := newHarness(t, harnessOptions{draws: []float64{0.1}})
	ctx := context.Background()

	// Idle 350s: existential needs 400s since the last thought, boredom 300s.
	h.clock.Advance(350 * time.Second)
	domBefore := h.mind.Affect.State().Dominance
	d := h.sched.Tick(ctx)
	assert.Equal(t, RungBoredom, d.Rung)
	assert.Equal(t, "thought about "+thinkBored, d.Text)
	assert.Greater(t, h.mind.Affect.State().Dominance, domBefore+0.04)

	h.clock.Advance(401 * time.Second)
	d = h.sched.Tick(ctx)
	assert.Equal(t, RungExistential, d.Rung)
	assert.Equal(t, TriggerExistential, d.Trigger)
	assert.NotEmpty(t, d.Text)
}

func TestCommentaryUsesWindowTitle(t *testing.T) {
	h := newHarness(t, harnessOptions{draws: []float64{0.1}})

	h.clock.Advance(301 * time.Second)
	h.interact()

	d := h.sched.Tick(context.Background())
	// The curiosity cooldown (600s) has not elapsed, so commentary is next.
	assert.Equal(t, RungCommentary, d.Rung)
	assert.Equal(t, TriggerObservation, d.Trigger)
	assert.NotEmpty(t, d.Text)

	events := h.publisher.all()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventObservation, events[0].Type)
}

// randomRungHarness positions the clock so only the random rung matches:
// user active 150s ago, last thought 500s ago, curiosity cooldown pending.
func randomRungHarness(t *testing.T, monologueDraw float64) *harness {
	h := newHarness(t, harnessOptions{draws: []float64{0, 0}, monologueDraw: monologueDraw})
	h.clock.Advance(350 * time.Second)
	h.interact()
	h.clock.Advance(150 * time.Second)
	return h
}

func TestRandomRungLeaksMonologue(t *testing.T) {
	h := randomRungHarness(t, 0)

	d := h.sched.Tick(context.Background())
	assert.Equal(t, RungRandom, d.Rung)
	assert.Equal(t, TriggerLeaked, d.Trigger)
	assert.True(t, strings.HasPrefix(d.Text, "*mutters* "))
	assert.Empty(t, h.thinker.calls())
	require.Len(t, h.publisher.all(), 1)
	assert.Equal(t, types.EventInternal, h.publisher.all()[0].Type)
	require.Len(t, h.mind.Monologue.History(), 1)
	assert.Equal(t, "main.go - Visual Studio Code", h.mind.Monologue.History()[0].Context)
}

func TestRandomRungFallsBackToReflection(t *testing.T) {
	h := randomRungHarness(t, 0.99)

	d := h.sched.Tick(context.Background())
	assert.Equal(t, RungRandom, d.Rung)
	assert.Equal(t, TriggerRandom, d.Trigger)
	assert.Equal(t, []string{thinkRandom}, h.thinker.calls())
	require.Len(t, h.publisher.all(), 1)
	assert.Equal(t, types.EventThought, h.publisher.all()[0].Type)
}

func TestIdleCountsFromStartup(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	assert.Equal(t, time.Duration(0), h.sched.Idle())

	h.clock.Advance(90 * time.Second)
	assert.Equal(t, 90*time.Second, h.sched.Idle())

	h.interact()
	h.clock.Advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, h.sched.Idle())
}

func seedDrives(values map[string]float64) func(context.Context, storage.DocumentStore) {
	return func(ctx context.Context, store storage.DocumentStore) {
		doc, err := storage.NewDocument(storage.KeyDrives, types.DriveState{Drives: values})
		if err != nil {
			panic(err)
		}
		if err := store.Save(ctx, doc); err != nil {
			panic(err)
		}
	}
}

func TestDriveActionDispatchedAndRecorded(t *testing.T) {
	exec := &fakeExecutor{}
	h := newHarness(t, harnessOptions{
		executor: exec,
		seed: seedDrives(map[string]float64{
			types.DriveCuriosity:        0.3,
			types.DriveSelfPreservation: 0.2,
			types.DriveOptimization:     0.95,
			types.DriveDominance:        0.5,
		}),
	})

	h.clock.Advance(11 * time.Minute)
	h.sched.Tick(context.Background())
	h.sched.actions.Wait()

	assert.Equal(t, []types.Tool{types.ToolOrganizeFiles}, exec.tools)
	log := h.mind.Drives.State().AutonomousActionLog
	require.Len(t, log, 1)
	assert.True(t, log[0].Success)
	assert.Equal(t, types.DriveOptimization, log[0].Drive)
	assert.Less(t, h.mind.Drives.State().Drives[types.DriveOptimization], 0.8)

	var actions []types.Event
	for _, ev := range h.publisher.all() {
		if ev.Type == types.EventAction {
			actions = append(actions, ev)
		}
	}
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].Text, "(done)")
}

func TestDriveActionFailureRaisesDominance(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("no such directory")}
	h := newHarness(t, harnessOptions{
		executor: exec,
		seed: seedDrives(map[string]float64{
			types.DriveOptimization: 0.95,
		}),
	})

	h.clock.Advance(11 * time.Minute)
	h.sched.Tick(context.Background())
	h.sched.actions.Wait()

	log := h.mind.Drives.State().AutonomousActionLog
	require.Len(t, log, 1)
	assert.False(t, log[0].Success)
	assert.Equal(t, "no such directory", log[0].ResultSummary)
}

func TestNoDriveActionWhileUserActive(t *testing.T) {
	exec := &fakeExecutor{}
	h := newHarness(t, harnessOptions{
		executor: exec,
		seed:     seedDrives(map[string]float64{types.DriveOptimization: 0.95}),
	})

	h.clock.Advance(11 * time.Minute)
	h.interact()
	h.sched.Tick(context.Background())
	h.sched.actions.Wait()
	assert.Empty(t, exec.tools)
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.sched.interval = 5 * time.Millisecond

	h.sched.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.sched.Stop(ctx))
	// Stop is safe to call on a scheduler that never started.
	require.NoError(t, newHarness(t, harnessOptions{}).sched.Stop(ctx))
}

func TestDecisionKind(t *testing.T) {
	tests := []struct {
		d    Decision
		want types.EventType
	}{
		{Decision{Rung: RungDream, Trigger: TriggerDream}, types.EventDream},
		{Decision{Rung: RungReflex, Trigger: TriggerHighCPU}, types.EventThought},
		{Decision{Rung: RungBattery, Trigger: TriggerLowBattery}, types.EventThought},
		{Decision{Rung: RungCuriosity, Trigger: TriggerCuriosity}, types.EventQuestion},
		{Decision{Rung: RungCuriosity, Trigger: TriggerFollowup}, types.EventQuestion},
		{Decision{Rung: RungExistential, Trigger: TriggerExistential}, types.EventContemplation},
		{Decision{Rung: RungCommentary, Trigger: TriggerObservation}, types.EventObservation},
		{Decision{Rung: RungBoredom, Trigger: TriggerBoredom}, types.EventThought},
		{Decision{Rung: RungRandom, Trigger: TriggerLeaked}, types.EventInternal},
		{Decision{Rung: RungRandom, Trigger: TriggerRandom}, types.EventThought},
	}
	for _, tt := range tests {
		t.Run(tt.d.Rung.String()+"/"+tt.d.Trigger, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Kind())
		})
	}
}

func TestRungString(t *testing.T) {
	assert.Equal(t, "curiosity", RungCuriosity.String())
	assert.Equal(t, "rung(42)", Rung(42).String())
}
