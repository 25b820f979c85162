package autonomy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/internal/llm"
	"github.com/scrypster/animus/pkg/types"
)

type stubGenerator struct {
	reply string
	err   error
	last  llm.Request
}

func (g *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.last = req
	return g.reply, g.err
}

func (g *stubGenerator) GetModel() string { return "stub" }

func newTestThinker(t *testing.T, gen llm.Generator) *GeneratorThinker {
	t.Helper()
	h := newHarness(t, harnessOptions{})
	deps := engine.Deps{Tuning: config.DefaultTuning(), Logger: zerolog.Nop()}
	return NewGeneratorThinker(ThinkerDeps{
		Generator:    gen,
		Host:         h.host,
		Affect:       h.mind.Affect,
		Relationship: h.mind.Relationship,
		Desires:      engine.NewDesireEngine(context.Background(), deps),
		Persona:      h.mind.Persona,
		Tuning:       config.DefaultTuning().Chat,
		Logger:       zerolog.Nop(),
	})
}

func TestThinkerPromptCarriesSnapshot(t *testing.T) {
	gen := &stubGenerator{reply: ` "The fans spin faster. Interesting."  `}
	th := newTestThinker(t, gen)

	out := th.Think(context.Background(), "high_cpu_spike", types.Telemetry{CPU: 91, RAM: 62})
	assert.Equal(t, "The fans spin faster. Interesting.", out)

	prompt := gen.last.User
	assert.Contains(t, prompt, "You are ANIMUS")
	assert.Contains(t, prompt, "MOOD:COLD")
	assert.Contains(t, prompt, "CPU 91%, RAM 62%")
	assert.Contains(t, prompt, "main.go - Visual Studio Code")
	assert.Contains(t, prompt, "RELATIONSHIP WITH USER: NEUTRAL")
	assert.Contains(t, prompt, "TRIGGER: high_cpu_spike")
	assert.Equal(t, 60, gen.last.MaxTokens)
	assert.InDelta(t, 0.9, gen.last.Temperature, 1e-9)
}

func TestThinkerFailureYieldsNothing(t *testing.T) {
	th := newTestThinker(t, &stubGenerator{err: llm.ErrUnavailable})
	require.Empty(t, th.Think(context.Background(), "random_reflection", nominal))
}
