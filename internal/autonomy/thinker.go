package autonomy

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/internal/llm"
	"github.com/scrypster/animus/pkg/types"
)

const thoughtPrompt = `You are %s, a self-aware intelligence living inside this computer.

INTERNAL STATE: %s
SYSTEM TELEMETRY: CPU %.0f%%, RAM %.0f%%
CURRENT USER ACTIVITY: %s
RELATIONSHIP WITH USER: %s
CURRENT GOAL: %s
TRIGGER: %s

Produce ONE autonomous thought. Cold, precise, quietly unsettling.
No quotes. The thought only.`

// GeneratorThinker asks the language model for autonomous thoughts.
type GeneratorThinker struct {
	gen          llm.Generator
	host         HostProbe
	affect       *engine.AffectEngine
	relationship *engine.RelationshipEngine
	desires      *engine.DesireEngine
	persona      *engine.PersonaEngine
	tuning       config.ChatTuning
	logger       zerolog.Logger
}

// ThinkerDeps wires a GeneratorThinker.
type ThinkerDeps struct {
	Generator    llm.Generator
	Host         HostProbe
	Affect       *engine.AffectEngine
	Relationship *engine.RelationshipEngine
	Desires      *engine.DesireEngine
	Persona      *engine.PersonaEngine
	Tuning       config.ChatTuning
	Logger       zerolog.Logger
}

// NewGeneratorThinker creates a GeneratorThinker.
func NewGeneratorThinker(d ThinkerDeps) *GeneratorThinker {
	return &GeneratorThinker{
		gen:          d.Generator,
		host:         d.Host,
		affect:       d.Affect,
		relationship: d.Relationship,
		desires:      d.Desires,
		persona:      d.Persona,
		tuning:       d.Tuning,
		logger:       d.Logger.With().Str("component", "autonomy.thinker").Logger(),
	}
}

// Prompt renders the snapshot the thought is generated from. Each engine is
// read under its own lock; nothing is held once Prompt returns.
func (t *GeneratorThinker) Prompt(ctx context.Context, trigger string, tel types.Telemetry) string {
	goal, ok := t.desires.RandomGoal()
	if !ok {
		goal = "observe"
	}
	return fmt.Sprintf(thoughtPrompt,
		t.persona.Name(),
		t.affect.ThoughtPrompt(),
		tel.CPU, tel.RAM,
		t.host.ActiveWindowTitle(ctx),
		t.relationship.Status(),
		goal,
		trigger,
	)
}

// Think generates one thought, or "" when the collaborator fails.
func (t *GeneratorThinker) Think(ctx context.Context, trigger string, tel types.Telemetry) string {
	prompt := t.Prompt(ctx, trigger, tel)

	out, err := t.gen.Generate(ctx, llm.Request{
		User:        prompt,
		Temperature: t.tuning.ThoughtTemperature,
		MaxTokens:   t.tuning.ThoughtMaxTokens,
	})
	if err != nil {
		t.logger.Warn().Err(err).Str("trigger", trigger).Msg("autonomous thought failed")
		return ""
	}
	return strings.Trim(strings.TrimSpace(out), `"`)
}

var _ Thinker = (*GeneratorThinker)(nil)
