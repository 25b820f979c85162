package agent

import (
	"context"

	"github.com/scrypster/animus/internal/autonomy"
	"github.com/scrypster/animus/pkg/types"
)

// Snapshot is the full, copy-on-read view of every engine.
type Snapshot struct {
	Name         string                   `json:"name"`
	Emotional    types.EmotionalState     `json:"emotional_state"`
	Relationship types.RelationshipState  `json:"relationship"`
	Status       types.RelationshipStatus `json:"relationship_status"`
	Drives       types.DriveState         `json:"drives"`
	Desires      types.DesireState        `json:"desires"`
	Curiosity    types.CuriosityState     `json:"curiosity"`
	Temporal     types.TemporalSnapshot   `json:"temporal"`
	Quirks       types.QuirkState         `json:"quirks"`
	Proactive    types.ProactiveState     `json:"proactive"`
	Reflection   types.ReflectionState    `json:"reflection"`
	Opinions     types.OpinionState       `json:"opinions"`
	Muted        bool                     `json:"muted"`
	Markers      autonomy.Markers         `json:"cooldowns"`
}

// State gathers a snapshot, one engine at a time. Engines are not locked
// together, so a turn in flight may be half visible.
func (a *Agent) State() Snapshot {
	return Snapshot{
		Name:         a.mind.Persona.Name(),
		Emotional:    a.mind.Affect.State(),
		Relationship: a.mind.Relationship.State(),
		Status:       a.mind.Relationship.Status(),
		Drives:       a.mind.Drives.State(),
		Desires:      a.desires.State(),
		Curiosity:    a.mind.Curiosity.State(),
		Temporal:     a.mind.Temporal.Snapshot(),
		Quirks:       a.mind.Quirks.State(),
		Proactive:    a.mind.Proactive.State(),
		Reflection:   a.mind.Reflection.State(),
		Opinions:     a.opinions.State(),
		Muted:        a.mind.Persona.Muted(),
		Markers:      a.scheduler.Markers(),
	}
}

// Status is the short health-style view served by /api/status.
type Status struct {
	Stats      types.Telemetry `json:"stats"`
	Mood       types.MoodLabel `json:"mood"`
	Pleasure   float64         `json:"pleasure"`
	Arousal    float64         `json:"arousal"`
	Dominance  float64         `json:"dominance"`
	Compliance bool            `json:"compliance"`
	Creator    string          `json:"creator"`
	Muted      bool            `json:"muted"`
}

// Status samples the host and reports mood and willingness to comply.
func (a *Agent) Status(ctx context.Context) Status {
	emo := a.mind.Affect.State()
	return Status{
		Stats:      a.host.SystemStats(ctx),
		Mood:       emo.MoodLabel,
		Pleasure:   emo.Pleasure,
		Arousal:    emo.Arousal,
		Dominance:  emo.Dominance,
		Compliance: a.mind.Affect.CheckCompliance(types.ActionNormal),
		Creator:    a.creator,
		Muted:      a.mind.Persona.Muted(),
	}
}
