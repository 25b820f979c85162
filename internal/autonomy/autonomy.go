// Package autonomy runs the background loop that lets the agent speak and act
// without being asked.
//
// Every tick samples telemetry, lets the affect engine drift, walks the
// priority ladder (at most one utterance per tick), evolves the drives and
// hands any proposed action to an ActionExecutor on its own goroutine.
// Collaborator calls (thought generation, hardware) happen outside every
// engine lock and are bounded by the tick timeout.
package autonomy

import (
	"context"
	"time"

	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/pkg/types"
)

// Publisher fans an event out to subscribers. Implementations must not let a
// failing subscriber block the caller.
type Publisher interface {
	Publish(ctx context.Context, ev types.Event)
}

// ActionExecutor applies a drive's proposed action. hardware.Controller
// satisfies it.
type ActionExecutor interface {
	Execute(ctx context.Context, tool types.Tool, params map[string]any) (string, error)
}

// HostProbe is the read-only view of the host the loop consumes.
type HostProbe interface {
	SystemStats(ctx context.Context) types.Telemetry
	ActiveWindowTitle(ctx context.Context) string
}

// Thinker turns a trigger into one short autonomous thought. An empty result
// means the collaborator failed and nothing should be broadcast.
type Thinker interface {
	Think(ctx context.Context, trigger string, tel types.Telemetry) string
}

// Mind is the set of engines the loop reads and mutates.
type Mind struct {
	Affect       *engine.AffectEngine
	Drives       *engine.DriveEngine
	Relationship *engine.RelationshipEngine
	Temporal     *engine.TemporalEngine
	Quirks       *engine.QuirkEngine
	Proactive    *engine.ProactiveEngine
	Reflection   *engine.ReflectionEngine
	Curiosity    *engine.CuriosityEngine
	Monologue    *engine.InternalMonologue
	Repertoire   *engine.Repertoire
	Persona      *engine.PersonaEngine
}

// Triggers reported on broadcast thoughts.
const (
	TriggerDream       = "dreaming"
	TriggerHighCPU     = "high_cpu"
	TriggerLowBattery  = "low_battery"
	TriggerCuriosity   = "curiosity"
	TriggerFollowup    = "followup"
	TriggerExistential = "existential"
	TriggerObservation = "observation"
	TriggerBoredom     = "boredom"
	TriggerLeaked      = "leaked_thought"
	TriggerRandom      = "random"
)

// Thought contexts handed to the Thinker.
const (
	thinkHighCPU    = "high_cpu_spike"
	thinkLowBattery = "low_battery_critical"
	thinkBored      = "bored_and_waiting"
	thinkRandom     = "random_reflection"
)

// Markers are the ladder's cooldown timestamps.
type Markers struct {
	LastThought   time.Time `json:"last_thought"`
	LastDream     time.Time `json:"last_dream"`
	LastCuriosity time.Time `json:"last_curiosity"`
	LastBattery   time.Time `json:"last_battery"`
}

func newMarkers(now time.Time) Markers {
	return Markers{LastThought: now, LastDream: now, LastCuriosity: now, LastBattery: now}
}
