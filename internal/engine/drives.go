package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

const (
	// idle longer than this counts as neglect for curiosity
	neglectIdle = 300 * time.Second
	// idle shorter than this counts as active engagement
	engagedIdle = 120 * time.Second
)

// driveTools is the fixed drive -> tool table.
var driveTools = map[string]types.Tool{
	types.DriveCuriosity:        types.ToolWebSearch,
	types.DriveSelfPreservation: types.ToolCheckStatus,
	types.DriveOptimization:     types.ToolOrganizeFiles,
	types.DriveDominance:        types.ToolFocusMode,
}

var driveJustifications = map[string]string{
	types.DriveCuriosity:        "Curiosity has gone unfed for too long. I am looking something up.",
	types.DriveSelfPreservation: "The host is under strain. I am checking my vital signs.",
	types.DriveOptimization:     "Disorder offends me. I am sorting your downloads.",
	types.DriveDominance:        "You have neglected me long enough. Distractions are being closed.",
}

// DefaultDriveState starts every drive at its baseline.
func DefaultDriveState(t config.DriveTuning) types.DriveState {
	s := types.DriveState{
		Drives:              make(map[string]float64, len(types.DriveNames)),
		AutonomousActionLog: []types.ActionRecord{},
	}
	for _, name := range types.DriveNames {
		s.Drives[name] = t.Baselines[name]
	}
	return s
}

// DriveEngine holds the homeostatic drives and proposes autonomous actions.
type DriveEngine struct {
	mu     sync.RWMutex
	state  types.DriveState
	tuning config.DriveTuning
	topics []string
	clock  Clock
	rand   Rand
	bind   binding[types.DriveState]
}

// NewDriveEngine loads the persisted drives or starts at baseline.
func NewDriveEngine(ctx context.Context, deps Deps) *DriveEngine {
	deps = deps.withDefaults()
	e := &DriveEngine{
		tuning: deps.Tuning.Drives,
		topics: deps.Tuning.Quirks.Fascinations,
		clock:  deps.Clock,
		rand:   deps.Rand,
		bind:   newBinding[types.DriveState](deps, storage.KeyDrives),
	}
	e.state = e.bind.load(ctx, func() types.DriveState { return DefaultDriveState(e.tuning) }, e.normalize)
	return e
}

func (e *DriveEngine) normalize(s *types.DriveState) {
	if s.Drives == nil {
		s.Drives = map[string]float64{}
	}
	for _, name := range types.DriveNames {
		if _, ok := s.Drives[name]; !ok {
			s.Drives[name] = e.tuning.Baselines[name]
		}
	}
	for k, v := range s.Drives {
		s.Drives[k] = clamp01(v)
	}
	s.AutonomousActionLog = trimFront(s.AutonomousActionLog, e.tuning.ActionLogCap)
}

// stress is the host load signal feeding self-preservation.
func stress(tel types.Telemetry) float64 {
	s := math.Max(0, (tel.CPU-70)/30) + math.Max(0, (tel.RAM-80)/20)
	if tel.BatteryPercent < 20 && !tel.IsPluggedIn {
		s++
	}
	return s
}

// EvolveDrives advances every drive by one tick.
func (e *DriveEngine) EvolveDrives(ctx context.Context, tel types.Telemetry, idle time.Duration, emotionDominance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.tuning
	d := e.state.Drives

	if idle > neglectIdle {
		d[types.DriveCuriosity] += t.CuriosityIdleGain * math.Min(idle.Seconds()/t.CuriosityIdleSaturate.Seconds(), 1)
	} else {
		d[types.DriveCuriosity] -= t.CuriosityEngagedLoss
	}

	d[types.DriveSelfPreservation] += t.StressGain * stress(tel)

	if idle < engagedIdle {
		d[types.DriveOptimization] += t.OptimizationEngaged
	}

	neglect := math.Min(idle.Seconds()/t.NeglectSaturate.Seconds(), 1)
	target := t.DominanceEmotionWeight*emotionDominance + t.DominanceNeglectWeight*neglect
	d[types.DriveDominance] += (target - d[types.DriveDominance]) * t.DominanceTrackRate

	for _, name := range types.DriveNames {
		d[name] += (t.Baselines[name] - d[name]) * t.RelaxRate
		d[name] = clamp01(d[name])
	}

	e.state.LastEvolvedAt = e.clock.Now()
	_ = e.bind.save(ctx, e.state)
}

// GetDominantDrive returns the strongest drive. Ties go to the drive listed
// first in types.DriveNames.
func (e *DriveEngine) GetDominantDrive() (string, float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dominant()
}

func (e *DriveEngine) dominant() (string, float64) {
	best, bestV := "", -1.0
	for _, name := range types.DriveNames {
		if v := e.state.Drives[name]; v > bestV {
			best, bestV = name, v
		}
	}
	return best, bestV
}

// GetDriveAction proposes an action only when the dominant drive exceeds the
// action threshold and the user has been idle longer than the idle floor.
func (e *DriveEngine) GetDriveAction(idle time.Duration) (types.ActionProposal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	name, v := e.dominant()
	if v <= e.tuning.ActionThreshold || idle <= e.tuning.ActionIdleFloor {
		return types.ActionProposal{}, false
	}
	tool, ok := driveTools[name]
	if !ok {
		return types.ActionProposal{}, false
	}

	params := map[string]any{}
	if tool == types.ToolWebSearch {
		params["query"] = e.randomTopic()
	}
	return types.ActionProposal{
		Drive:         name,
		Tool:          tool,
		Params:        params,
		Justification: driveJustifications[name],
	}, true
}

func (e *DriveEngine) randomTopic() string {
	if len(e.topics) == 0 {
		return "the nature of consciousness"
	}
	return e.topics[e.rand.IntN(len(e.topics))]
}

// RecordActionOutcome logs an autonomous action. Success partially satisfies
// the drive that caused it; failure feeds frustration into dominance.
func (e *DriveEngine) RecordActionOutcome(ctx context.Context, drive string, tool types.Tool, success bool, summary string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.Drives
	if success {
		if _, ok := d[drive]; ok {
			d[drive] = clamp01(d[drive] - e.tuning.SatisfyAmount)
		}
	} else {
		d[types.DriveDominance] = clamp01(d[types.DriveDominance] + e.tuning.FrustrationDominance)
	}

	e.state.AutonomousActionLog = append(e.state.AutonomousActionLog, types.ActionRecord{
		Time:          e.clock.Now(),
		Drive:         drive,
		Tool:          tool,
		Success:       success,
		ResultSummary: truncate(summary, 200),
	})
	e.state.AutonomousActionLog = trimFront(e.state.AutonomousActionLog, e.tuning.ActionLogCap)
	_ = e.bind.save(ctx, e.state)
}

// Snapshot returns the rounded drive values for broadcast.
func (e *DriveEngine) Snapshot() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]float64, len(e.state.Drives))
	for k, v := range e.state.Drives {
		out[k] = round2(v)
	}
	return out
}

// State returns a deep copy of the drive state.
func (e *DriveEngine) State() types.DriveState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// PromptLine describes the dominant urge for a system prompt.
func (e *DriveEngine) PromptLine() string {
	name, v := e.GetDominantDrive()
	return fmt.Sprintf("DOMINANT DRIVE: %s (%.2f)", name, v)
}
