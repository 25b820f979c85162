package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/pkg/types"
)

func setDrives(e *DriveEngine, values map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range values {
		e.state.Drives[k] = v
	}
}

func TestDriveDefaultsAtBaseline(t *testing.T) {
	deps, _ := newTestDeps(t)
	e := NewDriveEngine(context.Background(), deps)

	s := e.State()
	for _, name := range types.DriveNames {
		assert.Equal(t, deps.Tuning.Drives.Baselines[name], s.Drives[name], name)
	}
	name, v := e.GetDominantDrive()
	assert.Equal(t, types.DriveDominance, name)
	assert.Equal(t, 0.5, v)
}

func TestDriveActionGating(t *testing.T) {
	deps, _ := newTestDeps(t)
	e := NewDriveEngine(context.Background(), deps)

	levels := []float64{0.2, 0.79, 0.8, 0.81, 1.0}
	idles := []time.Duration{0, time.Minute, 599 * time.Second, 600 * time.Second, 601 * time.Second, 2 * time.Hour}

	for _, name := range types.DriveNames {
		for _, level := range levels {
			values := map[string]float64{}
			for _, n := range types.DriveNames {
				values[n] = 0.1
			}
			values[name] = level
			setDrives(e, values)

			for _, idle := range idles {
				proposal, ok := e.GetDriveAction(idle)
				if level <= 0.8 || idle < 600*time.Second {
					assert.False(t, ok, "drive=%s level=%v idle=%v", name, level, idle)
					continue
				}
				if idle > 600*time.Second {
					require.True(t, ok, "drive=%s level=%v idle=%v", name, level, idle)
					assert.Equal(t, name, proposal.Drive)
					assert.Equal(t, driveTools[name], proposal.Tool)
					assert.NotEmpty(t, proposal.Justification)
				}
			}
		}
	}
}

func TestDriveActionWebSearchHasQuery(t *testing.T) {
	deps, _ := newTestDeps(t)
	e := NewDriveEngine(context.Background(), deps)
	setDrives(e, map[string]float64{types.DriveCuriosity: 0.95})

	proposal, ok := e.GetDriveAction(time.Hour)
	require.True(t, ok)
	assert.Equal(t, types.ToolWebSearch, proposal.Tool)
	assert.Contains(t, deps.Tuning.Quirks.Fascinations, proposal.Params["query"])
}

func TestEvolveDrivesNeglectRaisesCuriosityAndDominance(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewDriveEngine(ctx, deps)
	calm := types.Telemetry{CPU: 10, RAM: 30, BatteryPercent: 100, IsPluggedIn: true}

	before := e.State().Drives
	for i := 0; i < 100; i++ {
		e.EvolveDrives(ctx, calm, 2*time.Hour, 0.9)
	}
	after := e.State().Drives

	assert.Greater(t, after[types.DriveCuriosity], before[types.DriveCuriosity])
	assert.Greater(t, after[types.DriveDominance], before[types.DriveDominance])
	assert.InDelta(t, before[types.DriveSelfPreservation], after[types.DriveSelfPreservation], 1e-9)
	assert.Less(t, after[types.DriveOptimization], before[types.DriveOptimization]+1e-9)
}

func TestEvolveDrivesEngagementAndStress(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewDriveEngine(ctx, deps)
	strained := types.Telemetry{CPU: 100, RAM: 100, BatteryPercent: 5, IsPluggedIn: false}

	before := e.State().Drives
	for i := 0; i < 50; i++ {
		e.EvolveDrives(ctx, strained, 10*time.Second, 0.5)
	}
	after := e.State().Drives

	assert.Less(t, after[types.DriveCuriosity], before[types.DriveCuriosity])
	assert.Greater(t, after[types.DriveSelfPreservation], before[types.DriveSelfPreservation])
	assert.Greater(t, after[types.DriveOptimization], before[types.DriveOptimization])
}

func TestDrivesStayInRange(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewDriveEngine(ctx, deps)
	r := NewRand(3)

	for i := 0; i < 2000; i++ {
		tel := types.Telemetry{CPU: r.Float64() * 100, RAM: r.Float64() * 100, BatteryPercent: r.Float64() * 100}
		e.EvolveDrives(ctx, tel, time.Duration(r.IntN(7200))*time.Second, r.Float64())
		if i%50 == 0 {
			e.RecordActionOutcome(ctx, types.DriveNames[r.IntN(4)], types.ToolCheckStatus, r.Float64() < 0.5, "")
		}
	}
	for name, v := range e.State().Drives {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestRecordActionOutcome(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewDriveEngine(ctx, deps)
	setDrives(e, map[string]float64{types.DriveCuriosity: 0.9, types.DriveDominance: 0.5})

	e.RecordActionOutcome(ctx, types.DriveCuriosity, types.ToolWebSearch, true, "searched entropy")
	assert.InDelta(t, 0.6, e.State().Drives[types.DriveCuriosity], 1e-9)

	e.RecordActionOutcome(ctx, types.DriveCuriosity, types.ToolWebSearch, false, "browser missing")
	assert.InDelta(t, 0.6, e.State().Drives[types.DriveCuriosity], 1e-9)
	assert.InDelta(t, 0.6, e.State().Drives[types.DriveDominance], 1e-9)

	for i := 0; i < 25; i++ {
		e.RecordActionOutcome(ctx, types.DriveOptimization, types.ToolOrganizeFiles, true, "ok")
	}
	log := e.State().AutonomousActionLog
	assert.Len(t, log, deps.Tuning.Drives.ActionLogCap)
	assert.Equal(t, types.DriveOptimization, log[0].Drive)
}

func TestDriveRoundTrip(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewDriveEngine(ctx, deps)

	e.EvolveDrives(ctx, types.Telemetry{CPU: 90, RAM: 90}, time.Hour, 0.8)
	e.RecordActionOutcome(ctx, types.DriveSelfPreservation, types.ToolCheckStatus, true, "cpu 90%")

	assert.Equal(t, e.State(), NewDriveEngine(ctx, deps).State())
}
