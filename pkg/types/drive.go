package types

import "time"

// Drive names tracked by the drive engine.
const (
	DriveCuriosity        = "curiosity"
	DriveSelfPreservation = "self_preservation"
	DriveOptimization     = "optimization"
	DriveDominance        = "dominance"
)

// DriveNames lists every drive in a stable order. Ties in GetDominantDrive
// resolve to the earlier entry.
var DriveNames = []string{DriveCuriosity, DriveSelfPreservation, DriveOptimization, DriveDominance}

// DriveState is the persisted motivational state.
type DriveState struct {
	Drives              map[string]float64 `json:"drives"`
	AutonomousActionLog []ActionRecord     `json:"autonomous_action_log"`
	LastEvolvedAt       time.Time          `json:"last_evolved_at"`
}

// ActionRecord is the outcome of one autonomous action.
type ActionRecord struct {
	Time          time.Time `json:"time"`
	Drive         string    `json:"drive"`
	Tool          Tool      `json:"tool"`
	Success       bool      `json:"success"`
	ResultSummary string    `json:"result_summary"`
}

// ActionProposal is the (tool, params, justification) triple the drive engine
// emits. The core never executes it; an external executor does.
type ActionProposal struct {
	Drive         string         `json:"drive"`
	Tool          Tool           `json:"tool"`
	Params        map[string]any `json:"params"`
	Justification string         `json:"justification"`
}

// Clone returns a deep copy.
func (s DriveState) Clone() DriveState {
	out := s
	out.Drives = make(map[string]float64, len(s.Drives))
	for k, v := range s.Drives {
		out.Drives[k] = v
	}
	out.AutonomousActionLog = append([]ActionRecord(nil), s.AutonomousActionLog...)
	return out
}
