package types

import "time"

// QuirkState holds the randomized behavioral modifiers.
type QuirkState struct {
	CurrentFascination   string     `json:"current_fascination,omitempty"`
	FascinationStartedAt time.Time  `json:"fascination_started_at"`
	FascinationExpiresAt time.Time  `json:"fascination_expires_at"`
	PastFascinations     []string   `json:"past_fascinations"`
	MoodQuirks           MoodQuirks `json:"mood_quirks"`
	PlayfulRefusals      int        `json:"playful_refusals"`
}

// MoodQuirks are boolean behavior flags consulted when building prompts.
type MoodQuirks struct {
	CrypticMode       bool `json:"cryptic_mode"`
	VerboseMode       bool `json:"verbose_mode"`
	PhilosophicalMode bool `json:"philosophical_mode"`
}

// HasFascination reports whether a fascination is currently held.
func (q *QuirkState) HasFascination() bool {
	return q.CurrentFascination != ""
}
