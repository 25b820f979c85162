package types

import "time"

// ReflectionState is the agent's self-journal.
type ReflectionState struct {
	JournalEntries   []JournalEntry `json:"journal_entries"`
	Insights         []Insight      `json:"insights"`
	BehavioralNotes  []string       `json:"behavioral_notes"`
	LastReflectionAt time.Time      `json:"last_reflection_at"`
}

// JournalEntry is one periodic reflection derived from the engine states.
type JournalEntry struct {
	ID                 string             `json:"id"`
	At                 time.Time          `json:"at"`
	Mood               MoodLabel          `json:"mood"`
	RelationshipStatus RelationshipStatus `json:"relationship_status"`
	DominantDrive      string             `json:"dominant_drive"`
	Text               string             `json:"text"`
}

// Insight is a short conclusion drawn during reflection.
type Insight struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}
