package types

import "time"

// ProactiveState tracks conversation hooks and pending follow-ups.
type ProactiveState struct {
	PendingFollowups       []Followup         `json:"pending_followups"`
	ConversationHooks      []ConversationHook `json:"conversation_hooks"`
	LastProactiveMessageAt time.Time          `json:"last_proactive_message_at"`
	CooldownSeconds        int                `json:"cooldown_seconds"`
	// NextSeq orders followups by insertion for stable tie-breaking.
	NextSeq int `json:"next_seq"`
}

// Followup is a topic the agent intends to return to.
type Followup struct {
	Seq        int       `json:"seq"`
	Topic      string    `json:"topic"`
	Context    string    `json:"context"`
	AddedAt    time.Time `json:"added_at"`
	Urgency    float64   `json:"urgency"`
	FollowedUp bool      `json:"followed_up"`
}

// ConversationHook is a snippet of something the user said worth revisiting.
type ConversationHook struct {
	Hook                   string    `json:"hook"`
	OriginalMessageSnippet string    `json:"original_message_snippet"`
	AddedAt                time.Time `json:"added_at"`
}
