package types

import "time"

// EventType identifies the kind of broadcast event.
type EventType string

// Event types published to subscribers.
const (
	EventThought EventType = "thought"
	EventChat    EventType = "chat"
	EventAction  EventType = "autonomous_action"
	EventState   EventType = "state"
	EventMute    EventType = "mute"

	// Autonomous utterances that are not plain thoughts.
	EventDream         EventType = "dream"
	EventQuestion      EventType = "question"
	EventContemplation EventType = "contemplation"
	EventObservation   EventType = "observation"
	EventInternal      EventType = "internal"
)

// Event is the broadcast envelope sent to every subscriber.
type Event struct {
	ID           string                `json:"id"`
	Type         EventType             `json:"type"`
	Text         string                `json:"text,omitempty"`
	Mood         MoodLabel             `json:"mood"`
	Trigger      string                `json:"trigger,omitempty"`
	Stats        *Telemetry            `json:"stats,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
	Relationship *RelationshipSnapshot `json:"relationship,omitempty"`
	Drives       map[string]float64    `json:"drives,omitempty"`
	Muted        bool                  `json:"muted,omitempty"`
}
