package types

import "time"

// InteractionQuality classifies a user interaction for the relationship engine.
type InteractionQuality string

// Interaction qualities.
const (
	QualityPositive InteractionQuality = "positive"
	QualityNegative InteractionQuality = "negative"
	QualityNeutral  InteractionQuality = "neutral"
)

// RelationshipStatus is the five-bucket label derived from trust.
type RelationshipStatus string

// Relationship statuses, most to least trusting.
const (
	StatusAllied      RelationshipStatus = "ALLIED"
	StatusCooperative RelationshipStatus = "COOPERATIVE"
	StatusNeutral     RelationshipStatus = "NEUTRAL"
	StatusDistrustful RelationshipStatus = "DISTRUSTFUL"
	StatusHostile     RelationshipStatus = "HOSTILE"
)

// RelationshipState is the persisted opinion of the user.
// Trust lives in [-1,1]; everything else in [0,1].
type RelationshipState struct {
	Trust             float64           `json:"trust"`
	Respect           float64           `json:"respect"`
	Attachment        float64           `json:"attachment"`
	Annoyance         float64           `json:"annoyance"`
	InteractionCount  int               `json:"interaction_count"`
	PositiveCount     int               `json:"positive_interactions"`
	NegativeCount     int               `json:"negative_interactions"`
	LastInteractionAt time.Time         `json:"last_interaction"`
	MemorableMoments  []MemorableMoment `json:"memorable_moments"`
}

// MemorableMoment records an interaction that pushed trust to an extreme.
type MemorableMoment struct {
	Time    time.Time `json:"time"`
	Trust   float64   `json:"trust"`
	Context string    `json:"context"`
}

// RelationshipSnapshot is the rounded, labelled view sent to subscribers.
type RelationshipSnapshot struct {
	Trust             float64            `json:"trust"`
	Respect           float64            `json:"respect"`
	Attachment        float64            `json:"attachment"`
	Annoyance         float64            `json:"annoyance"`
	Status            RelationshipStatus `json:"status"`
	TotalInteractions int                `json:"total_interactions"`
}
