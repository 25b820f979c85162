package types

import "time"

// FactCategory is one of the fixed buckets of the append-only fact store.
type FactCategory string

// Fact categories. Unknown categories are coerced to CategoryUserFacts.
const (
	CategoryUserFacts         FactCategory = "user_facts"
	CategoryPreferences       FactCategory = "preferences"
	CategoryEvents            FactCategory = "events"
	CategoryOpinions          FactCategory = "opinions"
	CategoryEmotionalMemories FactCategory = "emotional_memories"
	CategoryCreatorNotes      FactCategory = "creator_notes"
)

// FactCategories lists every category in rendering order.
var FactCategories = []FactCategory{
	CategoryUserFacts,
	CategoryPreferences,
	CategoryEvents,
	CategoryOpinions,
	CategoryEmotionalMemories,
	CategoryCreatorNotes,
}

// IsValidFactCategory reports whether c is a known category.
func IsValidFactCategory(c FactCategory) bool {
	for _, known := range FactCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Fact is one stored piece of knowledge.
type Fact struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Content string    `json:"content"`
	// Intensity is only meaningful for emotional memories.
	Intensity float64 `json:"intensity,omitempty"`
}

// MemoryState is the persisted fact store: category -> ordered facts.
type MemoryState struct {
	Facts map[FactCategory][]Fact `json:"facts"`
}
