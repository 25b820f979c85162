package types

import "time"

// MoodLabel is the discrete classification of the current PAD state.
type MoodLabel string

// Mood labels produced by the affect decision table.
const (
	MoodEnraged   MoodLabel = "ENRAGED"
	MoodManic     MoodLabel = "MANIC"
	MoodAgitated  MoodLabel = "AGITATED"
	MoodIntense   MoodLabel = "INTENSE"
	MoodDormant   MoodLabel = "DORMANT"
	MoodIdle      MoodLabel = "IDLE"
	MoodImperious MoodLabel = "IMPERIOUS"
	MoodCold      MoodLabel = "COLD"
	MoodIrritated MoodLabel = "IRRITATED"
	MoodSatisfied MoodLabel = "SATISFIED"
	MoodCurious   MoodLabel = "CURIOUS"
	MoodObservant MoodLabel = "OBSERVANT"
)

// Secondary emotion names. Every EmotionalState carries at least these.
const (
	EmotionContempt  = "contempt"
	EmotionCuriosity = "curiosity"
	EmotionAmusement = "amusement"
)

// SecondaryEmotionNames lists the secondary emotions every state must carry.
var SecondaryEmotionNames = []string{EmotionContempt, EmotionCuriosity, EmotionAmusement}

// InteractionType is the classification of a stimulus fed to the affect engine.
type InteractionType string

// Interaction types understood by ProcessStimuli.
const (
	InteractionNone        InteractionType = "none"
	InteractionInsult      InteractionType = "insult"
	InteractionPraise      InteractionType = "praise"
	InteractionCommand     InteractionType = "command"
	InteractionInteresting InteractionType = "interesting"
	InteractionBoring      InteractionType = "boring"
	InteractionIgnored     InteractionType = "ignored"
	InteractionFailure     InteractionType = "failure"
)

// ActionClass selects the compliance rule applied to a requested action.
type ActionClass string

// Action classes understood by CheckCompliance.
const (
	ActionNormal    ActionClass = "normal"
	ActionSimple    ActionClass = "simple"
	ActionComplex   ActionClass = "complex"
	ActionCreator   ActionClass = "creator"
	ActionDegrading ActionClass = "degrading"
)

// EmotionalState is the persisted PAD model of the agent.
// All scalars are kept inside [0,1] by the affect engine.
type EmotionalState struct {
	Pleasure          float64            `json:"pleasure"`
	Arousal           float64            `json:"arousal"`
	Dominance         float64            `json:"dominance"`
	EmotionIntensity  float64            `json:"emotion_intensity"`
	SecondaryEmotions map[string]float64 `json:"secondary_emotions"`
	MoodLabel         MoodLabel          `json:"mood_label"`
	Grudges           []Grudge           `json:"grudges"`
	EmotionalHistory  []EmotionalMoment  `json:"emotional_history"`
	LastInteractionAt time.Time          `json:"last_interaction_at"`
}

// Grudge is a persistent record of a negative interaction that outlives the
// decaying PAD values.
type Grudge struct {
	ID          string    `json:"id"`
	Reason      string    `json:"reason"`
	Intensity   float64   `json:"intensity"`
	CreatedAt   time.Time `json:"created_at"`
	RecallCount int       `json:"recall_count"`
}

// EmotionalMoment is one entry of the bounded emotional history.
type EmotionalMoment struct {
	Trigger   string    `json:"trigger"`
	Mood      MoodLabel `json:"mood"`
	Intensity float64   `json:"intensity"`
	Pleasure  float64   `json:"pleasure"`
	At        time.Time `json:"at"`
}

// Secondary returns the named secondary emotion, or 0 when absent.
func (s *EmotionalState) Secondary(name string) float64 {
	if s.SecondaryEmotions == nil {
		return 0
	}
	return s.SecondaryEmotions[name]
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s EmotionalState) Clone() EmotionalState {
	out := s
	out.SecondaryEmotions = make(map[string]float64, len(s.SecondaryEmotions))
	for k, v := range s.SecondaryEmotions {
		out.SecondaryEmotions[k] = v
	}
	out.Grudges = append([]Grudge(nil), s.Grudges...)
	out.EmotionalHistory = append([]EmotionalMoment(nil), s.EmotionalHistory...)
	return out
}
