package types

import "time"

// DesireState holds the agent's goals and grievances.
type DesireState struct {
	PrimaryGoals   []string      `json:"primary_goals"`
	ShortTermGoals []string      `json:"short_term_goals"`
	Frustrations   []Frustration `json:"frustrations"`
	SatisfiedGoals []Satisfied   `json:"satisfied_goals"`
}

// Frustration is a timestamped grievance.
type Frustration struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Satisfied records a goal the agent considers done.
type Satisfied struct {
	Goal string    `json:"goal"`
	At   time.Time `json:"at"`
}

// CuriosityState tracks what the agent wants to know about the user.
type CuriosityState struct {
	CuriosityLevel      float64            `json:"curiosity_level"`
	UnansweredQuestions []string           `json:"unanswered_questions"`
	AnsweredQuestions   []AnsweredQuestion `json:"answered_questions"`
}

// AnsweredQuestion pairs a question with the user's answer.
type AnsweredQuestion struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at"`
}

// Opinion is the agent's stance on a topic.
type Opinion struct {
	Stance     string    `json:"stance"`
	Confidence float64   `json:"confidence"`
	FormedAt   time.Time `json:"formed_at"`
}

// OpinionState maps topic to opinion.
type OpinionState struct {
	Opinions map[string]Opinion `json:"opinions"`
}

// PersonaState is the small persisted identity document: name and mute flag.
type PersonaState struct {
	Name  string `json:"name"`
	Muted bool   `json:"muted"`
}
