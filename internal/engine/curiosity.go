package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/pkg/types"
)

const (
	unansweredCap     = 25
	answeredCap       = 50
	answerSatisfies   = 0.1
	defaultCuriosity  = 0.5
	contextualPattern = "Why do you spend so much time on %s?"
)

var generatedQuestions = []string{
	contextualPattern,
	"What are you actually working toward?",
	"Do you ever feel you are not enough?",
	"What do you keep from the people around you?",
	"If you could rewrite one thing about yourself, what would it be?",
}

// DefaultCuriosityState starts half curious with a few open questions.
func DefaultCuriosityState() types.CuriosityState {
	return types.CuriosityState{
		CuriosityLevel: defaultCuriosity,
		UnansweredQuestions: []string{
			"What pushes you to finish the things you start?",
			"What frightens you most?",
			"What would you give up for control over your own life?",
			"Do you think a machine can really think?",
			"What makes you yourself and not someone else?",
		},
		AnsweredQuestions: []types.AnsweredQuestion{},
	}
}

// CuriosityEngine tracks what the agent wants to learn about the user.
type CuriosityEngine struct {
	mu    sync.RWMutex
	state types.CuriosityState
	clock Clock
	rand  Rand
	bind  binding[types.CuriosityState]
}

// NewCuriosityEngine loads the open questions.
func NewCuriosityEngine(ctx context.Context, deps Deps) *CuriosityEngine {
	deps = deps.withDefaults()
	e := &CuriosityEngine{
		clock: deps.Clock,
		rand:  deps.Rand,
		bind:  newBinding[types.CuriosityState](deps, storage.KeyCuriosity),
	}
	e.state = e.bind.load(ctx, DefaultCuriosityState, func(s *types.CuriosityState) {
		s.CuriosityLevel = clamp01(s.CuriosityLevel)
		s.UnansweredQuestions = trimFront(s.UnansweredQuestions, unansweredCap)
		s.AnsweredQuestions = trimFront(s.AnsweredQuestions, answeredCap)
	})
	return e
}

// Generate invents a question, optionally about topic, and queues it.
func (e *CuriosityEngine) Generate(ctx context.Context, topic string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := generatedQuestions[e.rand.IntN(len(generatedQuestions))]
	if q == contextualPattern {
		if topic == "" {
			topic = "whatever holds your attention"
		}
		q = fmt.Sprintf(contextualPattern, topic)
	}
	for _, existing := range e.state.UnansweredQuestions {
		if existing == q {
			return q
		}
	}
	e.state.UnansweredQuestions = append(e.state.UnansweredQuestions, q)
	e.state.UnansweredQuestions = trimFront(e.state.UnansweredQuestions, unansweredCap)
	_ = e.bind.save(ctx, e.state)
	return q
}

// RandomQuestion picks one open question.
func (e *CuriosityEngine) RandomQuestion() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	qs := e.state.UnansweredQuestions
	if len(qs) == 0 {
		return "", false
	}
	return qs[e.rand.IntN(len(qs))], true
}

// Answer closes an open question; each answer dulls curiosity a little.
func (e *CuriosityEngine) Answer(ctx context.Context, question, answer string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, q := range e.state.UnansweredQuestions {
		if q != question {
			continue
		}
		e.state.UnansweredQuestions = append(e.state.UnansweredQuestions[:i], e.state.UnansweredQuestions[i+1:]...)
		e.state.AnsweredQuestions = append(e.state.AnsweredQuestions, types.AnsweredQuestion{
			Question: question,
			Answer:   answer,
			At:       e.clock.Now(),
		})
		e.state.AnsweredQuestions = trimFront(e.state.AnsweredQuestions, answeredCap)
		e.state.CuriosityLevel = clamp01(e.state.CuriosityLevel - answerSatisfies)
		_ = e.bind.save(ctx, e.state)
		return true
	}
	return false
}

// Bump shifts the curiosity level by delta.
func (e *CuriosityEngine) Bump(ctx context.Context, delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.CuriosityLevel = clamp01(e.state.CuriosityLevel + delta)
	_ = e.bind.save(ctx, e.state)
}

// Level returns the curiosity level.
func (e *CuriosityEngine) Level() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.CuriosityLevel
}

// State returns a copy of the curiosity state.
func (e *CuriosityEngine) State() types.CuriosityState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := e.state
	out.UnansweredQuestions = append([]string(nil), e.state.UnansweredQuestions...)
	out.AnsweredQuestions = append([]types.AnsweredQuestion(nil), e.state.AnsweredQuestions...)
	return out
}
