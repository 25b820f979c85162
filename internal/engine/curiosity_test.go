package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCuriosityAnswerLowersLevel(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewCuriosityEngine(ctx, deps)

	assert.InDelta(t, 0.5, e.Level(), 1e-9)
	q, ok := e.RandomQuestion()
	require.True(t, ok)

	assert.True(t, e.Answer(ctx, q, "nothing much"))
	assert.False(t, e.Answer(ctx, q, "again"))
	assert.InDelta(t, 0.4, e.Level(), 1e-9)

	s := e.State()
	assert.Len(t, s.UnansweredQuestions, 4)
	require.Len(t, s.AnsweredQuestions, 1)
	assert.Equal(t, "nothing much", s.AnsweredQuestions[0].Answer)
}

func TestCuriosityLevelClamped(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewCuriosityEngine(ctx, deps)

	for i := 0; i < 30; i++ {
		e.Bump(ctx, 0.05)
	}
	assert.Equal(t, 1.0, e.Level())
	e.Bump(ctx, -5)
	assert.Equal(t, 0.0, e.Level())
}

func TestGenerateUsesTopic(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	deps.Rand = newSeqRand(0.0)
	e := NewCuriosityEngine(ctx, deps)

	q := e.Generate(ctx, "spreadsheets")
	assert.Equal(t, "Why do you spend so much time on spreadsheets?", q)
	e.Generate(ctx, "spreadsheets")
	assert.Len(t, e.State().UnansweredQuestions, 6, "duplicates are not queued")
	assert.Equal(t, e.State(), NewCuriosityEngine(ctx, deps).State())
}
