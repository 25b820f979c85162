package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTopicOrdersByUrgencyThenInsertion(t *testing.T) {
	deps, clock := newTestDeps(t)
	ctx := context.Background()
	e := NewProactiveEngine(ctx, deps)

	e.AddFollowup(ctx, "low", "", 0.2)
	e.AddFollowup(ctx, "high-first", "", 0.9)
	e.AddFollowup(ctx, "high-second", "", 0.9)

	var got []string
	for i := 0; i < 3; i++ {
		f, ok := e.NextTopic(ctx)
		require.True(t, ok)
		got = append(got, f.Topic)
		clock.Advance(5 * time.Minute)
	}
	assert.Equal(t, []string{"high-first", "high-second", "low"}, got)

	_, ok := e.NextTopic(ctx)
	assert.False(t, ok, "everything consumed")
}

func TestNextTopicRespectsCooldown(t *testing.T) {
	deps, clock := newTestDeps(t)
	ctx := context.Background()
	e := NewProactiveEngine(ctx, deps)

	e.AddFollowup(ctx, "a", "", 0.5)
	e.AddFollowup(ctx, "b", "", 0.5)

	_, ok := e.NextTopic(ctx)
	require.True(t, ok)
	assert.False(t, e.CanSpeak())

	clock.Advance(299 * time.Second)
	_, ok = e.NextTopic(ctx)
	assert.False(t, ok)

	clock.Advance(time.Second)
	f, ok := e.NextTopic(ctx)
	require.True(t, ok)
	assert.Equal(t, "b", f.Topic)
}

func TestExtractHooks(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewProactiveEngine(ctx, deps)

	assert.Empty(t, e.ExtractHooks(ctx, "nice weather"))

	msg := "I have an interview tomorrow and I'm " + strings.Repeat("very ", 30) + "nervous"
	keywords := e.ExtractHooks(ctx, msg)
	assert.ElementsMatch(t, []string{"tomorrow", "interview"}, keywords)

	s := e.State()
	require.Len(t, s.ConversationHooks, 2)
	assert.Len(t, []rune(s.ConversationHooks[0].OriginalMessageSnippet), 80)
	require.Len(t, s.PendingFollowups, 2)

	f, ok := e.NextTopic(ctx)
	require.True(t, ok)
	assert.Equal(t, "how their interview went", f.Topic)
	assert.Contains(t, e.PromptLine(), "interview")
}

func TestProactiveCaps(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewProactiveEngine(ctx, deps)

	for i := 0; i < 20; i++ {
		e.ExtractHooks(ctx, "working on it")
	}
	s := e.State()
	assert.Len(t, s.ConversationHooks, 15)
	assert.Len(t, s.PendingFollowups, 10)
	assert.Equal(t, 19, s.PendingFollowups[9].Seq)
}

func TestFollowupCapEvictsConsumedFirst(t *testing.T) {
	deps, clock := newTestDeps(t)
	ctx := context.Background()
	e := NewProactiveEngine(ctx, deps)

	e.AddFollowup(ctx, "keep-me", "", 0.1)
	e.AddFollowup(ctx, "consumed", "", 0.9)
	_, ok := e.NextTopic(ctx)
	require.True(t, ok)
	clock.Advance(time.Hour)

	for i := 0; i < 9; i++ {
		e.AddFollowup(ctx, "filler", "", 0.5)
	}
	s := e.State()
	require.Len(t, s.PendingFollowups, 10)
	assert.Equal(t, "keep-me", s.PendingFollowups[0].Topic)
	for _, f := range s.PendingFollowups {
		assert.NotEqual(t, "consumed", f.Topic)
	}
}

func TestProactiveRoundTrip(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewProactiveEngine(ctx, deps)
	e.ExtractHooks(ctx, "deadline next week")
	_, _ = e.NextTopic(ctx)

	reloaded := NewProactiveEngine(ctx, deps)
	assert.Equal(t, e.State(), reloaded.State())
	assert.False(t, reloaded.CanSpeak())
}
