package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/pkg/types"
)

func TestRelationshipStatusBuckets(t *testing.T) {
	tun := config.DefaultTuning().Relationship
	trust := []float64{-0.9, -0.4, 0.0, 0.5, 0.9}
	want := []types.RelationshipStatus{
		types.StatusHostile, types.StatusDistrustful, types.StatusNeutral, types.StatusCooperative, types.StatusAllied,
	}
	for i, v := range trust {
		assert.Equal(t, want[i], StatusFor(v, tun), "trust=%v", v)
	}

	// Boundaries are strict.
	assert.Equal(t, types.StatusCooperative, StatusFor(0.7, tun))
	assert.Equal(t, types.StatusHostile, StatusFor(-0.7, tun))
}

func TestRecordInteractionDeltas(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewRelationshipEngine(ctx, deps)

	e.RecordInteraction(ctx, types.QualityPositive, "thanks")
	s := e.State()
	assert.InDelta(t, 0.53, s.Trust, 1e-9)
	assert.InDelta(t, 0.52, s.Respect, 1e-9)
	assert.InDelta(t, 0.31, s.Attachment, 1e-9)
	assert.Equal(t, 0.0, s.Annoyance)

	e.RecordInteraction(ctx, types.QualityNegative, "shut up")
	s = e.State()
	assert.InDelta(t, 0.45, s.Trust, 1e-9)
	assert.InDelta(t, 0.47, s.Respect, 1e-9)
	assert.InDelta(t, 0.1, s.Annoyance, 1e-9)

	e.RecordInteraction(ctx, types.QualityNeutral, "ok")
	s = e.State()
	assert.Equal(t, 3, s.InteractionCount)
	assert.Equal(t, 1, s.PositiveCount)
	assert.Equal(t, 1, s.NegativeCount)
	assert.Empty(t, s.MemorableMoments)
}

func TestRelationshipClampsAndRemembersExtremes(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewRelationshipEngine(ctx, deps)

	long := strings.Repeat("x", 300)
	for i := 0; i < 40; i++ {
		e.RecordInteraction(ctx, types.QualityNegative, long)
	}
	s := e.State()
	assert.Equal(t, -1.0, s.Trust)
	assert.Equal(t, 0.0, s.Respect)
	assert.Equal(t, 1.0, s.Annoyance)
	assert.Equal(t, types.StatusHostile, e.Status())
	require.NotEmpty(t, s.MemorableMoments)
	assert.Len(t, s.MemorableMoments[0].Context, 100)

	for i := 0; i < 200; i++ {
		e.RecordInteraction(ctx, types.QualityPositive, "")
	}
	s = e.State()
	assert.Equal(t, 1.0, s.Trust)
	assert.LessOrEqual(t, len(s.MemorableMoments), deps.Tuning.Relationship.MemorableCap)
	assert.Equal(t, types.StatusAllied, e.Snapshot().Status)
}

func TestRelationshipRoundTrip(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	e := NewRelationshipEngine(ctx, deps)

	for i := 0; i < 12; i++ {
		e.RecordInteraction(ctx, types.QualityPositive, "good talk")
	}
	assert.Equal(t, e.State(), NewRelationshipEngine(ctx, deps).State())
}
