package service

import (
	"context"
	"testing"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMemoryService(st *domain.Store) *MemoryService {
	retriever := NewRetriever(st, nil, zap.NewNop(), defaultWeights(), 30*24*time.Hour)
	return NewMemoryService(st, retriever, zap.NewNop(), 1.0)
}

func TestAppendEpisodeValidatesKind(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))

	_, err := svc.AppendEpisode(context.Background(), "daydream", domain.EpisodePayload{Text: "hm"}, 1.0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAppendEpisodeRejectsEmptyPayload(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))

	_, err := svc.AppendEpisode(context.Background(), domain.EpisodeObservation, domain.EpisodePayload{Text: "   "}, 1.0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAppendEpisodeDefaultsSalienceAndOutcome(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))

	e, err := svc.AppendEpisode(context.Background(), domain.EpisodeAction,
		domain.EpisodePayload{SkillName: "deploy"}, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), e.Salience)
	assert.Equal(t, domain.OutcomeUnknown, e.Payload.Outcome)
	assert.NotEmpty(t, e.ContentHash)
}

func TestUpdateGoalProgress(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, "collect deployment metrics", 3)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalActive, g.Status)

	g, err = svc.UpdateGoalProgress(ctx, g.ID, 0.4, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, g.Progress, 0.001)

	_, err = svc.UpdateGoalProgress(ctx, g.ID, 1.5, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateGoalProgressTerminalStatusIsFinal(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, "collect deployment metrics", 3)
	require.NoError(t, err)

	_, err = svc.UpdateGoalProgress(ctx, g.ID, 1.0, domain.GoalCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateGoalProgress(ctx, g.ID, 0.5, domain.GoalActive)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateGoalProgressUnknownGoal(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))

	_, err := svc.UpdateGoalProgress(context.Background(), uuid.New(), 0.5, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterHypothesisValidatesEvidence(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))

	_, err := svc.RegisterHypothesis(context.Background(),
		"deploys are slower on fridays", "compare deploy timings", 0.5, []int64{999})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolveHypothesisIsFinal(t *testing.T) {
	svc := newTestMemoryService(openTestStore(t))
	ctx := context.Background()

	h, err := svc.RegisterHypothesis(ctx, "deploys are slower on fridays", "compare deploy timings", 0.5, nil)
	require.NoError(t, err)

	_, err = svc.ResolveHypothesis(ctx, h.ID, domain.HypothesisOpen)
	assert.ErrorIs(t, err, domain.ErrValidation)

	h, err = svc.ResolveHypothesis(ctx, h.ID, domain.HypothesisRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.HypothesisRejected, h.Status)

	// Rejected hypotheses are kept, not deleted, and stay final.
	got, err := svc.GetHypothesis(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HypothesisRejected, got.Status)

	_, err = svc.ResolveHypothesis(ctx, h.ID, domain.HypothesisVerified)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
