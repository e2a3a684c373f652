package service

import (
	"testing"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testResolver() *ContradictionResolver {
	return NewContradictionResolver(zap.NewNop(), 0.15, 0.5, 0.85, 0.2, 0.95)
}

func testBelief(subject string, polarity domain.Polarity, confidence float32, status domain.BeliefStatus) domain.Belief {
	verb := "likes"
	if polarity == domain.PolarityNegative {
		verb = "dislikes"
	}
	now := time.Now().UTC()
	return domain.Belief{
		ID:         uuid.New(),
		Statement:  "User likely " + verb + " " + subject,
		Subject:    subject,
		Polarity:   polarity,
		Confidence: confidence,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestResolverLinksOppositePolaritySymmetrically(t *testing.T) {
	pos := testBelief("lofi music", domain.PolarityPositive, 0.6, domain.BeliefProposed)
	neg := testBelief("lofi music", domain.PolarityNegative, 0.6, domain.BeliefProposed)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{pos, neg}, nil, nil)

	stats := testResolver().Resolve(ws, false)

	assert.Equal(t, 1, stats.ConflictsLinked)
	a, b := ws.beliefs[pos.ID], ws.beliefs[neg.ID]
	assert.True(t, a.HasConflict(b.ID))
	assert.True(t, b.HasConflict(a.ID))
	assert.Equal(t, domain.BeliefDisputed, a.Status)
	assert.Equal(t, domain.BeliefDisputed, b.Status)
	assert.InDelta(t, 0.45, a.Confidence, 0.001)
	assert.InDelta(t, 0.45, b.Confidence, 0.001)
}

func TestResolverPenaltyIsIdempotent(t *testing.T) {
	pos := testBelief("lofi music", domain.PolarityPositive, 0.6, domain.BeliefProposed)
	neg := testBelief("lofi music", domain.PolarityNegative, 0.6, domain.BeliefProposed)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{pos, neg}, nil, nil)
	r := testResolver()

	r.Resolve(ws, false)
	first := ws.beliefs[pos.ID].Confidence

	stats := r.Resolve(ws, false)
	assert.Equal(t, 0, stats.ConflictsLinked, "an existing link must not re-penalize")
	assert.Equal(t, first, ws.beliefs[pos.ID].Confidence)
	require.Len(t, ws.beliefs[pos.ID].ConflictsWithIDs, 1)
}

func TestResolverPenaltyFloorsAtZero(t *testing.T) {
	pos := testBelief("lofi music", domain.PolarityPositive, 0.05, domain.BeliefProposed)
	neg := testBelief("lofi music", domain.PolarityNegative, 0.6, domain.BeliefProposed)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{pos, neg}, nil, nil)

	testResolver().Resolve(ws, false)

	assert.Equal(t, float32(0), ws.beliefs[pos.ID].Confidence)
}

func TestResolverRetractsSupersededSide(t *testing.T) {
	weak := testBelief("lofi music", domain.PolarityPositive, 0.1, domain.BeliefDisputed)
	strong := testBelief("lofi music", domain.PolarityNegative, 0.9, domain.BeliefDisputed)
	weak.AddConflict(strong.ID)
	strong.AddConflict(weak.ID)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{weak, strong}, nil, nil)

	stats := testResolver().Resolve(ws, false)

	assert.Equal(t, 1, stats.BeliefsRetracted)
	assert.Equal(t, domain.BeliefRetracted, ws.beliefs[weak.ID].Status)
	// With the weak side gone the survivor is released and, above the
	// confirm threshold, confirmed outright.
	assert.Equal(t, domain.BeliefConfirmed, ws.beliefs[strong.ID].Status)
}

func TestResolverReleasesBeliefWhenConflictDies(t *testing.T) {
	survivor := testBelief("lofi music", domain.PolarityPositive, 0.5, domain.BeliefDisputed)
	retracted := testBelief("lofi music", domain.PolarityNegative, 0.1, domain.BeliefRetracted)
	survivor.AddConflict(retracted.ID)
	retracted.AddConflict(survivor.ID)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{survivor, retracted}, nil, nil)

	testResolver().Resolve(ws, false)

	assert.Equal(t, domain.BeliefProposed, ws.beliefs[survivor.ID].Status)
	assert.Equal(t, domain.BeliefRetracted, ws.beliefs[retracted.ID].Status)
}

func TestResolverConfirmsHighConfidenceBelief(t *testing.T) {
	b := testBelief("lofi music", domain.PolarityPositive, 0.9, domain.BeliefProposed)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{b}, nil, nil)

	stats := testResolver().Resolve(ws, false)

	assert.Equal(t, 1, stats.BeliefsConfirmed)
	assert.Equal(t, domain.BeliefConfirmed, ws.beliefs[b.ID].Status)
}

func TestResolverStaleDecayOnlyWhenRequested(t *testing.T) {
	b := testBelief("lofi music", domain.PolarityPositive, 0.6, domain.BeliefProposed)
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{b}, nil, nil)
	r := testResolver()

	r.Resolve(ws, false)
	assert.InDelta(t, 0.6, ws.beliefs[b.ID].Confidence, 0.001)

	r.Resolve(ws, true)
	assert.InDelta(t, 0.57, ws.beliefs[b.ID].Confidence, 0.001)
}

func TestResolverDetectsNegatedStatements(t *testing.T) {
	now := time.Now().UTC()
	plain := domain.Belief{
		ID: uuid.New(), Subject: "morning standups",
		Statement:  "User attends morning standups",
		Polarity:   domain.PolarityNeutral,
		Confidence: 0.6, Status: domain.BeliefProposed,
		CreatedAt: now, UpdatedAt: now,
	}
	negatedB := domain.Belief{
		ID: uuid.New(), Subject: "morning standups",
		Statement:  "User does not attend morning standups",
		Polarity:   domain.PolarityNeutral,
		Confidence: 0.6, Status: domain.BeliefProposed,
		CreatedAt: now, UpdatedAt: now,
	}
	ws := newWorkspace(now, []domain.Belief{plain, negatedB}, nil, nil)

	stats := testResolver().Resolve(ws, false)

	assert.Equal(t, 1, stats.ConflictsLinked)
	assert.Equal(t, domain.BeliefDisputed, ws.beliefs[plain.ID].Status)
}
