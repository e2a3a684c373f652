package service

import (
	"context"
	"testing"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/store/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *domain.Store {
	t.Helper()
	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStore(db)
}

func newTestConsolidator(st *domain.Store, extractor domain.ExtractionClient) *Consolidator {
	logger := zap.NewNop()
	miner := NewReplayMiner(extractor, nil, logger, 0.15)
	resolver := NewContradictionResolver(logger, 0.15, 0.5, 0.85, 0.2, 0.95)
	forgetting := NewForgettingPolicy(0.05, 0.05)
	return NewConsolidator(st, miner, resolver, forgetting, logger, 200)
}

func appendObservation(t *testing.T, st *domain.Store, text string) *domain.Episode {
	t.Helper()
	e := &domain.Episode{
		Kind:     domain.EpisodeObservation,
		Payload:  domain.EpisodePayload{Text: text},
		Salience: 1.0,
	}
	require.NoError(t, st.Episodes.Append(context.Background(), e))
	return e
}

func TestConsolidationMinesPreferenceBelief(t *testing.T) {
	st := openTestStore(t)
	c := newTestConsolidator(st, nil)
	ctx := context.Background()

	ep := appendObservation(t, st, "User said: I love lo-fi music")

	report, err := c.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.EpisodesProcessed)
	assert.Equal(t, 1, report.BeliefsCreated)
	assert.Equal(t, ep.ID, report.NewWatermark)

	beliefs, err := st.Beliefs.GetBySubject(ctx, "lofi music")
	require.NoError(t, err)
	require.Len(t, beliefs, 1)

	b := beliefs[0]
	assert.Equal(t, domain.PolarityPositive, b.Polarity)
	assert.Equal(t, domain.BeliefProposed, b.Status)
	assert.Less(t, b.Confidence, float32(1.0))
	assert.Contains(t, b.EvidenceIDs, ep.ID)

	wm, err := st.Consolidation.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, ep.ID, wm)
}

func TestConsolidationDisputesReversal(t *testing.T) {
	st := openTestStore(t)
	c := newTestConsolidator(st, nil)
	ctx := context.Background()

	appendObservation(t, st, "I love lo-fi music")
	_, err := c.Consolidate(ctx)
	require.NoError(t, err)

	appendObservation(t, st, "Actually I hate lo-fi music now")
	report, err := c.Consolidate(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.BeliefsDisputed, 2)

	beliefs, err := st.Beliefs.GetBySubject(ctx, "lofi music")
	require.NoError(t, err)
	require.Len(t, beliefs, 2)

	byID := map[string]domain.Belief{}
	for _, b := range beliefs {
		assert.Equal(t, domain.BeliefDisputed, b.Status)
		byID[b.ID.String()] = b
	}
	for _, b := range beliefs {
		require.Len(t, b.ConflictsWithIDs, 1)
		other, ok := byID[b.ConflictsWithIDs[0].String()]
		require.True(t, ok, "conflict link must point at the sibling")
		assert.True(t, other.HasConflict(b.ID), "conflict links must be symmetric")
	}
}

func TestRepeatedCorroborationNeverReachesCertainty(t *testing.T) {
	st := openTestStore(t)
	c := newTestConsolidator(st, nil)
	ctx := context.Background()

	var last float32
	for i := 0; i < 8; i++ {
		appendObservation(t, st, "I love lo-fi music")
		_, err := c.Consolidate(ctx)
		require.NoError(t, err)

		beliefs, err := st.Beliefs.GetBySubject(ctx, "lofi music")
		require.NoError(t, err)
		require.Len(t, beliefs, 1)

		conf := beliefs[0].Confidence
		assert.Less(t, conf, float32(1.0))
		if i > 0 {
			assert.Greater(t, conf, last, "corroboration must raise confidence")
		}
		last = conf
	}
}

func TestConsolidateWithNoNewEpisodesIsStable(t *testing.T) {
	st := openTestStore(t)
	c := newTestConsolidator(st, nil)
	ctx := context.Background()

	appendObservation(t, st, "I love lo-fi music")
	first, err := c.Consolidate(ctx)
	require.NoError(t, err)

	before, err := st.Beliefs.List(ctx, false)
	require.NoError(t, err)

	second, err := c.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.EpisodesProcessed)
	assert.Equal(t, first.NewWatermark, second.NewWatermark)

	after, err := st.Beliefs.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	assert.Equal(t, before[0].Confidence, after[0].Confidence,
		"a run with no input must not drift confidence")
	assert.Equal(t, before[0].Status, after[0].Status)
}

// blockingExtractor parks until released so a second trigger can race the
// first run.
type blockingExtractor struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingExtractor) ExtractClaims(ctx context.Context, _ string) ([]domain.CandidateClaim, error) {
	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func TestConcurrentConsolidateRejected(t *testing.T) {
	st := openTestStore(t)
	extractor := &blockingExtractor{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newTestConsolidator(st, extractor)
	ctx := context.Background()

	appendObservation(t, st, "I love lo-fi music")

	done := make(chan error, 1)
	go func() {
		_, err := c.Consolidate(ctx)
		done <- err
	}()

	select {
	case <-extractor.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started mining")
	}

	_, err := c.Consolidate(ctx)
	assert.ErrorIs(t, err, domain.ErrConsolidationActive)
	assert.Equal(t, StateRunning, c.State())

	close(extractor.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, c.State())
}

func TestVerifiedHypothesisPromotedNextRun(t *testing.T) {
	st := openTestStore(t)
	c := newTestConsolidator(st, nil)
	ctx := context.Background()

	h := &domain.Hypothesis{
		Claim:            "the build cache speeds up repeated deploys",
		VerificationPlan: "time two consecutive deploys",
		Confidence:       0.7,
		Status:           domain.HypothesisOpen,
	}
	h.ID = uuid.New()
	require.NoError(t, st.Hypotheses.Create(ctx, h))
	require.NoError(t, st.Hypotheses.UpdateStatus(ctx, h.ID, domain.HypothesisVerified))

	report, err := c.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.HypothesesPromoted)

	got, err := st.Hypotheses.GetByID(ctx, h.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PromotedBeliefID)

	b, err := st.Beliefs.GetByID(ctx, *got.PromotedBeliefID)
	require.NoError(t, err)
	assert.Equal(t, h.Claim, b.Statement)
	assert.Equal(t, domain.BeliefProposed, b.Status)
	assert.Less(t, b.Confidence, float32(1.0))

	// Promotion is once only: a second run mints nothing new.
	second, err := c.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.HypothesesPromoted)
}

func TestSkillOutcomeUpdatesSelfModel(t *testing.T) {
	st := openTestStore(t)
	c := newTestConsolidator(st, nil)
	ctx := context.Background()

	for _, outcome := range []domain.OutcomeType{domain.OutcomeSuccess, domain.OutcomeFailure} {
		e := &domain.Episode{
			Kind: domain.EpisodeAction,
			Payload: domain.EpisodePayload{
				Text:      "deploying the staging stack",
				SkillName: "deploy",
				Outcome:   outcome,
			},
			Salience: 1.0,
		}
		require.NoError(t, st.Episodes.Append(ctx, e))
	}

	report, err := c.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkillsCreated)
	assert.GreaterOrEqual(t, report.SelfModelRefreshed, 1)

	skill, err := st.Skills.GetByName(ctx, "deploy")
	require.NoError(t, err)
	assert.Equal(t, 2, skill.UseCount)
	assert.InDelta(t, 0.5, skill.SuccessRate, 0.001)

	entry, err := st.SelfModel.GetByCapability(ctx, "deploy")
	require.NoError(t, err)
	assert.Equal(t, skill.SuccessRate, entry.ReliabilityScore)
	assert.NotEmpty(t, entry.Limitations)
}
