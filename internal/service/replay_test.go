package service

import (
	"context"
	"testing"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/extraction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMiner(extractor domain.ExtractionClient) *ReplayMiner {
	return NewReplayMiner(extractor, nil, zap.NewNop(), 0.15)
}

func minedEpisode(id int64, kind domain.EpisodeKind, payload domain.EpisodePayload) domain.Episode {
	now := time.Now().UTC()
	return domain.Episode{
		ID: id, Kind: kind, Payload: payload,
		Salience: 1.0, CreatedAt: now, UpdatedAt: now,
	}
}

func TestMineCreatesBeliefWithEvidence(t *testing.T) {
	ws := newWorkspace(time.Now().UTC(), nil, nil, nil)
	episodes := []domain.Episode{
		minedEpisode(42, domain.EpisodeObservation, domain.EpisodePayload{Text: "I love lo-fi music"}),
	}

	stats, err := testMiner(nil).Mine(context.Background(), episodes, ws)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.BeliefsCreated)

	beliefs := ws.beliefsOnSubject("lofi music")
	require.Len(t, beliefs, 1)
	b := beliefs[0]
	assert.Equal(t, domain.PolarityPositive, b.Polarity)
	assert.Equal(t, []int64{42}, b.EvidenceIDs)
	assert.Less(t, b.Confidence, float32(1.0))
}

func TestMineCorroboratesExistingBeliefAsymptotically(t *testing.T) {
	existing := domain.Belief{
		ID:         uuid.New(),
		Statement:  "User likely likes lofi music",
		Subject:    "lofi music",
		Polarity:   domain.PolarityPositive,
		Confidence: 0.6,
		Status:     domain.BeliefProposed,
	}
	ws := newWorkspace(time.Now().UTC(), []domain.Belief{existing}, nil, nil)
	episodes := []domain.Episode{
		minedEpisode(7, domain.EpisodeObservation, domain.EpisodePayload{Text: "I really love lo-fi music"}),
	}

	stats, err := testMiner(nil).Mine(context.Background(), episodes, ws)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.BeliefsCreated)
	assert.Equal(t, 1, stats.BeliefsReinforced)

	b := ws.beliefs[existing.ID]
	// 0.6 + (1-0.6)*0.15
	assert.InDelta(t, 0.66, b.Confidence, 0.001)
	assert.Contains(t, b.EvidenceIDs, int64(7))
	assert.True(t, ws.reinforced[existing.ID])
}

func TestMineVerifiedEpisodeLiftsConfidenceCap(t *testing.T) {
	certain := &extraction.MockClient{Claims: []domain.CandidateClaim{{
		Statement:  "The staging endpoint is https",
		Subject:    "staging endpoint",
		Polarity:   domain.PolarityNeutral,
		Confidence: 1.0,
	}}}

	unverified := newWorkspace(time.Now().UTC(), nil, nil, nil)
	_, err := testMiner(certain).Mine(context.Background(), []domain.Episode{
		minedEpisode(1, domain.EpisodeObservation, domain.EpisodePayload{Text: "checked the endpoint"}),
	}, unverified)
	require.NoError(t, err)
	require.Len(t, unverified.beliefsOnSubject("staging endpoint"), 1)
	assert.Less(t, unverified.beliefsOnSubject("staging endpoint")[0].Confidence, float32(1.0))

	verified := newWorkspace(time.Now().UTC(), nil, nil, nil)
	_, err = testMiner(certain).Mine(context.Background(), []domain.Episode{
		minedEpisode(2, domain.EpisodeObservation, domain.EpisodePayload{Text: "checked the endpoint", Verified: true}),
	}, verified)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), verified.beliefsOnSubject("staging endpoint")[0].Confidence)
}

func TestMineFallsBackToHeuristicOnExtractorError(t *testing.T) {
	failing := &extraction.MockClient{Err: context.DeadlineExceeded}
	ws := newWorkspace(time.Now().UTC(), nil, nil, nil)

	stats, err := testMiner(failing).Mine(context.Background(), []domain.Episode{
		minedEpisode(1, domain.EpisodeObservation, domain.EpisodePayload{Text: "I love lo-fi music"}),
	}, ws)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.BeliefsCreated)
	assert.Len(t, ws.beliefsOnSubject("lofi music"), 1)
}

func TestMineTracksSkillOutcomes(t *testing.T) {
	ws := newWorkspace(time.Now().UTC(), nil, nil, nil)
	episodes := []domain.Episode{
		minedEpisode(1, domain.EpisodeAction, domain.EpisodePayload{
			SkillName: "deploy", Outcome: domain.OutcomeSuccess,
		}),
		minedEpisode(2, domain.EpisodeAction, domain.EpisodePayload{
			Text: "timeout waiting for the health check", SkillName: "deploy", Outcome: domain.OutcomeFailure,
		}),
		minedEpisode(3, domain.EpisodeAction, domain.EpisodePayload{
			SkillName: "deploy", Outcome: domain.OutcomeSuccess,
		}),
	}

	stats, err := testMiner(nil).Mine(context.Background(), episodes, ws)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkillsCreated)
	assert.Equal(t, 2, stats.SkillsUpdated)

	s := ws.skills["deploy"]
	require.NotNil(t, s)
	assert.Equal(t, 3, s.UseCount)
	assert.InDelta(t, 2.0/3.0, s.SuccessRate, 0.001)
	assert.Equal(t, []int64{1, 2, 3}, s.EvidenceIDs)
	assert.Contains(t, s.FailureModes, "timeout waiting for the health check")
	require.NotNil(t, s.LastUsed)
}

func TestMineSkipsPrunedEpisodes(t *testing.T) {
	ws := newWorkspace(time.Now().UTC(), nil, nil, nil)
	e := minedEpisode(1, domain.EpisodeObservation, domain.EpisodePayload{Text: "I love lo-fi music"})
	e.Pruned = true

	stats, err := testMiner(nil).Mine(context.Background(), []domain.Episode{e}, ws)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.EpisodesProcessed)
	assert.Empty(t, ws.beliefsOnSubject("lofi music"))
}
