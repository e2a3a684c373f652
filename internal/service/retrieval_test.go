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

func defaultWeights() RetrievalWeights {
	return RetrievalWeights{
		Lexical:    0.15,
		Vector:     0.05,
		Recency:    0.35,
		Confidence: 0.40,
		Goal:       0.05,
	}
}

func newTestRetriever(st *domain.Store) *Retriever {
	return NewRetriever(st, nil, zap.NewNop(), defaultWeights(), 30*24*time.Hour)
}

// seedBeliefs writes beliefs through the consolidation batch, the only
// bulk write path the store exposes.
func seedBeliefs(t *testing.T, st *domain.Store, beliefs ...domain.Belief) {
	t.Helper()
	ctx := context.Background()
	wm, err := st.Consolidation.Watermark(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Consolidation.ApplyBatch(ctx, &domain.ConsolidationBatch{
		PriorWatermark: wm,
		NewWatermark:   wm,
		BeliefUpserts:  beliefs,
	}))
}

func retrievalBelief(statement, subject string, confidence float32, updatedAt time.Time) domain.Belief {
	return domain.Belief{
		ID:         uuid.New(),
		Statement:  statement,
		Subject:    subject,
		Polarity:   domain.PolarityPositive,
		Confidence: confidence,
		Status:     domain.BeliefProposed,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
}

func TestQueryRanksLexicalMatchFirst(t *testing.T) {
	st := openTestStore(t)
	now := time.Now().UTC()
	match := retrievalBelief("User likely likes lofi music", "lofi music", 0.6, now)
	other := retrievalBelief("User likely likes espresso", "espresso", 0.6, now)
	seedBeliefs(t, st, match, other)

	results, err := newTestRetriever(st).Query(context.Background(), QueryRequest{
		Query: "lofi music",
		Types: []ResultType{ResultBelief},
		TopK:  2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, match.ID, results[0].Belief.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryPrefersFresherOnEqualSignal(t *testing.T) {
	st := openTestStore(t)
	now := time.Now().UTC()
	fresh := retrievalBelief("User likely likes lofi music", "lofi music", 0.6, now)
	stale := retrievalBelief("User likely likes lofi music", "lofi music", 0.6, now.Add(-20*24*time.Hour))
	seedBeliefs(t, st, fresh, stale)

	results, err := newTestRetriever(st).Query(context.Background(), QueryRequest{
		Query: "lofi music",
		Types: []ResultType{ResultBelief},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, fresh.ID, results[0].Belief.ID)
}

func TestQueryConfidenceDominatesNearTies(t *testing.T) {
	st := openTestStore(t)
	now := time.Now().UTC()
	confident := retrievalBelief("User likely likes lofi music", "lofi music", 0.95, now)
	doubtful := retrievalBelief("User likely likes lofi music", "lofi music", 0.2, now)
	seedBeliefs(t, st, confident, doubtful)

	results, err := newTestRetriever(st).Query(context.Background(), QueryRequest{
		Query: "lofi music",
		Types: []ResultType{ResultBelief},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, confident.ID, results[0].Belief.ID)
}

func TestQuerySkipsRetractedBeliefs(t *testing.T) {
	st := openTestStore(t)
	now := time.Now().UTC()
	retracted := retrievalBelief("User likely likes lofi music", "lofi music", 0.6, now)
	retracted.Status = domain.BeliefRetracted
	seedBeliefs(t, st, retracted)

	results, err := newTestRetriever(st).Query(context.Background(), QueryRequest{
		Query: "lofi music",
		Types: []ResultType{ResultBelief},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryTopKCapsResults(t *testing.T) {
	st := openTestStore(t)
	now := time.Now().UTC()
	var beliefs []domain.Belief
	for i := 0; i < 5; i++ {
		beliefs = append(beliefs, retrievalBelief("User likely likes lofi music", "lofi music", 0.6, now))
	}
	seedBeliefs(t, st, beliefs...)

	results, err := newTestRetriever(st).Query(context.Background(), QueryRequest{
		Query: "lofi music",
		Types: []ResultType{ResultBelief},
		TopK:  3,
	})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	st := openTestStore(t)

	_, err := newTestRetriever(st).Query(context.Background(), QueryRequest{Query: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestQueryGoalBoostsRelevantResults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	goal := &domain.Goal{
		ID:          uuid.New(),
		Description: "curate a lofi playlist",
		Status:      domain.GoalActive,
		Priority:    5,
	}
	require.NoError(t, st.Goals.Create(ctx, goal))

	relevant := retrievalBelief("User likely likes lofi music while working", "lofi music", 0.6, now)
	unrelated := retrievalBelief("User likely likes espresso while working", "espresso", 0.6, now)
	seedBeliefs(t, st, relevant, unrelated)

	results, err := newTestRetriever(st).Query(ctx, QueryRequest{
		Query:  "while working",
		GoalID: &goal.ID,
		Types:  []ResultType{ResultBelief},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, relevant.ID, results[0].Belief.ID)
}

func TestQuerySearchesEpisodes(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	e := &domain.Episode{
		Kind:     domain.EpisodeObservation,
		Payload:  domain.EpisodePayload{Text: "deployed the staging stack at noon"},
		Salience: 1.0,
	}
	require.NoError(t, st.Episodes.Append(ctx, e))

	results, err := newTestRetriever(st).Query(ctx, QueryRequest{
		Query: "staging stack",
		Types: []ResultType{ResultEpisode},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ResultEpisode, results[0].Type)
	assert.Equal(t, e.ID, results[0].Episode.ID)
}
