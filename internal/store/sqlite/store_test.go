package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *domain.Store {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func appendEpisode(t *testing.T, st *domain.Store, text string) *domain.Episode {
	t.Helper()
	e := &domain.Episode{
		Kind:     domain.EpisodeObservation,
		Payload:  domain.EpisodePayload{Text: text},
		Salience: 1.0,
	}
	if err := st.Episodes.Append(context.Background(), e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return e
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	st := openTestStore(t)

	first := appendEpisode(t, st, "one")
	second := appendEpisode(t, st, "two")

	if first.ID <= 0 {
		t.Errorf("first id = %d, want > 0", first.ID)
	}
	if second.ID <= first.ID {
		t.Errorf("ids not monotonic: %d then %d", first.ID, second.ID)
	}
	if first.ContentHash == "" {
		t.Error("content hash not set on append")
	}
}

func TestWatermarkStartsAtZero(t *testing.T) {
	st := openTestStore(t)

	wm, err := st.Consolidation.Watermark(context.Background())
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}
	if wm != 0 {
		t.Errorf("initial watermark = %d, want 0", wm)
	}
}

func TestApplyBatchAdvancesWatermark(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ep := appendEpisode(t, st, "I love lo-fi music")

	now := time.Now().UTC()
	belief := domain.Belief{
		ID:          uuid.New(),
		Statement:   "User likely likes lo-fi music",
		Subject:     "lofi music",
		Polarity:    domain.PolarityPositive,
		Confidence:  0.6,
		Status:      domain.BeliefProposed,
		EvidenceIDs: []int64{ep.ID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := st.Consolidation.ApplyBatch(ctx, &domain.ConsolidationBatch{
		PriorWatermark: 0,
		NewWatermark:   ep.ID,
		BeliefUpserts:  []domain.Belief{belief},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}

	wm, err := st.Consolidation.Watermark(ctx)
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}
	if wm != ep.ID {
		t.Errorf("watermark = %d, want %d", wm, ep.ID)
	}

	got, err := st.Beliefs.GetByID(ctx, belief.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Statement != belief.Statement || got.Status != domain.BeliefProposed {
		t.Errorf("belief round-trip mismatch: %+v", got)
	}
	if len(got.EvidenceIDs) != 1 || got.EvidenceIDs[0] != ep.ID {
		t.Errorf("evidence ids = %v, want [%d]", got.EvidenceIDs, ep.ID)
	}
}

func TestApplyBatchRejectsStaleWatermark(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ep := appendEpisode(t, st, "anything")
	if err := st.Consolidation.ApplyBatch(ctx, &domain.ConsolidationBatch{
		PriorWatermark: 0,
		NewWatermark:   ep.ID,
	}); err != nil {
		t.Fatalf("first ApplyBatch: %v", err)
	}

	err := st.Consolidation.ApplyBatch(ctx, &domain.ConsolidationBatch{
		PriorWatermark: 0,
		NewWatermark:   ep.ID,
	})
	if !errors.Is(err, domain.ErrConsolidationAborted) {
		t.Errorf("stale batch error = %v, want ErrConsolidationAborted", err)
	}

	wm, _ := st.Consolidation.Watermark(ctx)
	if wm != ep.ID {
		t.Errorf("watermark = %d, want unchanged %d", wm, ep.ID)
	}
}

func TestPruneKeepsContentHash(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ep := appendEpisode(t, st, "transient detail nobody cites")
	hash := ep.ContentHash

	err := st.Consolidation.ApplyBatch(ctx, &domain.ConsolidationBatch{
		PriorWatermark:  0,
		NewWatermark:    ep.ID,
		PruneEpisodeIDs: []int64{ep.ID},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}

	got, err := st.Episodes.GetByID(ctx, ep.ID)
	if err != nil {
		t.Fatalf("GetByID after prune: %v", err)
	}
	if !got.Pruned {
		t.Error("episode not marked pruned")
	}
	if got.Payload.Text != "" {
		t.Errorf("payload text survived prune: %q", got.Payload.Text)
	}
	if got.ContentHash != hash {
		t.Errorf("content hash = %q, want %q", got.ContentHash, hash)
	}
	if got.PrunedAt == nil {
		t.Error("pruned_at not set")
	}

	unpruned, err := st.Episodes.ListUnpruned(ctx)
	if err != nil {
		t.Fatalf("ListUnpruned: %v", err)
	}
	if len(unpruned) != 0 {
		t.Errorf("pruned episode still listed: %v", unpruned)
	}
}

func TestGoalRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	g := &domain.Goal{Description: "tidy downloads", Status: domain.GoalActive, Priority: 7}
	if err := st.Goals.Create(ctx, g); err != nil {
		t.Fatalf("Create: %v", err)
	}

	g.Progress = 0.5
	g.Status = domain.GoalBlocked
	if err := st.Goals.Update(ctx, g); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := st.Goals.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Progress != 0.5 || got.Status != domain.GoalBlocked {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestHypothesisPromotionTracking(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	h := &domain.Hypothesis{Claim: "the backup cron is broken", VerificationPlan: "check last run", Confidence: 0.4, Status: domain.HypothesisOpen}
	if err := st.Hypotheses.Create(ctx, h); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Hypotheses.UpdateStatus(ctx, h.ID, domain.HypothesisVerified); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	pending, err := st.Hypotheses.ListVerifiedUnpromoted(ctx)
	if err != nil {
		t.Fatalf("ListVerifiedUnpromoted: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != h.ID {
		t.Fatalf("pending = %v, want the verified hypothesis", pending)
	}

	beliefID := uuid.New()
	now := time.Now().UTC()
	err = st.Consolidation.ApplyBatch(ctx, &domain.ConsolidationBatch{
		BeliefUpserts: []domain.Belief{{
			ID: beliefID, Statement: h.Claim, Subject: domain.NormalizeSubject(h.Claim),
			Polarity: domain.PolarityNeutral, Confidence: h.Confidence,
			Status: domain.BeliefProposed, CreatedAt: now, UpdatedAt: now,
		}},
		Promotions: []domain.HypothesisPromotion{{HypothesisID: h.ID, BeliefID: beliefID}},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}

	pending, err = st.Hypotheses.ListVerifiedUnpromoted(ctx)
	if err != nil {
		t.Fatalf("ListVerifiedUnpromoted: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("hypothesis still pending after promotion: %v", pending)
	}

	got, err := st.Hypotheses.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PromotedBeliefID == nil || *got.PromotedBeliefID != beliefID {
		t.Errorf("promoted belief id = %v, want %s", got.PromotedBeliefID, beliefID)
	}
}
