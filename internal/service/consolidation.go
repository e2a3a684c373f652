package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConsolidationState is the observable phase of the consolidator.
type ConsolidationState string

const (
	StateIdle       ConsolidationState = "idle"
	StateRunning    ConsolidationState = "running"
	StateCommitting ConsolidationState = "committing"
	StateAborted    ConsolidationState = "aborted"
)

// Report summarizes one committed consolidation run.
type Report struct {
	PriorWatermark     int64         `json:"prior_watermark"`
	NewWatermark       int64         `json:"new_watermark"`
	EpisodesProcessed  int           `json:"episodes_processed"`
	BeliefsCreated     int           `json:"beliefs_created"`
	BeliefsReinforced  int           `json:"beliefs_reinforced"`
	BeliefsDisputed    int           `json:"beliefs_disputed"`
	BeliefsConfirmed   int           `json:"beliefs_confirmed"`
	BeliefsRetracted   int           `json:"beliefs_retracted"`
	SkillsCreated      int           `json:"skills_created"`
	SkillsUpdated      int           `json:"skills_updated"`
	SelfModelRefreshed int           `json:"self_model_refreshed"`
	HypothesesPromoted int           `json:"hypotheses_promoted"`
	EpisodesDecayed    int           `json:"episodes_decayed"`
	EpisodesPruned     int           `json:"episodes_pruned"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
}

// Consolidator is the dream cycle: replay mining, contradiction
// resolution, hypothesis promotion, self-model refresh, and forgetting,
// committed as one atomic batch. Single-flight: a trigger while a run is in
// progress returns ErrConsolidationActive and changes nothing.
type Consolidator struct {
	store      *domain.Store
	miner      *ReplayMiner
	resolver   *ContradictionResolver
	forgetting *ForgettingPolicy
	logger     *zap.Logger
	batchSize  int

	running atomic.Bool
	state   atomic.Value // ConsolidationState
}

func NewConsolidator(store *domain.Store, miner *ReplayMiner, resolver *ContradictionResolver, forgetting *ForgettingPolicy, logger *zap.Logger, batchSize int) *Consolidator {
	c := &Consolidator{
		store:      store,
		miner:      miner,
		resolver:   resolver,
		forgetting: forgetting,
		logger:     logger,
		batchSize:  batchSize,
	}
	c.state.Store(StateIdle)
	return c
}

// State reports the current phase. Aborted is sticky until the next
// trigger so operators can see that the last run failed.
func (c *Consolidator) State() ConsolidationState {
	return c.state.Load().(ConsolidationState)
}

// Consolidate runs one full dream cycle synchronously. Appends and reads
// proceed concurrently; only episodes at or below the watermark snapshot
// taken at entry are considered, so a mid-run append lands in the next
// cycle.
func (c *Consolidator) Consolidate(ctx context.Context) (*Report, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, domain.ErrConsolidationActive
	}
	defer c.running.Store(false)

	c.state.Store(StateRunning)
	started := time.Now().UTC()

	report, err := c.run(ctx, started)
	if err != nil {
		c.state.Store(StateAborted)
		c.logger.Error("consolidation aborted", zap.Error(err))
		return nil, err
	}
	c.state.Store(StateIdle)

	c.logger.Info("consolidation committed",
		zap.Int64("prior_watermark", report.PriorWatermark),
		zap.Int64("new_watermark", report.NewWatermark),
		zap.Int("episodes_processed", report.EpisodesProcessed),
		zap.Int("beliefs_created", report.BeliefsCreated),
		zap.Int("beliefs_reinforced", report.BeliefsReinforced),
		zap.Int("beliefs_retracted", report.BeliefsRetracted),
		zap.Int("episodes_pruned", report.EpisodesPruned),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (c *Consolidator) run(ctx context.Context, started time.Time) (*Report, error) {
	prior, err := c.store.Consolidation.Watermark(ctx)
	if err != nil {
		return nil, abortErr("read watermark", err)
	}
	snapshot, err := c.store.Episodes.MaxID(ctx)
	if err != nil {
		return nil, abortErr("snapshot watermark", err)
	}

	episodes, err := c.store.Episodes.ListAfter(ctx, prior, snapshot, c.batchSize)
	if err != nil {
		return nil, abortErr("list episodes", err)
	}
	// When the batch cap truncates the suffix the watermark advances only
	// to the last processed episode; the remainder belongs to the next run.
	newWatermark := snapshot
	if len(episodes) == c.batchSize && c.batchSize > 0 {
		newWatermark = episodes[len(episodes)-1].ID
	}

	// Archived beliefs are loaded too: the miner and resolver skip them,
	// but their evidence still shields episodes from forgetting.
	beliefs, err := c.store.Beliefs.List(ctx, true)
	if err != nil {
		return nil, abortErr("load beliefs", err)
	}
	skills, err := c.store.Skills.List(ctx)
	if err != nil {
		return nil, abortErr("load skills", err)
	}
	selfModel, err := c.store.SelfModel.List(ctx)
	if err != nil {
		return nil, abortErr("load self-model", err)
	}
	pending, err := c.store.Hypotheses.ListVerifiedUnpromoted(ctx)
	if err != nil {
		return nil, abortErr("load hypotheses", err)
	}

	ws := newWorkspace(started, beliefs, skills, selfModel)

	minerStats, err := c.miner.Mine(ctx, episodes, ws)
	if err != nil {
		return nil, abortErr("replay mining", err)
	}

	promotions := c.promoteHypotheses(pending, ws)

	resolverStats := c.resolver.Resolve(ws, minerStats.EpisodesProcessed > 0)

	selfRefreshed := c.refreshSelfModel(ws)

	unpruned, err := c.store.Episodes.ListUnpruned(ctx)
	if err != nil {
		return nil, abortErr("list unpruned episodes", err)
	}
	inScope := unpruned[:0]
	for _, e := range unpruned {
		if e.ID <= snapshot {
			inScope = append(inScope, e)
		}
	}
	salience, pruneIDs, forgetStats := c.forgetting.Sweep(inScope, ws.citedEpisodes(), started)

	c.state.Store(StateCommitting)
	batch := &domain.ConsolidationBatch{
		PriorWatermark:   prior,
		NewWatermark:     newWatermark,
		BeliefUpserts:    ws.dirtyBeliefList(),
		SkillUpserts:     ws.dirtySkillList(),
		SelfModelUpserts: ws.dirtySelfModelList(),
		Promotions:       promotions,
		SalienceUpdates:  salience,
		PruneEpisodeIDs:  pruneIDs,
	}
	if err := c.store.Consolidation.ApplyBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("apply batch: %w", err)
	}

	return &Report{
		PriorWatermark:     prior,
		NewWatermark:       newWatermark,
		EpisodesProcessed:  minerStats.EpisodesProcessed,
		BeliefsCreated:     minerStats.BeliefsCreated + len(promotions),
		BeliefsReinforced:  minerStats.BeliefsReinforced,
		BeliefsDisputed:    resolverStats.BeliefsDisputed,
		BeliefsConfirmed:   resolverStats.BeliefsConfirmed,
		BeliefsRetracted:   resolverStats.BeliefsRetracted,
		SkillsCreated:      minerStats.SkillsCreated,
		SkillsUpdated:      minerStats.SkillsUpdated,
		SelfModelRefreshed: selfRefreshed,
		HypothesesPromoted: len(promotions),
		EpisodesDecayed:    forgetStats.EpisodesDecayed,
		EpisodesPruned:     forgetStats.EpisodesPruned,
		StartedAt:          started,
		Duration:           time.Since(started),
	}, nil
}

// promoteHypotheses mints a proposed belief for every verified hypothesis
// not yet promoted. Minting here keeps the batch the only path that
// creates beliefs; resolving a hypothesis outside a run just queues it.
func (c *Consolidator) promoteHypotheses(pending []domain.Hypothesis, ws *workspace) []domain.HypothesisPromotion {
	var promotions []domain.HypothesisPromotion
	for i := range pending {
		h := &pending[i]
		confidence := h.Confidence
		if confidence > uncappedConfidenceLimit {
			confidence = uncappedConfidenceLimit
		}
		b := &domain.Belief{
			ID:          uuid.New(),
			Statement:   h.Claim,
			Subject:     domain.NormalizeSubject(h.Claim),
			Polarity:    domain.PolarityNeutral,
			Confidence:  confidence,
			Status:      domain.BeliefProposed,
			EvidenceIDs: append([]int64(nil), h.EvidenceIDs...),
			CreatedAt:   ws.now,
			UpdatedAt:   ws.now,
		}
		ws.addBelief(b)
		ws.reinforced[b.ID] = true
		promotions = append(promotions, domain.HypothesisPromotion{
			HypothesisID: h.ID,
			BeliefID:     b.ID,
		})
	}
	return promotions
}

// refreshSelfModel recomputes one reliability entry per skill from its
// success-rate history and accumulated failure modes. Entries whose values
// did not change are left untouched.
func (c *Consolidator) refreshSelfModel(ws *workspace) int {
	refreshed := 0
	for name, s := range ws.skills {
		existing, ok := ws.selfModel[name]
		if ok && existing.ReliabilityScore == s.SuccessRate && len(existing.Limitations) == len(s.FailureModes) {
			continue
		}
		entry := &domain.SelfModelEntry{
			Capability:       name,
			ReliabilityScore: s.SuccessRate,
			Limitations:      append([]string(nil), s.FailureModes...),
			CreatedAt:        ws.now,
		}
		if ok {
			entry.CreatedAt = existing.CreatedAt
		}
		ws.putSelfModel(entry)
		refreshed++
	}
	return refreshed
}

func abortErr(step string, err error) error {
	return fmt.Errorf("%s: %w: %v", step, domain.ErrConsolidationAborted, err)
}
