package service

import (
	"context"
	"strings"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/extraction"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uncappedConfidenceLimit keeps mined belief confidence strictly below 1.0
// unless the source episode is marked verified.
const uncappedConfidenceLimit = 0.99

// ReplayMiner walks a slice of episodes and turns their payloads into
// belief candidates and skill-outcome updates. Claims on a subject the
// operator already holds a same-polarity belief about corroborate that
// belief asymptotically instead of duplicating it; the contradiction
// resolver handles the opposite-polarity case afterwards.
type ReplayMiner struct {
	extractor domain.ExtractionClient
	fallback  domain.ExtractionClient
	embed     domain.EmbeddingClient
	logger    *zap.Logger
	gain      float32
}

// MinerStats counts what one mining pass did.
type MinerStats struct {
	EpisodesProcessed int
	BeliefsCreated    int
	BeliefsReinforced int
	SkillsCreated     int
	SkillsUpdated     int
}

func NewReplayMiner(extractor domain.ExtractionClient, embed domain.EmbeddingClient, logger *zap.Logger, gain float32) *ReplayMiner {
	return &ReplayMiner{
		extractor: extractor,
		fallback:  extraction.NewHeuristicExtractor(),
		embed:     embed,
		logger:    logger,
		gain:      gain,
	}
}

// Mine processes episodes in order, mutating the workspace. Extraction
// failures on one episode degrade to the heuristic fallback rather than
// aborting the run; only context cancellation stops the pass.
func (m *ReplayMiner) Mine(ctx context.Context, episodes []domain.Episode, ws *workspace) (MinerStats, error) {
	var stats MinerStats
	for i := range episodes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		e := &episodes[i]
		if e.Pruned {
			continue
		}
		stats.EpisodesProcessed++

		if text := strings.TrimSpace(e.Payload.Text); text != "" {
			claims := m.extract(ctx, text)
			for _, claim := range claims {
				m.applyClaim(ctx, e, claim, ws, &stats)
			}
		}
		if e.Kind == domain.EpisodeAction && e.Payload.SkillName != "" {
			m.applyOutcome(e, ws, &stats)
		}
	}
	return stats, nil
}

func (m *ReplayMiner) extract(ctx context.Context, text string) []domain.CandidateClaim {
	if m.extractor != nil {
		claims, err := m.extractor.ExtractClaims(ctx, text)
		if err == nil {
			return claims
		}
		m.logger.Warn("claim extraction failed, using heuristic fallback", zap.Error(err))
	}
	claims, err := m.fallback.ExtractClaims(ctx, text)
	if err != nil {
		return nil
	}
	return claims
}

func (m *ReplayMiner) applyClaim(ctx context.Context, e *domain.Episode, claim domain.CandidateClaim, ws *workspace, stats *MinerStats) {
	subject := domain.NormalizeSubject(claim.Subject)
	if subject == "" {
		return
	}

	for _, b := range ws.beliefsOnSubject(subject) {
		if b.Polarity != claim.Polarity {
			continue
		}
		if b.Status == domain.BeliefRetracted || b.Status == domain.BeliefArchived {
			continue
		}
		b.Confidence = corroborate(b.Confidence, m.gain)
		if !e.Payload.Verified && b.Confidence > uncappedConfidenceLimit {
			b.Confidence = uncappedConfidenceLimit
		}
		b.AddEvidence(e.ID)
		ws.touchBelief(b.ID)
		ws.reinforced[b.ID] = true
		stats.BeliefsReinforced++
		return
	}

	confidence := claim.Confidence
	if !e.Payload.Verified && confidence > uncappedConfidenceLimit {
		confidence = uncappedConfidenceLimit
	}
	b := &domain.Belief{
		ID:          uuid.New(),
		Statement:   claim.Statement,
		Subject:     subject,
		Polarity:    claim.Polarity,
		Confidence:  confidence,
		Status:      domain.BeliefProposed,
		EvidenceIDs: []int64{e.ID},
		CreatedAt:   ws.now,
		UpdatedAt:   ws.now,
	}
	if m.embed != nil {
		if vec, err := m.embed.Embed(ctx, b.Statement); err == nil {
			b.Embedding = vec
		}
	}
	ws.addBelief(b)
	ws.reinforced[b.ID] = true
	stats.BeliefsCreated++
}

// applyOutcome folds one action episode into its skill's running success
// rate (incremental mean over success/failure outcomes) and usage counters.
func (m *ReplayMiner) applyOutcome(e *domain.Episode, ws *workspace, stats *MinerStats) {
	name := strings.TrimSpace(e.Payload.SkillName)
	s, ok := ws.skills[name]
	if !ok {
		s = &domain.Skill{
			ID:        uuid.New(),
			Name:      name,
			CreatedAt: ws.now,
			UpdatedAt: ws.now,
		}
		ws.addSkill(s)
		stats.SkillsCreated++
	} else {
		stats.SkillsUpdated++
	}

	s.UseCount++
	switch e.Payload.Outcome {
	case domain.OutcomeSuccess:
		s.SuccessRate += (1 - s.SuccessRate) / float32(s.UseCount)
	case domain.OutcomeFailure:
		s.SuccessRate += (0 - s.SuccessRate) / float32(s.UseCount)
		if mode := failureMode(e.Payload.Text); mode != "" {
			s.AddFailureMode(mode)
		}
	}
	s.AddEvidence(e.ID)
	used := e.CreatedAt
	s.LastUsed = &used
	ws.touchSkill(name)
}

// corroborate is the asymptotic confidence update: repeated agreement
// approaches but never reaches certainty.
func corroborate(old, gain float32) float32 {
	return old + (1-old)*gain
}

const failureModeLimit = 160

func failureMode(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > failureModeLimit {
		text = text[:failureModeLimit]
	}
	return text
}
