package service

import (
	"strings"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"go.uber.org/zap"
)

// ContradictionResolver detects disputes between beliefs on the same
// subject and keeps the dispute lifecycle moving: linking, penalizing,
// decaying stale claims, retracting superseded ones, and releasing beliefs
// whose conflicts have died out.
type ContradictionResolver struct {
	logger              *zap.Logger
	penalty             float32
	similarityThreshold float32
	confirmThreshold    float32
	supersedeFloor      float32
	staleDecay          float32
}

// ResolverStats counts the lifecycle transitions of one pass.
type ResolverStats struct {
	ConflictsLinked  int
	BeliefsDisputed  int
	BeliefsDecayed   int
	BeliefsRetracted int
	BeliefsConfirmed int
	BeliefsReleased  int
}

func NewContradictionResolver(logger *zap.Logger, penalty, similarityThreshold, confirmThreshold, supersedeFloor, staleDecay float32) *ContradictionResolver {
	return &ContradictionResolver{
		logger:              logger,
		penalty:             penalty,
		similarityThreshold: similarityThreshold,
		confirmThreshold:    confirmThreshold,
		supersedeFloor:      supersedeFloor,
		staleDecay:          staleDecay,
	}
}

// Resolve runs the full pass over the workspace. decayStale is false when
// the run mined no episodes, which keeps a no-input consolidation from
// drifting confidence values.
func (r *ContradictionResolver) Resolve(ws *workspace, decayStale bool) ResolverStats {
	var stats ResolverStats
	r.linkConflicts(ws, &stats)
	if decayStale {
		r.decayStale(ws, &stats)
	}
	r.retractSuperseded(ws, &stats)
	r.reevaluate(ws, &stats)
	return stats
}

// linkConflicts scans each subject group for contradictory pairs and links
// them symmetrically. A newly linked pair costs both sides the fixed
// penalty and marks both disputed; re-linking an existing pair is a no-op.
func (r *ContradictionResolver) linkConflicts(ws *workspace, stats *ResolverStats) {
	for subject := range ws.bySubject {
		group := ws.beliefsOnSubject(subject)
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !r.active(a) || !r.active(b) {
					continue
				}
				if !contradicts(a, b) {
					continue
				}
				if topicalSimilarity(a, b) < r.similarityThreshold {
					continue
				}
				if !a.AddConflict(b.ID) {
					continue
				}
				b.AddConflict(a.ID)
				stats.ConflictsLinked++

				for _, side := range []*domain.Belief{a, b} {
					side.Confidence = maxf(0, side.Confidence-r.penalty)
					if side.Status != domain.BeliefDisputed {
						side.Status = domain.BeliefDisputed
						stats.BeliefsDisputed++
					}
					ws.touchBelief(side.ID)
				}
				r.logger.Debug("conflict linked",
					zap.String("subject", subject),
					zap.String("belief_a", a.ID.String()),
					zap.String("belief_b", b.ID.String()))
			}
		}
	}
}

// decayStale shrinks the confidence of unconfirmed beliefs that gained no
// corroboration this run. Without it a frozen dispute would block a
// correction forever: the abandoned side never falls below the supersede
// floor.
func (r *ContradictionResolver) decayStale(ws *workspace, stats *ResolverStats) {
	for id, b := range ws.beliefs {
		if ws.reinforced[id] {
			continue
		}
		if b.Status != domain.BeliefProposed && b.Status != domain.BeliefDisputed {
			continue
		}
		b.Confidence *= r.staleDecay
		ws.touchBelief(id)
		stats.BeliefsDecayed++
	}
}

// retractSuperseded retracts disputed beliefs whose confidence has fallen
// below the supersede floor while a live opposing belief still stands.
func (r *ContradictionResolver) retractSuperseded(ws *workspace, stats *ResolverStats) {
	for id, b := range ws.beliefs {
		if b.Status != domain.BeliefDisputed || b.Confidence >= r.supersedeFloor {
			continue
		}
		if r.liveConflict(ws, b) == nil {
			continue
		}
		b.Status = domain.BeliefRetracted
		ws.touchBelief(id)
		stats.BeliefsRetracted++
	}
}

// reevaluate releases beliefs whose conflicts are no longer live. Released
// beliefs return to proposed, or straight to confirmed when their
// confidence clears the threshold. Conflict links are kept for provenance;
// liveness is recomputed each run instead.
func (r *ContradictionResolver) reevaluate(ws *workspace, stats *ResolverStats) {
	for id, b := range ws.beliefs {
		if !r.active(b) {
			continue
		}
		if r.liveConflict(ws, b) != nil {
			if b.Status != domain.BeliefDisputed {
				b.Status = domain.BeliefDisputed
				ws.touchBelief(id)
				stats.BeliefsDisputed++
			}
			continue
		}

		switch {
		case b.Confidence > r.confirmThreshold && b.Status != domain.BeliefConfirmed:
			b.Status = domain.BeliefConfirmed
			ws.touchBelief(id)
			stats.BeliefsConfirmed++
		case b.Confidence <= r.confirmThreshold && b.Status == domain.BeliefDisputed:
			b.Status = domain.BeliefProposed
			ws.touchBelief(id)
			stats.BeliefsReleased++
		}
	}
}

// liveConflict returns the first still-standing opponent: not retracted,
// not archived, and above the supersede floor.
func (r *ContradictionResolver) liveConflict(ws *workspace, b *domain.Belief) *domain.Belief {
	for _, id := range b.ConflictsWithIDs {
		other, ok := ws.beliefs[id]
		if !ok {
			continue
		}
		if r.active(other) && other.Confidence >= r.supersedeFloor {
			return other
		}
	}
	return nil
}

func (r *ContradictionResolver) active(b *domain.Belief) bool {
	return b.Status != domain.BeliefRetracted && b.Status != domain.BeliefArchived
}

// contradicts reports whether two same-subject beliefs assert opposite
// things: opposite polarity, or one statement negating the other.
func contradicts(a, b *domain.Belief) bool {
	if a.Polarity != domain.PolarityNeutral && b.Polarity != domain.PolarityNeutral {
		return a.Polarity != b.Polarity
	}
	return negated(a.Statement) != negated(b.Statement)
}

var negationMarkers = []string{" not ", " never ", "n't ", " no longer "}

func negated(statement string) bool {
	s := " " + strings.ToLower(statement) + " "
	for _, marker := range negationMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// topicalSimilarity prefers embeddings when both sides carry one and falls
// back to statement token overlap. Same-subject pairs with no other signal
// score on subject identity alone, which is already above any sensible
// threshold only when the statements share vocabulary.
func topicalSimilarity(a, b *domain.Belief) float32 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		return (cosineSimilarity(a.Embedding, b.Embedding) + 1) / 2
	}
	ta, tb := tokenize(a.Statement), tokenize(b.Statement)
	return maxf(tokenOverlap(ta, tb), tokenOverlap(tb, ta))
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
