package domain

import (
	"context"

	"github.com/google/uuid"
)

// EpisodeStore is the append-only episodic relation. Append assigns
// monotonically increasing ids; everything else is read-only. Salience
// changes and pruning go through ConsolidationStore.ApplyBatch only.
type EpisodeStore interface {
	Append(ctx context.Context, e *Episode) error
	GetByID(ctx context.Context, id int64) (*Episode, error)
	// ListAfter returns unpruned episodes with id > afterID and
	// id <= upToID, ordered by id ascending, capped at limit.
	ListAfter(ctx context.Context, afterID, upToID int64, limit int) ([]Episode, error)
	ListRecent(ctx context.Context, limit int) ([]Episode, error)
	// ListUnpruned returns all episodes whose payload is still present,
	// for the forgetting pass.
	ListUnpruned(ctx context.Context) ([]Episode, error)
	// MaxID returns the highest assigned episode id, 0 when empty.
	MaxID(ctx context.Context) (int64, error)
}

// BeliefStore is read-only outside the consolidation batch.
type BeliefStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Belief, error)
	List(ctx context.Context, includeArchived bool) ([]Belief, error)
	GetBySubject(ctx context.Context, subject string) ([]Belief, error)
}

// SkillStore is read-only outside the consolidation batch.
type SkillStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Skill, error)
	GetByName(ctx context.Context, name string) (*Skill, error)
	List(ctx context.Context) ([]Skill, error)
}

// GoalStore is written directly by the control loop; goal state is disjoint
// from everything the consolidation batch touches.
type GoalStore interface {
	Create(ctx context.Context, g *Goal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Goal, error)
	List(ctx context.Context) ([]Goal, error)
	Update(ctx context.Context, g *Goal) error
}

// SelfModelStore is read-only outside the consolidation batch.
type SelfModelStore interface {
	GetByCapability(ctx context.Context, capability string) (*SelfModelEntry, error)
	List(ctx context.Context) ([]SelfModelEntry, error)
}

// HypothesisStore accepts explicit registration and resolution from the
// control loop; promotion into beliefs happens through the batch.
type HypothesisStore interface {
	Create(ctx context.Context, h *Hypothesis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hypothesis, error)
	List(ctx context.Context) ([]Hypothesis, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status HypothesisStatus) error
	// ListVerifiedUnpromoted returns verified hypotheses not yet promoted
	// into a belief.
	ListVerifiedUnpromoted(ctx context.Context) ([]Hypothesis, error)
}

// HypothesisPromotion links a verified hypothesis to the belief minted
// from it inside a consolidation batch.
type HypothesisPromotion struct {
	HypothesisID uuid.UUID
	BeliefID     uuid.UUID
}

// ConsolidationBatch is everything a successful consolidation run commits.
// Either all of it is applied and the watermark advances to NewWatermark,
// or none of it is and the prior watermark stands.
type ConsolidationBatch struct {
	PriorWatermark   int64
	NewWatermark     int64
	BeliefUpserts    []Belief
	SkillUpserts     []Skill
	SelfModelUpserts []SelfModelEntry
	Promotions       []HypothesisPromotion
	SalienceUpdates  map[int64]float32
	PruneEpisodeIDs  []int64
}

// ConsolidationStore owns the watermark relation and the sole bulk-mutation
// path for beliefs, skills, self-model entries, and episode salience.
type ConsolidationStore interface {
	// Watermark returns the highest episode id processed by a committed
	// consolidation run, 0 before the first commit.
	Watermark(ctx context.Context) (int64, error)
	// ApplyBatch commits the batch atomically. It fails without side
	// effects when the stored watermark no longer equals
	// batch.PriorWatermark.
	ApplyBatch(ctx context.Context, batch *ConsolidationBatch) error
}

// Store bundles the per-entity relations of one physical backend.
type Store struct {
	Episodes      EpisodeStore
	Beliefs       BeliefStore
	Skills        SkillStore
	Goals         GoalStore
	SelfModel     SelfModelStore
	Hypotheses    HypothesisStore
	Consolidation ConsolidationStore
}

// EmbeddingClient is the optional similarity provider. Its absence drops
// the vector retrieval term, nothing else.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CandidateClaim is one belief candidate mined from an episode.
type CandidateClaim struct {
	Statement  string   `json:"statement"`
	Subject    string   `json:"subject"`
	Polarity   Polarity `json:"polarity"`
	Confidence float32  `json:"confidence"`
}

// ExtractionClient phrases candidate claims from raw episode text. The
// replay miner falls back to the deterministic heuristic extractor when the
// provider is absent or fails, so consolidation still produces output
// offline.
type ExtractionClient interface {
	ExtractClaims(ctx context.Context, text string) ([]CandidateClaim, error)
}
