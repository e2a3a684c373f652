package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BeliefStatus is the lifecycle state of a belief.
type BeliefStatus string

const (
	BeliefProposed  BeliefStatus = "proposed"
	BeliefConfirmed BeliefStatus = "confirmed"
	BeliefDisputed  BeliefStatus = "disputed"
	BeliefRetracted BeliefStatus = "retracted"
	BeliefArchived  BeliefStatus = "archived"
)

func ValidBeliefStatus(s string) bool {
	switch BeliefStatus(s) {
	case BeliefProposed, BeliefConfirmed, BeliefDisputed, BeliefRetracted, BeliefArchived:
		return true
	}
	return false
}

// Polarity is the asserted direction of a claim about its subject.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// Belief is a semantic claim with confidence and a dispute-aware lifecycle.
// Evidence and conflict links are identifier sets resolved through the store
// at read time, never embedded object references, so the cyclic conflict
// graph needs no traversal cleanup on retraction.
type Belief struct {
	ID               uuid.UUID    `json:"id"`
	Statement        string       `json:"statement"`
	Subject          string       `json:"subject"`
	Polarity         Polarity     `json:"polarity"`
	Confidence       float32      `json:"confidence"`
	Status           BeliefStatus `json:"status"`
	EvidenceIDs      []int64      `json:"evidence_ids"`
	ConflictsWithIDs []uuid.UUID  `json:"conflicts_with_ids"`
	Embedding        []float32    `json:"-"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// HasConflict reports whether id is already linked as a conflict.
func (b *Belief) HasConflict(id uuid.UUID) bool {
	for _, c := range b.ConflictsWithIDs {
		if c == id {
			return true
		}
	}
	return false
}

// AddConflict links id, skipping duplicates. Idempotent by design of the
// conflict-symmetry invariant.
func (b *Belief) AddConflict(id uuid.UUID) bool {
	if id == b.ID || b.HasConflict(id) {
		return false
	}
	b.ConflictsWithIDs = append(b.ConflictsWithIDs, id)
	return true
}

// HasEvidence reports whether the episode id is already cited.
func (b *Belief) HasEvidence(episodeID int64) bool {
	for _, e := range b.EvidenceIDs {
		if e == episodeID {
			return true
		}
	}
	return false
}

// AddEvidence cites an episode, skipping duplicates.
func (b *Belief) AddEvidence(episodeID int64) {
	if !b.HasEvidence(episodeID) {
		b.EvidenceIDs = append(b.EvidenceIDs, episodeID)
	}
}

var subjectCleaner = regexp.MustCompile(`[^a-z0-9 ]+`)

// NormalizeSubject canonicalizes a claim subject so that corroborating and
// contradicting candidates about the same topic collide on one key.
func NormalizeSubject(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = subjectCleaner.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
