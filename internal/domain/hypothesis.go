package domain

import (
	"time"

	"github.com/google/uuid"
)

// HypothesisStatus is the lifecycle state of a hypothesis.
type HypothesisStatus string

const (
	HypothesisOpen     HypothesisStatus = "open"
	HypothesisVerified HypothesisStatus = "verified"
	HypothesisRejected HypothesisStatus = "rejected"
)

func ValidHypothesisStatus(s string) bool {
	switch HypothesisStatus(s) {
	case HypothesisOpen, HypothesisVerified, HypothesisRejected:
		return true
	}
	return false
}

// Hypothesis is an open question the operator is tracking. Verified
// hypotheses are promoted into proposed beliefs by the next consolidation
// run; rejected ones are retained for traceability, never deleted.
type Hypothesis struct {
	ID               uuid.UUID        `json:"id"`
	Claim            string           `json:"claim"`
	VerificationPlan string           `json:"verification_plan"`
	Confidence       float32          `json:"confidence"`
	Status           HypothesisStatus `json:"status"`
	EvidenceIDs      []int64          `json:"evidence_ids,omitempty"`
	PromotedBeliefID *uuid.UUID       `json:"promoted_belief_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
