package domain

import (
	"time"

	"github.com/google/uuid"
)

// Skill is a reusable procedure learned from action episodes. SuccessRate
// is updated only by the consolidator from episode outcomes that name the
// skill; callers never set it directly.
type Skill struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Preconditions string     `json:"preconditions,omitempty"`
	Steps         []string   `json:"steps,omitempty"`
	FailureModes  []string   `json:"failure_modes,omitempty"`
	SuccessRate   float32    `json:"success_rate"`
	UseCount      int        `json:"use_count"`
	EvidenceIDs   []int64    `json:"evidence_ids"`
	LastUsed      *time.Time `json:"last_used,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasEvidence reports whether the episode id is already cited.
func (s *Skill) HasEvidence(episodeID int64) bool {
	for _, e := range s.EvidenceIDs {
		if e == episodeID {
			return true
		}
	}
	return false
}

// AddEvidence cites an episode, skipping duplicates.
func (s *Skill) AddEvidence(episodeID int64) {
	if !s.HasEvidence(episodeID) {
		s.EvidenceIDs = append(s.EvidenceIDs, episodeID)
	}
}

// AddFailureMode records a failure mode, skipping duplicates.
func (s *Skill) AddFailureMode(mode string) {
	for _, m := range s.FailureModes {
		if m == mode {
			return
		}
	}
	s.FailureModes = append(s.FailureModes, mode)
}
