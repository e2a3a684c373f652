package domain

import "time"

// SelfModelEntry tracks the operator's own reliability at a capability.
// Keyed by capability name. ReliabilityScore is recomputed from skill
// success-rate history during consolidation, never set by callers.
type SelfModelEntry struct {
	Capability       string    `json:"capability"`
	ReliabilityScore float32   `json:"reliability_score"`
	Limitations      []string  `json:"limitations,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
