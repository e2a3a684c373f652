package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// EpisodeKind classifies what produced an episode.
type EpisodeKind string

const (
	EpisodeAction      EpisodeKind = "action"
	EpisodeObservation EpisodeKind = "observation"
	EpisodePerception  EpisodeKind = "perception"
	EpisodeSystem      EpisodeKind = "system"
)

func ValidEpisodeKind(k string) bool {
	switch EpisodeKind(k) {
	case EpisodeAction, EpisodeObservation, EpisodePerception, EpisodeSystem:
		return true
	}
	return false
}

// OutcomeType represents the result of an action episode.
type OutcomeType string

const (
	OutcomeSuccess OutcomeType = "success"
	OutcomeFailure OutcomeType = "failure"
	OutcomeNeutral OutcomeType = "neutral"
	OutcomeUnknown OutcomeType = "unknown"
)

func ValidOutcomeType(s string) bool {
	switch OutcomeType(s) {
	case OutcomeSuccess, OutcomeFailure, OutcomeNeutral, OutcomeUnknown:
		return true
	}
	return false
}

// EpisodePayload is the content of an episode. Text is free-form; the
// structured fields let the consolidator attribute outcomes to skills
// without re-parsing prose. Verified marks the payload as ground truth,
// which lifts the <1.0 confidence cap on claims mined from it.
type EpisodePayload struct {
	Text      string      `json:"text"`
	SkillName string      `json:"skill_name,omitempty"`
	Outcome   OutcomeType `json:"outcome,omitempty"`
	Verified  bool        `json:"verified,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
}

// Episode is an immutable record of something observed or done. Once
// written only its salience changes (forgetting decay), and eventually the
// payload may be pruned while the content hash and timestamps survive.
type Episode struct {
	ID          int64          `json:"id"`
	Kind        EpisodeKind    `json:"kind"`
	Payload     EpisodePayload `json:"payload"`
	Salience    float32        `json:"salience"`
	ContentHash string         `json:"content_hash"`
	Pruned      bool           `json:"pruned"`
	PrunedAt    *time.Time     `json:"pruned_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HashPayload computes the stable content hash for an episode. The hash is
// taken over the kind and the payload fields so it can be recomputed for
// audit before the row is pruned, and compared after.
func HashPayload(kind EpisodeKind, p EpisodePayload) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{0})
	h.Write([]byte(p.Text))
	h.Write([]byte{0})
	h.Write([]byte(p.SkillName))
	h.Write([]byte{0})
	h.Write([]byte(string(p.Outcome)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(p.Tags, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
