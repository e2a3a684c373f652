package domain

import (
	"time"

	"github.com/google/uuid"
)

// GoalStatus is the lifecycle state of a goal. Completed and abandoned are
// terminal: no further progress updates are accepted.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalBlocked   GoalStatus = "blocked"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

func ValidGoalStatus(s string) bool {
	switch GoalStatus(s) {
	case GoalActive, GoalBlocked, GoalCompleted, GoalAbandoned:
		return true
	}
	return false
}

// Terminal reports whether the status accepts no further updates.
func (s GoalStatus) Terminal() bool {
	return s == GoalCompleted || s == GoalAbandoned
}

// Goal is created and updated by the control loop. The consolidator
// consults goals (retrieval boosting) but never mutates them.
type Goal struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	Status      GoalStatus `json:"status"`
	Priority    int        `json:"priority"`
	Progress    float32    `json:"progress"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
