package models

import "fmt"

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

// IsValid reports whether s is one of the known goal states.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalCompleted:
		return true
	}
	return false
}

// Goal is the canonical goal record.
type Goal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      GoalStatus `json:"status"`
	Progress    int        `json:"progress"`
	TargetDate  *string    `json:"target_date"`
	Category    string     `json:"category,omitempty"`
}

// GoalID formats the ordinal id used for goals without a native id.
func GoalID(ordinal int) string {
	return fmt.Sprintf("goal_%03d", ordinal)
}
