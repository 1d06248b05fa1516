package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/harrylevesque/taskboard/internal/crypto"
)

// Source records how a task was created.
type Source int

const (
	SourceManual Source = 1
	SourceAI     Source = 2
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// DefaultPriorityScore is used when upstream omits or garbles priority_score.
const DefaultPriorityScore = 50

// Task is the canonical task record.
type Task struct {
	TaskID        string  `json:"task_id"`
	TaskName      string  `json:"task_name"`
	DueDate       string  `json:"due_date,omitempty"`
	Category      string  `json:"category,omitempty"`
	Reasoning     string  `json:"reasoning"`
	Status        string  `json:"status"`
	PriorityScore int     `json:"priority_score"`
	Source        Source  `json:"source,omitempty"`
	CompletedDate *string `json:"completed_date,omitempty"`
}

// IsDone reports whether the task status is done, ignoring case.
func (t Task) IsDone() bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), StatusDone)
}

// ClampPriority bounds a score to 0..100.
func ClampPriority(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewTaskID returns an id of the form "T" + base36(unix millis) + two random
// base36 characters, upper-cased.
func NewTaskID(now time.Time) string {
	rnd := crypto.MustRandom(2)
	suffix := []byte{idAlphabet[int(rnd[0])%36], idAlphabet[int(rnd[1])%36]}
	return strings.ToUpper("T" + strconv.FormatInt(now.UnixMilli(), 36) + string(suffix))
}
