// Package normalize converts upstream webhook payloads of unknown shape into
// the canonical task, goal and profile structures. It never returns an error;
// failures produce an empty result flagged as degraded.
package normalize

import (
	"bytes"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// Kind names a resource the upstream serves.
type Kind string

const (
	KindTasks   Kind = "tasks"
	KindGoals   Kind = "goals"
	KindProfile Kind = "profile"
)

// IsValid reports whether k is a known resource kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindTasks, KindGoals, KindProfile:
		return true
	}
	return false
}

// Health distinguishes a truly empty result from one produced by a failure.
type Health struct {
	Degraded bool
	Reason   string
}

// OK is the health of a successful normalization.
var OK = Health{}

// Degraded builds a degraded health value.
func Degraded(reason string) Health {
	return Health{Degraded: true, Reason: reason}
}

// Result is implemented by every canonical result.
type Result interface {
	Status() Health
}

// TaskList is the canonical {tasks:[...]} shape.
type TaskList struct {
	Tasks  []models.Task `json:"tasks"`
	Health Health        `json:"-"`
}

func (l TaskList) Status() Health { return l.Health }

// GoalList is the canonical {goals:[...]} shape with the hoisted side fields.
type GoalList struct {
	Goals     []models.Goal `json:"goals"`
	Pekerjaan *string       `json:"pekerjaan,omitempty"`
	GoalState *string       `json:"status,omitempty"`
	Health    Health        `json:"-"`
}

func (l GoalList) Status() Health { return l.Health }

// ProfileList is the canonical {tasks:[profile]} shape. It always holds one record.
type ProfileList struct {
	Tasks  []models.Profile `json:"tasks"`
	Health Health           `json:"-"`
}

func (l ProfileList) Status() Health { return l.Health }

// Record returns the single profile record.
func (l ProfileList) Record() models.Profile {
	if len(l.Tasks) == 0 {
		return models.Profile{}
	}
	return l.Tasks[0]
}

// Normalizer holds the clock used for date defaults and a logger for dropped input.
type Normalizer struct {
	Now    func() time.Time
	Logger *zap.Logger
}

// New returns a Normalizer using the wall clock.
func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{Now: time.Now, Logger: utils.OrNop(logger)}
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func (n *Normalizer) log() *zap.Logger {
	return utils.OrNop(n.Logger)
}

func (n *Normalizer) today() string {
	return utils.DateOf(n.now()).String()
}

// Normalize dispatches on kind. Unknown kinds yield a degraded empty task list.
func (n *Normalizer) Normalize(kind Kind, raw []byte) Result {
	switch kind {
	case KindTasks:
		return n.Tasks(raw)
	case KindGoals:
		return n.Goals(raw)
	case KindProfile:
		return n.Profile(raw)
	}
	n.log().Warn("unknown resource kind", zap.String("kind", string(kind)))
	return TaskList{Tasks: []models.Task{}, Health: Degraded("unknown kind " + string(kind))}
}

// Empty returns the canonical empty result for kind with the given health.
func Empty(kind Kind, h Health) Result {
	switch kind {
	case KindGoals:
		return GoalList{Goals: []models.Goal{}, Health: h}
	case KindProfile:
		return ProfileList{Tasks: []models.Profile{{}}, Health: h}
	}
	return TaskList{Tasks: []models.Task{}, Health: h}
}

// decode parses raw. ok=false with OK health means the body was empty.
func (n *Normalizer) decode(kind Kind, raw []byte) (any, Health, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, OK, false
	}
	v, err := decodeOrdered(raw)
	if err != nil {
		n.log().Warn("upstream payload is not valid JSON",
			zap.String("kind", string(kind)), zap.Error(err))
		return nil, Degraded("invalid json"), false
	}
	return v, OK, true
}
