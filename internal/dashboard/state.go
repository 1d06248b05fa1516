// Package dashboard is the client side of taskboard: it owns the dashboard
// state, loads it from the server, and keeps it fresh with a poller.
package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/harrylevesque/taskboard/internal/classify"
	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/normalize"
)

// State is everything the dashboard renders. Values handed out by the
// controller are copies.
type State struct {
	Tasks            []models.Task      `json:"tasks"`
	Goals            []models.Goal      `json:"goals"`
	Profile          models.ProfileView `json:"profile"`
	ProfileFromCache bool               `json:"profile_from_cache"`
	Buckets          classify.Buckets   `json:"buckets"`
	Summary          classify.Summary   `json:"summary"`
	Hash             string             `json:"hash"`
	Degraded         []string           `json:"degraded,omitempty"`
	LoadedAt         time.Time          `json:"loaded_at"`
}

func (s State) clone() State {
	out := s
	out.Tasks = append([]models.Task(nil), s.Tasks...)
	out.Goals = append([]models.Goal(nil), s.Goals...)
	out.Degraded = append([]string(nil), s.Degraded...)
	return out
}

// Fingerprint hashes (task_id, status, due_date) of every task, independent
// of order.
func Fingerprint(tasks []models.Task) string {
	rows := make([]string, len(tasks))
	for i, t := range tasks {
		rows[i] = t.TaskID + "\x1f" + strings.ToLower(t.Status) + "\x1f" + t.DueDate
	}
	sort.Strings(rows)
	sum := sha256.Sum256([]byte(strings.Join(rows, "\x1e")))
	return hex.EncodeToString(sum[:])
}

// BuildProfileView applies display precedence: the goals payload's
// pekerjaan and status win over the profile's category and mental_problem.
func BuildProfileView(p models.Profile, goals normalize.GoalList) models.ProfileView {
	return models.ProfileView{
		Job:                      first("-", goals.Pekerjaan, p.Category),
		Status:                   first("-", goals.GoalState, p.MentalProblem),
		MotivationalQuote:        first("", p.MotivationalQuote),
		MentalSolution:           first("", p.MentalSolution),
		RecommendedPrioritySlots: p.RecommendedPrioritySlots,
	}
}

func first(def string, vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return def
}
