// Package classify sorts canonical tasks into the dashboard's four views.
package classify

import (
	"sort"
	"time"

	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

const (
	PriorityLimit  = 3
	ReminderLimit  = 5
	CompletedLimit = 3
)

// Buckets is the classifier output. Overdue is uncapped.
type Buckets struct {
	Priority  []models.Task `json:"priority"`
	Reminder  []models.Task `json:"reminder"`
	Overdue   []models.Task `json:"overdue"`
	Completed []models.Task `json:"completed"`
}

type entry struct {
	idx  int
	task models.Task
	due  utils.Date
}

// Classify assigns tasks to views relative to today's calendar day.
// Completed holds done tasks only; the other buckets never contain them.
// Priority and Reminder are disjoint; a task due today that misses the
// priority cut falls through to Reminder.
func Classify(tasks []models.Task, today time.Time) Buckets {
	day := utils.DateOf(today)

	var done, overdue, open []entry
	for i, t := range tasks {
		e := entry{idx: i, task: t, due: utils.ParseDate(t.DueDate, today)}
		if t.DueDate == "" {
			// absent due dates sort as far future, never overdue
			e.due = utils.InvalidDate
		}
		switch {
		case t.IsDone():
			done = append(done, e)
		case e.due.Before(day):
			overdue = append(overdue, e)
		default:
			open = append(open, e)
		}
	}

	// Priority candidates: not done and (not overdue or due today). Due
	// today is never overdue, so the open set is exactly that.
	priority := append([]entry(nil), open...)
	sort.SliceStable(priority, func(i, j int) bool {
		a, b := priority[i], priority[j]
		if a.task.PriorityScore != b.task.PriorityScore {
			return a.task.PriorityScore > b.task.PriorityScore
		}
		return ascending(a.due, b.due)
	})
	priority = limit(priority, PriorityLimit)

	picked := make(map[int]bool, len(priority))
	for _, e := range priority {
		picked[e.idx] = true
	}
	var reminder []entry
	for _, e := range open {
		if !picked[e.idx] {
			reminder = append(reminder, e)
		}
	}
	sort.SliceStable(reminder, func(i, j int) bool { return ascending(reminder[i].due, reminder[j].due) })
	reminder = limit(reminder, ReminderLimit)

	sort.SliceStable(overdue, func(i, j int) bool { return ascending(overdue[i].due, overdue[j].due) })

	sort.SliceStable(done, func(i, j int) bool { return descending(done[i].due, done[j].due) })
	done = limit(done, CompletedLimit)

	return Buckets{
		Priority:  tasksOf(priority),
		Reminder:  tasksOf(reminder),
		Overdue:   tasksOf(overdue),
		Completed: tasksOf(done),
	}
}

// ascending orders by date with missing or invalid dates last.
func ascending(a, b utils.Date) bool {
	switch {
	case !a.IsValid():
		return false
	case !b.IsValid():
		return true
	}
	return a.Before(b)
}

// descending orders newest first with missing or invalid dates last.
func descending(a, b utils.Date) bool {
	switch {
	case !a.IsValid():
		return false
	case !b.IsValid():
		return true
	}
	return a.After(b)
}

func limit(es []entry, n int) []entry {
	if len(es) > n {
		return es[:n]
	}
	return es
}

func tasksOf(es []entry) []models.Task {
	out := make([]models.Task, len(es))
	for i, e := range es {
		out[i] = e.task
	}
	return out
}

// IsDueToday reports whether t is due on today's calendar day. A missing
// due date or the today sentinel counts as today; sorting still places such
// tasks last.
func IsDueToday(t models.Task, today time.Time) bool {
	return utils.ParseDate(t.DueDate, today).Equal(utils.DateOf(today))
}

// Summary is the overall completion figure shown next to the views.
type Summary struct {
	Done      int `json:"done"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
	Percent   int `json:"percent"`
}

// Progress counts done tasks. Percent is rounded to the nearest integer.
func Progress(tasks []models.Task) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsDone() {
			s.Done++
		}
	}
	s.Remaining = s.Total - s.Done
	if s.Total > 0 {
		s.Percent = (s.Done*100 + s.Total/2) / s.Total
	}
	return s
}
