package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// Ack is the server's reply to a user action.
type Ack struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Note    string          `json:"note,omitempty"`
}

// NewTask is what the user types when adding a task.
type NewTask struct {
	Name      string
	DueDate   string
	Category  string
	Reasoning string
}

// Draft is an AI-suggested task awaiting confirmation.
type Draft struct {
	TaskID    string        `json:"task_id"`
	TaskName  string        `json:"task_name"`
	Category  string        `json:"category"`
	Reasoning string        `json:"reasoning"`
	DueDate   string        `json:"due_date"`
	Source    models.Source `json:"source,omitempty"`
}

type addTaskPayload struct {
	TaskName  string        `json:"task_name"`
	DueDate   string        `json:"due_date"`
	Category  string        `json:"category"`
	Reasoning string        `json:"reasoning"`
	TaskID    string        `json:"task_id"`
	Source    models.Source `json:"source"`
}

func (c *Controller) today() string {
	return utils.DateOf(c.now()).String()
}

// AddTask submits a manual task.
func (c *Controller) AddTask(ctx context.Context, t NewTask) (Ack, error) {
	if strings.TrimSpace(t.Name) == "" {
		return Ack{}, fmt.Errorf("task name is required")
	}
	return c.addTask(ctx, addTaskPayload{
		TaskName:  t.Name,
		DueDate:   t.DueDate,
		Category:  t.Category,
		Reasoning: t.Reasoning,
		TaskID:    models.NewTaskID(c.now()),
		Source:    models.SourceManual,
	})
}

// AcceptDraft submits an AI draft under the draft's task id.
func (c *Controller) AcceptDraft(ctx context.Context, d Draft) (Ack, error) {
	if d.TaskID == "" {
		d.TaskID = models.NewTaskID(c.now())
	}
	return c.addTask(ctx, addTaskPayload{
		TaskName:  d.TaskName,
		DueDate:   d.DueDate,
		Category:  d.Category,
		Reasoning: d.Reasoning,
		TaskID:    d.TaskID,
		Source:    models.SourceAI,
	})
}

func (c *Controller) addTask(ctx context.Context, p addTaskPayload) (Ack, error) {
	if p.DueDate == "" {
		p.DueDate = c.today()
	}
	var ack Ack
	if err := c.src.Post(ctx, "/webhook/add-task", p, &ack); err != nil {
		return Ack{}, fmt.Errorf("add task: %w", err)
	}
	return ack, nil
}

// SuggestTask asks for an AI draft from free text.
func (c *Controller) SuggestTask(ctx context.Context, raw string) (Draft, error) {
	if strings.TrimSpace(raw) == "" {
		return Draft{}, fmt.Errorf("describe the task first")
	}
	var reply struct {
		Task Draft `json:"task"`
	}
	if err := c.src.Post(ctx, "/webhook/add-task", map[string]string{"rawInput": raw}, &reply); err != nil {
		return Draft{}, fmt.Errorf("suggest task: %w", err)
	}
	if reply.Task.TaskName == "" {
		reply.Task.TaskName = raw
	}
	reply.Task.Source = models.SourceAI
	return reply.Task, nil
}

type statusPayload struct {
	TaskID        string  `json:"task_id"`
	Status        string  `json:"status"`
	DueDate       string  `json:"due_date,omitempty"`
	CompletedDate *string `json:"completed_date"`
}

// SetTaskStatus marks a task done or pending. Local state is updated first
// so the views reflect the change before the next poll.
func (c *Controller) SetTaskStatus(ctx context.Context, taskID string, done bool) (Ack, error) {
	status := models.StatusPending
	var completed *string
	if done {
		status = models.StatusDone
		ts := c.now().UTC().Format("2006-01-02T15:04:05.000Z")
		completed = &ts
	}

	due := c.updateTask(taskID, func(t *models.Task) {
		t.Status = status
		t.CompletedDate = completed
	})

	var ack Ack
	err := c.src.Post(ctx, "/webhook/task-done", statusPayload{
		TaskID:        taskID,
		Status:        status,
		DueDate:       due,
		CompletedDate: completed,
	}, &ack)
	if err != nil {
		return Ack{}, fmt.Errorf("update task %s: %w", taskID, err)
	}
	return ack, nil
}

type extendPayload struct {
	TaskID  string `json:"task_id"`
	DueDate string `json:"due_date"`
	Action  string `json:"action"`
}

// ExtendDueDate moves a task's due date by days from its current due date,
// or from today when it has none or it is already past.
func (c *Controller) ExtendDueDate(ctx context.Context, taskID string, days int) (Ack, error) {
	now := c.now()
	today := utils.DateOf(now)
	var newDue string
	c.updateTask(taskID, func(t *models.Task) {
		base := utils.ParseDate(t.DueDate, now)
		if !base.IsValid() || base.Before(today) {
			base = today
		}
		newDue = base.AddDays(days).String()
		t.DueDate = newDue
	})
	if newDue == "" {
		newDue = today.AddDays(days).String()
	}

	var ack Ack
	err := c.src.Post(ctx, "/webhook/task-done", extendPayload{TaskID: taskID, DueDate: newDue, Action: "extend_due_date"}, &ack)
	if err != nil {
		return Ack{}, fmt.Errorf("extend task %s: %w", taskID, err)
	}
	return ack, nil
}

// updateTask edits the first task with taskID and reclassifies. It returns
// the task's due date after the edit, or "" when the id is unknown.
func (c *Controller) updateTask(taskID string, edit func(*models.Task)) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := append([]models.Task(nil), c.state.Tasks...)
	for i := range tasks {
		if tasks[i].TaskID == taskID {
			edit(&tasks[i])
			c.applyTasksLocked(tasks)
			return tasks[i].DueDate
		}
	}
	return ""
}

// SendFeedback forwards free-text feedback.
func (c *Controller) SendFeedback(ctx context.Context, text string) (Ack, error) {
	if strings.TrimSpace(text) == "" {
		return Ack{}, fmt.Errorf("feedback is empty")
	}
	var ack Ack
	if err := c.src.Post(ctx, "/webhook/feedback", map[string]string{"feedback": text}, &ack); err != nil {
		return Ack{}, fmt.Errorf("send feedback: %w", err)
	}
	return ack, nil
}

// GoalUpdate edits one goal.
type GoalUpdate struct {
	GoalID      string            `json:"goalId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Progress    int               `json:"progress"`
	Status      models.GoalStatus `json:"status"`
	TargetDate  string            `json:"target_date,omitempty"`
}

// UpdateGoal sends a goal edit.
func (c *Controller) UpdateGoal(ctx context.Context, u GoalUpdate) (Ack, error) {
	if u.GoalID == "" {
		return Ack{}, fmt.Errorf("goal id is required")
	}
	if u.Status != "" && !u.Status.IsValid() {
		return Ack{}, fmt.Errorf("unknown goal status %q", u.Status)
	}
	u.Progress = models.ClampPriority(u.Progress)
	payload := struct {
		Action string `json:"action"`
		GoalUpdate
		Timestamp string `json:"timestamp"`
		TaskID    string `json:"task_id"`
	}{
		Action:     "update_goal",
		GoalUpdate: u,
		Timestamp:  c.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		TaskID:     models.NewTaskID(c.now()),
	}
	var ack Ack
	if err := c.src.Post(ctx, "/update-profile", payload, &ack); err != nil {
		return Ack{}, fmt.Errorf("update goal: %w", err)
	}
	return ack, nil
}

// UpdateProfile sends the user's job and status and refreshes the local cache.
func (c *Controller) UpdateProfile(ctx context.Context, job, status string) (Ack, error) {
	payload := map[string]string{
		"action":    "update_user_profile",
		"job":       job,
		"status":    status,
		"timestamp": c.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		"task_id":   models.NewTaskID(c.now()),
	}
	var ack Ack
	if err := c.src.Post(ctx, "/update-profile", payload, &ack); err != nil {
		return Ack{}, fmt.Errorf("update profile: %w", err)
	}

	c.mu.Lock()
	c.state.Profile.Job = job
	c.state.Profile.Status = status
	view := c.state.Profile
	c.mu.Unlock()

	cached, _ := c.loadCache()
	cached.Job = view.Job
	cached.Status = view.Status
	c.saveCache(cached)
	return ack, nil
}
