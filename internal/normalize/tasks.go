package normalize

import (
	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/models"
)

// Tasks normalizes a tasks payload. Accepted shapes, in order:
//
//	{"tasks": [...]}
//	[...]                      (or [{"tasks": [...]}, ...])
//	{"anyKey": [...], ...}     first value is a list
//	{"id": taskLike, ...}      keyed object, one task per key
func (n *Normalizer) Tasks(raw []byte) TaskList {
	v, h, ok := n.decode(KindTasks, raw)
	if !ok {
		return TaskList{Tasks: []models.Task{}, Health: h}
	}

	switch t := v.(type) {
	case *object:
		if inner, ok := t.get("tasks"); ok {
			if list, ok := inner.([]any); ok {
				return TaskList{Tasks: n.taskElems(list)}
			}
		}
		if t.len() > 0 {
			if list, ok := t.vals[t.keys[0]].([]any); ok {
				return TaskList{Tasks: n.taskElems(list)}
			}
		}
		return TaskList{Tasks: n.keyedTasks(t)}
	case []any:
		if len(t) > 0 {
			if first, ok := t[0].(*object); ok {
				if inner, ok := first.get("tasks"); ok {
					if list, ok := inner.([]any); ok {
						return TaskList{Tasks: n.taskElems(list)}
					}
				}
			}
		}
		return TaskList{Tasks: n.taskElems(t)}
	}

	n.log().Warn("unrecognized tasks payload shape")
	return TaskList{Tasks: []models.Task{}, Health: Degraded("unrecognized shape")}
}

func (n *Normalizer) taskElems(list []any) []models.Task {
	out := make([]models.Task, 0, len(list))
	for i, elem := range list {
		obj, ok := elem.(*object)
		if !ok {
			n.log().Debug("dropping non-object task element", zap.Int("index", i))
			continue
		}
		out = append(out, coerceTask(obj))
	}
	return out
}

// coerceTask reads a task record field by field.
func coerceTask(o *object) models.Task {
	t := models.Task{
		PriorityScore: models.DefaultPriorityScore,
		Status:        models.StatusPending,
	}
	t.TaskID, _ = stringField(o, "task_id")
	t.TaskName, _ = stringField(o, "task_name")
	t.DueDate, _ = stringField(o, "due_date")
	t.Category, _ = stringField(o, "category")
	t.Reasoning, _ = stringField(o, "reasoning")
	if s, ok := stringField(o, "status"); ok && s != "" {
		t.Status = s
	}
	if v, ok := o.get("priority_score"); ok {
		if p, ok := asInt(v); ok {
			t.PriorityScore = models.ClampPriority(p)
		}
	}
	if v, ok := o.get("source"); ok {
		if s, ok := asInt(v); ok && (s == int(models.SourceManual) || s == int(models.SourceAI)) {
			t.Source = models.Source(s)
		}
	}
	if s, ok := stringField(o, "completed_date"); ok && s != "" {
		t.CompletedDate = &s
	}
	return t
}

func (n *Normalizer) keyedTasks(o *object) []models.Task {
	today := n.today()
	out := make([]models.Task, 0, o.len())
	for _, key := range o.keys {
		t := models.Task{
			TaskID:        key,
			TaskName:      key,
			DueDate:       today,
			Category:      "Other",
			Status:        models.StatusPending,
			PriorityScore: models.DefaultPriorityScore,
		}
		switch v := o.vals[key].(type) {
		case string:
			t.TaskName = v
		case *object:
			if name := firstString(v, "task_name", "title"); name != "" {
				t.TaskName = name
			}
			if s := firstString(v, "status"); s != "" {
				t.Status = s
			}
			if s := firstString(v, "due_date"); s != "" {
				t.DueDate = s
			}
			if s := firstString(v, "category"); s != "" {
				t.Category = s
			}
			t.Reasoning = firstString(v, "reasoning", "description")
			if pv, ok := v.get("priority_score"); ok {
				if p, ok := asInt(pv); ok {
					t.PriorityScore = models.ClampPriority(p)
				}
			}
			if s := firstString(v, "completed_date"); s != "" {
				t.CompletedDate = &s
			}
		}
		out = append(out, t)
	}
	return out
}
