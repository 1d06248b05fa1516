package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/auth"
	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// ActionExtendDueDate marks a task-done request that only moves the due date.
const ActionExtendDueDate = "extend_due_date"

type addTaskRequest struct {
	TaskName  string        `json:"task_name"`
	DueDate   string        `json:"due_date"`
	Category  string        `json:"category"`
	Reasoning string        `json:"reasoning"`
	TaskID    string        `json:"task_id"`
	Source    models.Source `json:"source"`
	RawInput  string        `json:"rawInput"`
}

type upstreamTask struct {
	TaskName  string        `json:"task_name"`
	DueDate   string        `json:"due_date"`
	Category  string        `json:"category"`
	Reasoning string        `json:"reasoning"`
	TaskID    string        `json:"task_id"`
	Source    models.Source `json:"source"`
	Timestamp string        `json:"timestamp"`
}

type suggestRequest struct {
	RawInput  string        `json:"rawInput"`
	Source    models.Source `json:"source"`
	TaskID    string        `json:"task_id"`
	Timestamp string        `json:"timestamp"`
}

// Draft is the fallback AI suggestion returned when upstream cannot answer.
type Draft struct {
	TaskID    string        `json:"task_id"`
	TaskName  string        `json:"task_name"`
	Category  string        `json:"category"`
	Reasoning string        `json:"reasoning"`
	DueDate   string        `json:"due_date"`
	Source    models.Source `json:"source"`
}

// handleAddTask creates a task, or asks upstream for an AI draft when
// rawInput is present.
func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.RawInput) != "" {
		s.suggestTask(w, r, req.RawInput)
		return
	}
	if strings.TrimSpace(req.TaskName) == "" {
		badRequest(w, "task_name is required")
		return
	}

	due, err := utils.ParseDateStrict(req.DueDate, s.today())
	if err != nil {
		badRequest(w, "due_date: "+err.Error())
		return
	}
	if req.TaskID == "" {
		req.TaskID = models.NewTaskID(s.now())
	}
	source := models.SourceManual
	if req.Source == models.SourceAI {
		source = models.SourceAI
	}

	_, err = s.upstream.Post(r.Context(), "/webhook/add-task", upstreamTask{
		TaskName:  req.TaskName,
		DueDate:   due.String(),
		Category:  req.Category,
		Reasoning: req.Reasoning,
		TaskID:    req.TaskID,
		Source:    source,
		Timestamp: s.timestamp(),
	})
	if err != nil {
		s.logger.Warn("add-task forward failed", zap.String("task_id", req.TaskID), zap.Error(err))
	}
	auth.JSONResponse(w, http.StatusOK, ack{
		Success: true,
		Message: ackMessage("Task added", "Task added successfully", err),
		Data:    map[string]string{"task_id": req.TaskID},
	})
}

func (s *Server) suggestTask(w http.ResponseWriter, r *http.Request, raw string) {
	id := models.NewTaskID(s.now())
	body, err := s.upstream.Post(r.Context(), "/webhook/add-task", suggestRequest{
		RawInput:  raw,
		Source:    models.SourceAI,
		TaskID:    id,
		Timestamp: s.timestamp(),
	})
	if err == nil && json.Valid(body) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	reason := "invalid json"
	if err != nil {
		reason = fetchReason(err)
	}
	s.logger.Warn("ai suggestion unavailable, returning fallback draft", zap.String("reason", reason))
	w.Header().Set(DegradedHeader, reason)
	auth.JSONResponse(w, http.StatusOK, map[string]Draft{"task": {
		TaskID:    id,
		TaskName:  raw,
		Category:  "AI Generated",
		Reasoning: "Generated by AI assistant",
		DueDate:   utils.DateOf(s.today()).String(),
		Source:    models.SourceAI,
	}})
}

type taskDoneRequest struct {
	TaskID        string  `json:"task_id"`
	Status        string  `json:"status"`
	DueDate       string  `json:"due_date"`
	CompletedDate *string `json:"completed_date"`
	Action        string  `json:"action"`
}

type upstreamTaskDone struct {
	TaskID        string  `json:"task_id"`
	Status        string  `json:"status,omitempty"`
	DueDate       string  `json:"due_date,omitempty"`
	CompletedDate *string `json:"completed_date,omitempty"`
	Action        string  `json:"action,omitempty"`
	Timestamp     string  `json:"timestamp"`
}

// handleTaskDone forwards a status toggle or a due-date extension.
func (s *Server) handleTaskDone(w http.ResponseWriter, r *http.Request) {
	var req taskDoneRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.TaskID == "" {
		badRequest(w, "task_id is required")
		return
	}

	out := upstreamTaskDone{TaskID: req.TaskID, Timestamp: s.timestamp()}
	base, okMsg := "Task status updated", "Task status updated successfully"

	switch req.Action {
	case ActionExtendDueDate:
		if strings.TrimSpace(req.DueDate) == "" {
			badRequest(w, "due_date is required")
			return
		}
		due, err := utils.ParseDateStrict(req.DueDate, s.today())
		if err != nil {
			badRequest(w, "due_date: "+err.Error())
			return
		}
		out.DueDate = due.String()
		out.Action = ActionExtendDueDate
		base, okMsg = "Due date updated", "Due date updated successfully"
	case "":
		status := strings.ToLower(strings.TrimSpace(req.Status))
		if status != models.StatusDone && status != models.StatusPending {
			badRequest(w, "status must be done or pending")
			return
		}
		out.Status = status
		out.DueDate = req.DueDate
		out.CompletedDate = req.CompletedDate
	default:
		badRequest(w, "unknown action "+req.Action)
		return
	}

	_, err := s.upstream.Post(r.Context(), "/webhook/task-done", out)
	if err != nil {
		s.logger.Warn("task-done forward failed", zap.String("task_id", req.TaskID), zap.Error(err))
	}
	auth.JSONResponse(w, http.StatusOK, ack{Success: true, Message: ackMessage(base, okMsg, err)})
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

type upstreamFeedback struct {
	Feedback  string `json:"feedback"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Feedback) == "" {
		badRequest(w, "feedback is required")
		return
	}
	_, err := s.upstream.Post(r.Context(), "/webhook/feedback", upstreamFeedback{
		Feedback:  req.Feedback,
		Timestamp: s.timestamp(),
		Source:    "dashboard",
	})
	if err != nil {
		s.logger.Warn("feedback forward failed", zap.Error(err))
	}
	auth.JSONResponse(w, http.StatusOK, ack{Success: true, Message: ackMessage("Feedback sent", "Feedback sent successfully", err)})
}

var (
	profileFields = []string{"job", "status", "timestamp", "task_id"}
	goalFields    = []string{"goalId", "title", "description", "progress", "status", "target_date", "timestamp", "task_id"}
)

// handleUpdateProfile dispatches on action: update_user_profile (alias
// update_profile), update_goal, or anything else which is only logged.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	action, _ := body["action"].(string)
	data := make(map[string]any, len(body))
	for k, v := range body {
		if k != "action" {
			data[k] = v
		}
	}

	var kind, label string
	var fields []string
	switch action {
	case "update_profile", "update_user_profile":
		kind, label, fields = "user_profile_update", "User profile", profileFields
	case "update_goal":
		kind, label, fields = "goal_update", "Goal", goalFields
	default:
		s.logger.Info("update-profile with unknown action", zap.String("action", action))
		auth.JSONResponse(w, http.StatusOK, ack{
			Success: true,
			Message: "Data logged successfully (unknown action type)",
			Data:    body,
			Note:    "Unknown action type, but data was logged",
		})
		return
	}

	payload := map[string]any{"type": kind}
	for _, f := range fields {
		if v, ok := data[f]; ok {
			payload[f] = v
		}
	}
	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = s.timestamp()
	}

	var result any
	err := s.upstream.PostJSON(r.Context(), "/webhook/update-profile", payload, &result)

	switch {
	case err == nil:
		auth.JSONResponse(w, http.StatusOK, ack{Success: true, Message: label + " updated successfully", Data: result})
	case utils.FetchErrorKind(err) == utils.FetchStatus:
		s.logger.Warn("update-profile webhook error", zap.String("type", kind), zap.Error(err))
		auth.JSONResponse(w, http.StatusOK, ack{
			Success: true,
			Message: label + " data logged successfully (upstream webhook not available)",
			Data:    data,
			Note:    "Upstream webhook returned error - please check webhook configuration",
		})
	default:
		s.logger.Warn("update-profile forward failed", zap.String("type", kind), zap.Error(err))
		auth.JSONResponse(w, http.StatusOK, ack{
			Success: true,
			Message: "Data logged successfully (network error)",
			Data:    body,
			Note:    "Network error occurred, but data was logged",
		})
	}
}
