package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck-be/internal/auth"
	"github.com/taskdeck/taskdeck-be/internal/metrics"
	"github.com/taskdeck/taskdeck-be/internal/models"
	"github.com/taskdeck/taskdeck-be/internal/services"
)

// TaskHandler handles HTTP requests for task management. Ownership is
// enforced by the service layer: a task that exists but is not the caller's
// comes back as "Task not found", never as a forbidden error, so foreign
// task IDs cannot be probed.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    string  `json:"priority"`
}

// UpdateTaskPayload defines a partial task update; absent fields are left
// untouched.
type UpdateTaskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// List retrieves all tasks of the authenticated user, newest first.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to list tasks")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// Get retrieves a single task owned by the authenticated user.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.service.GetTask(r.Context(), id, claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		log.Error().Err(err).Int64("task_id", id).Msg("Failed to get task")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"task": task})
}

// Create handles task creation for the authenticated user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var payload CreateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if payload.Priority != "" && !models.ValidPriority(payload.Priority) {
		writeError(w, http.StatusBadRequest, "Invalid priority")
		return
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date")
		return
	}

	task, err := h.service.CreateTask(r.Context(), claims.UserID, services.TaskCreate{
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     dueDate,
		Priority:    payload.Priority,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to create task")
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	metrics.IncTaskMutation("create")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

// Update applies a partial update to a task owned by the authenticated user.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	var payload UpdateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Status != nil && !models.ValidStatus(*payload.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if payload.Priority != nil && !models.ValidPriority(*payload.Priority) {
		writeError(w, http.StatusBadRequest, "Invalid priority")
		return
	}
	if payload.Title != nil && *payload.Title == "" {
		// An empty title never overwrites the existing one.
		payload.Title = nil
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, claims.UserID, services.TaskUpdate{
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     dueDate,
		Priority:    payload.Priority,
		Status:      payload.Status,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		log.Error().Err(err).Int64("task_id", id).Msg("Failed to update task")
		writeError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	metrics.IncTaskMutation("update")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// Delete removes a task owned by the authenticated user.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.service.DeleteTask(r.Context(), id, claims.UserID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		log.Error().Err(err).Int64("task_id", id).Msg("Failed to delete task")
		writeError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	metrics.IncTaskMutation("delete")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// parseDueDate accepts a date ("2006-01-02") or an RFC 3339 timestamp.
func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", *s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
