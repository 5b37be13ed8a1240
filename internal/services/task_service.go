package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck-be/internal/models"
	ws "github.com/taskdeck/taskdeck-be/internal/websocket"
)

// TaskCreate carries the fields accepted when creating a task.
type TaskCreate struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    string // defaults to medium when empty
}

// TaskUpdate carries a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *string
	Status      *string
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context, userID int64) ([]models.Task, error)
	GetTask(ctx context.Context, id, userID int64) (models.Task, error)
	CreateTask(ctx context.Context, userID int64, in TaskCreate) (models.Task, error)
	UpdateTask(ctx context.Context, id, userID int64, in TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, id, userID int64) error
}

// TaskService provides business logic for task management. Every query is
// scoped to the owning user; there is no admin override for tasks.
type TaskService struct {
	db     *sql.DB
	hub    *ws.Hub
	events EventServiceProvider
}

// NewTaskService creates a new TaskService. hub and events may be nil in
// tests.
func NewTaskService(db *sql.DB, hub *ws.Hub, events EventServiceProvider) *TaskService {
	return &TaskService{db: db, hub: hub, events: events}
}

const taskColumns = "id, user_id, title, description, status, priority, due_date, created_at, updated_at"

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	return task, err
}

// ListTasks retrieves all tasks for a user, newest-created first.
func (s *TaskService) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task owned by the user. A task that exists but
// belongs to someone else is reported exactly like a missing one.
func (s *TaskService) GetTask(ctx context.Context, id, userID int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// CreateTask inserts a new task for the user.
func (s *TaskService) CreateTask(ctx context.Context, userID int64, in TaskCreate) (models.Task, error) {
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, status, priority, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+taskColumns,
		userID, in.Title, in.Description, models.StatusPending, priority, in.DueDate)
	task, err := scanTask(row)
	if err != nil {
		return models.Task{}, err
	}

	s.notify(ctx, "task.created", task)
	return task, nil
}

// UpdateTask applies a partial update to a task owned by the user.
func (s *TaskService) UpdateTask(ctx context.Context, id, userID int64, in TaskUpdate) (models.Task, error) {
	// Ownership check first so a foreign task 404s before any mutation.
	if _, err := s.GetTask(ctx, id, userID); err != nil {
		return models.Task{}, err
	}

	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.DueDate != nil {
		add("due_date", *in.DueDate)
	}
	if in.Priority != nil {
		add("priority", *in.Priority)
	}
	if in.Status != nil {
		add("status", *in.Status)
	}

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}

	s.notify(ctx, "task.updated", task)
	return task, nil
}

// DeleteTask removes a task owned by the user.
func (s *TaskService) DeleteTask(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	s.notify(ctx, "task.deleted", models.Task{ID: id, UserID: userID})
	return nil
}

// ListDueSoon retrieves unfinished tasks whose due date falls within the
// given window. Used by the reminder scanner.
func (s *TaskService) ListDueSoon(ctx context.Context, within time.Duration) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status <> $1 AND due_date IS NOT NULL AND due_date <= $2
		 ORDER BY due_date ASC`,
		models.StatusCompleted, time.Now().Add(within))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// notify pushes the task to its owner's websocket connections and records
// an audit event. Delivery failures never fail the request that caused them.
func (s *TaskService) notify(ctx context.Context, action string, task models.Task) {
	if s.hub != nil {
		s.hub.BroadcastToUser(task.UserID, ws.Message{Action: action, Payload: task}.Encode())
	}
	if s.events != nil {
		msg := fmt.Sprintf("%s (task %d)", action, task.ID)
		if err := s.events.CreateEvent(ctx, action, "info", msg, &task.UserID); err != nil {
			log.Warn().Err(err).Int64("task_id", task.ID).Msg("Failed to record task event")
		}
	}
}
