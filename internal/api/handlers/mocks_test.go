package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck-be/internal/auth"
	"github.com/taskdeck/taskdeck-be/internal/models"
	"github.com/taskdeck/taskdeck-be/internal/services"
)

// mockUserService implements services.UserServiceProvider with pluggable
// behavior per test.
type mockUserService struct {
	getByID      func(ctx context.Context, id int64) (models.User, error)
	create       func(ctx context.Context, name, email, password string) (models.User, error)
	update       func(ctx context.Context, id int64, name, email string) (models.User, error)
	list         func(ctx context.Context) ([]models.User, error)
	remove       func(ctx context.Context, id int64) error
	authenticate func(ctx context.Context, email, password string) (models.User, error)
}

func (m *mockUserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return m.getByID(ctx, id)
}

func (m *mockUserService) CreateUser(ctx context.Context, name, email, password string) (models.User, error) {
	return m.create(ctx, name, email, password)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id int64, name, email string) (models.User, error) {
	return m.update(ctx, id, name, email)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.list(ctx)
}

func (m *mockUserService) DeleteUser(ctx context.Context, id int64) error {
	return m.remove(ctx, id)
}

func (m *mockUserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	return m.authenticate(ctx, email, password)
}

// memTaskService is an in-memory services.TaskServiceProvider with the same
// ownership semantics as the real one: a task of another user behaves
// exactly like a missing task.
type memTaskService struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task
}

func newMemTaskService() *memTaskService {
	return &memTaskService{tasks: make(map[int64]models.Task)}
}

func (m *memTaskService) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTaskService) GetTask(ctx context.Context, id, userID int64) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return models.Task{}, services.ErrNotFound
	}
	return t, nil
}

func (m *memTaskService) CreateTask(ctx context.Context, userID int64, in services.TaskCreate) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	now := time.Now()
	t := models.Task{
		ID:          m.nextID,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memTaskService) UpdateTask(ctx context.Context, id, userID int64, in services.TaskUpdate) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return models.Task{}, services.ErrNotFound
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	t.UpdatedAt = time.Now().Add(time.Millisecond)
	m.tasks[id] = t
	return t, nil
}

func (m *memTaskService) DeleteTask(ctx context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return services.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// mockEventService implements services.EventServiceProvider, recording
// every entry.
type mockEventService struct {
	mu     sync.Mutex
	events []models.Event
}

func (m *mockEventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, models.Event{Type: eventType, Level: level, Message: message, UserID: userID})
	return nil
}

func (m *mockEventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.events) {
		limit = len(m.events)
	}
	return m.events[:limit], nil
}

// jsonRequest builds a request with a JSON body and, when claims are given,
// an identity already attached the way the auth middleware would.
func jsonRequest(method, target string, body interface{}, claims *auth.Claims) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
	}
	return req
}

func userClaims(id int64, role string) *auth.Claims {
	return &auth.Claims{UserID: id, Email: "user@example.com", Role: role}
}
