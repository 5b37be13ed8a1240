package models

import "time"

// Event is an audit log entry for auth and task activity.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g. "user.registered", "task.created"
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	UserID    *int64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
