package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck-be/internal/models"
	ws "github.com/taskdeck/taskdeck-be/internal/websocket"
)

// dueSoonLister is the slice of the task service the reminder needs.
type dueSoonLister interface {
	ListDueSoon(ctx context.Context, within time.Duration) ([]models.Task, error)
}

// Reminder periodically scans for unfinished tasks that are due within the
// next 24 hours and pushes a reminder to their owners over the hub.
type Reminder struct {
	tasks    dueSoonLister
	hub      *ws.Hub
	schedule cron.Schedule
	done     chan bool

	// Task IDs already reminded, with the time of the reminder. One
	// reminder per task per day.
	notified map[int64]time.Time
}

// NewReminder creates a reminder scanner from a standard cron expression.
func NewReminder(tasks dueSoonLister, hub *ws.Hub, cronExpr string) (*Reminder, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule: %w", err)
	}
	return &Reminder{
		tasks:    tasks,
		hub:      hub,
		schedule: schedule,
		done:     make(chan bool),
		notified: make(map[int64]time.Time),
	}, nil
}

// Run starts the scanning loop. Blocks until Stop is called.
func (r *Reminder) Run() {
	log.Info().Msg("Starting due-date reminder scanner...")
	for {
		next := r.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-r.done:
			timer.Stop()
			log.Info().Msg("Stopping due-date reminder scanner.")
			return
		case <-timer.C:
			r.scan()
		}
	}
}

// Stop halts the scanner.
func (r *Reminder) Stop() {
	r.done <- true
}

func (r *Reminder) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tasks, err := r.tasks.ListDueSoon(ctx, 24*time.Hour)
	if err != nil {
		log.Error().Err(err).Msg("Failed to scan for due tasks")
		return
	}

	now := time.Now()
	for _, task := range tasks {
		if last, ok := r.notified[task.ID]; ok && now.Sub(last) < 24*time.Hour {
			continue
		}
		r.notified[task.ID] = now
		r.hub.BroadcastToUser(task.UserID, ws.Message{Action: "task.due_soon", Payload: task}.Encode())
		log.Info().Int64("task_id", task.ID).Int64("user_id", task.UserID).Msg("Sent due-date reminder")
	}

	// Drop bookkeeping for tasks that are no longer in the window.
	current := make(map[int64]bool, len(tasks))
	for _, task := range tasks {
		current[task.ID] = true
	}
	for id := range r.notified {
		if !current[id] {
			delete(r.notified, id)
		}
	}
}
