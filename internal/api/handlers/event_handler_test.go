package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-be/internal/api/handlers"
	"github.com/taskdeck/taskdeck-be/internal/models"
)

func TestEventList(t *testing.T) {
	events := &mockEventService{}
	uid := int64(1)
	require.NoError(t, events.CreateEvent(t.Context(), "task.created", "info", "task.created (task 1)", &uid))

	r := chi.NewRouter()
	r.Get("/api/events", handlers.NewEventHandler(events).List)

	t.Run("forbidden for non-admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/events", nil, userClaims(1, models.RoleUser)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reads the log", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/events", nil, userClaims(2, models.RoleAdmin)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "task.created")
	})

	t.Run("limit out of range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/events?limit=5000", nil, userClaims(2, models.RoleAdmin)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
