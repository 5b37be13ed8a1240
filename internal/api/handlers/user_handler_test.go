package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-be/internal/api/handlers"
	"github.com/taskdeck/taskdeck-be/internal/models"
	"github.com/taskdeck/taskdeck-be/internal/services"
)

func newUserRouter(h *handlers.UserHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func TestGetMe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockUserService{
			getByID: func(ctx context.Context, id int64) (models.User, error) {
				return models.User{ID: id, Name: "Me", Email: "me@example.com", Role: models.RoleUser}, nil
			},
		}
		router := newUserRouter(handlers.NewUserHandler(svc))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/users/me", nil, userClaims(5, models.RoleUser)))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			User models.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(5), resp.User.ID)
		// The password hash never serializes.
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("account deleted since token issuance", func(t *testing.T) {
		svc := &mockUserService{
			getByID: func(ctx context.Context, id int64) (models.User, error) {
				return models.User{}, services.ErrNotFound
			},
		}
		router := newUserRouter(handlers.NewUserHandler(svc))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/users/me", nil, userClaims(5, models.RoleUser)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateMe(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		router := newUserRouter(handlers.NewUserHandler(&mockUserService{}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/users/me",
			map[string]string{}, userClaims(5, models.RoleUser)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No data provided for update")
	})

	t.Run("email conflict", func(t *testing.T) {
		svc := &mockUserService{
			update: func(ctx context.Context, id int64, name, email string) (models.User, error) {
				return models.User{}, services.ErrEmailTaken
			},
		}
		router := newUserRouter(handlers.NewUserHandler(svc))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/users/me",
			map[string]string{"email": "taken@example.com"}, userClaims(5, models.RoleUser)))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email already in use")
	})

	t.Run("success uses identity from context only", func(t *testing.T) {
		var gotID int64
		svc := &mockUserService{
			update: func(ctx context.Context, id int64, name, email string) (models.User, error) {
				gotID = id
				return models.User{ID: id, Name: name, Email: "me@example.com", Role: models.RoleUser}, nil
			},
		}
		router := newUserRouter(handlers.NewUserHandler(svc))

		// A client-supplied id field must be ignored.
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/users/me",
			map[string]interface{}{"id": 999, "name": "Renamed"}, userClaims(5, models.RoleUser)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(5), gotID)
	})
}

func TestListUsers(t *testing.T) {
	svc := &mockUserService{
		list: func(ctx context.Context) ([]models.User, error) {
			return []models.User{
				{ID: 1, Name: "Admin", Role: models.RoleAdmin},
				{ID: 2, Name: "User", Role: models.RoleUser},
			}, nil
		},
	}
	router := newUserRouter(handlers.NewUserHandler(svc))

	t.Run("forbidden for non-admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/users", nil, userClaims(2, models.RoleUser)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Unauthorized access")
	})

	t.Run("full list for admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodGet, "/api/users", nil, userClaims(1, models.RoleAdmin)))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Users []models.User `json:"users"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Users, 2)
	})
}

func TestDeleteUser(t *testing.T) {
	newService := func(deleted *int64) *mockUserService {
		return &mockUserService{
			remove: func(ctx context.Context, id int64) error {
				if id == 99 {
					return services.ErrNotFound
				}
				if deleted != nil {
					*deleted = id
				}
				return nil
			},
		}
	}

	t.Run("forbidden for non-admin deleting another account", func(t *testing.T) {
		router := newUserRouter(handlers.NewUserHandler(newService(nil)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodDelete, "/api/users/2", nil, userClaims(5, models.RoleUser)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("self deletion allowed", func(t *testing.T) {
		var deleted int64
		router := newUserRouter(handlers.NewUserHandler(newService(&deleted)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodDelete, "/api/users/5", nil, userClaims(5, models.RoleUser)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(5), deleted)
	})

	t.Run("admin may delete anyone", func(t *testing.T) {
		var deleted int64
		router := newUserRouter(handlers.NewUserHandler(newService(&deleted)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodDelete, "/api/users/7", nil, userClaims(1, models.RoleAdmin)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(7), deleted)
	})

	t.Run("missing target", func(t *testing.T) {
		router := newUserRouter(handlers.NewUserHandler(newService(nil)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, jsonRequest(http.MethodDelete, "/api/users/99", nil, userClaims(1, models.RoleAdmin)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
