package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/usergate/internal/middleware"
	"github.com/penshort/usergate/internal/model"
	"github.com/penshort/usergate/internal/policy"
)

// UserService is the user service client as seen by the handlers.
type UserService interface {
	GetUser(ctx context.Context) (model.User, error)
	IsAdmin(ctx context.Context) bool
	IsInfluencer(ctx context.Context) bool
	Paginate(ctx context.Context, page int) ([]map[string]any, error)
	Find(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, data map[string]any) (model.User, error)
	Update(ctx context.Context, id string, data map[string]any) (model.User, error)
	Delete(ctx context.Context, id string) bool
	Allows(ctx context.Context, ability string, args ...any) (*policy.Response, error)
}

// UserHandler exposes the user service client over HTTP.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Me returns the caller's user record.
// GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context())
	if err != nil {
		h.fail(w, r, "get current user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Admin reports whether the caller is an administrator.
// GET /api/v1/me/admin
func (h *UserHandler) Admin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"admin": h.users.IsAdmin(r.Context())})
}

// Influencer reports whether the caller is an influencer.
// GET /api/v1/me/influencer
func (h *UserHandler) Influencer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"influencer": h.users.IsInfluencer(r.Context())})
}

// List returns one page of users.
// GET /api/v1/users?page=N
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "INVALID_PAGE", "page must be a positive integer")
			return
		}
		page = p
	}

	items, err := h.users.Paginate(r.Context(), page)
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get returns a single user.
// GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "find user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create creates a user.
// POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeObject(w, r)
	if !ok {
		return
	}

	user, err := h.users.Create(r.Context(), data)
	if err != nil {
		h.fail(w, r, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update updates a user.
// PUT /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeObject(w, r)
	if !ok {
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete deletes a user.
// The user service outcome is a bare success flag, so any failure is
// reported as 502 without further detail.
// DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.users.Delete(r.Context(), chi.URLParam(r, "id")) {
		middleware.WriteError(w, http.StatusBadGateway, "DELETE_FAILED", "User service did not delete the user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuthorizeRequest is the body of an ability check.
type AuthorizeRequest struct {
	Ability   string `json:"ability"`
	Arguments []any  `json:"arguments"`
}

// Authorize checks an ability for the caller.
// POST /api/v1/authorize
func (h *UserHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if req.Ability == "" {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "ability is required")
		return
	}

	res, err := h.users.Allows(r.Context(), req.Ability, req.Arguments...)
	if err != nil {
		h.fail(w, r, "authorize", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var authErr *policy.AuthorizationError
	if !errors.As(err, &authErr) {
		h.logger.Error("user service call failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	middleware.WriteClientError(w, err)
}

// decodeObject reads a JSON object body. It writes a 400 and returns false
// when the body is not an object.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	err := json.NewDecoder(r.Body).Decode(&data)

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return nil, false
	case errors.Is(err, io.EOF):
		middleware.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is required")
		return nil, false
	case err != nil || data == nil:
		middleware.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON object")
		return nil, false
	}
	return data, true
}
