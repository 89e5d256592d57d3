// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/penshort/usergate/internal/middleware"
)

// Version is reported by the info endpoint.
const Version = "0.1.0"

// Handler serves the gateway's informational routes.
type Handler struct {
	usersEndpoint string
}

// New creates a new Handler instance.
func New(usersEndpoint string) *Handler {
	return &Handler{usersEndpoint: usersEndpoint}
}

// Info describes the gateway. The upstream address is omitted when empty.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{
		"service": "usergate",
		"version": Version,
	}
	if h.usersEndpoint != "" {
		info["users_endpoint"] = h.usersEndpoint
	}
	writeJSON(w, http.StatusOK, info)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
