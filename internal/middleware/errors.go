package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/penshort/usergate/internal/policy"
	"github.com/penshort/usergate/internal/userservice"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the standard JSON error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// WriteClientError maps a user service client error to a JSON error response.
// Denials become 403 with the gate's reason; upstream failures become 502.
func WriteClientError(w http.ResponseWriter, err error) {
	var authErr *policy.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", authErr.Reason())
	case errors.Is(err, userservice.ErrDecode):
		WriteError(w, http.StatusBadGateway, "BAD_UPSTREAM_RESPONSE", "User service returned an unreadable response")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "User service did not answer in time")
	case errors.Is(err, userservice.ErrTransport):
		WriteError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "User service is unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
