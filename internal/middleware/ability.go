package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/usergate/internal/policy"
)

// Authorizer asks whether the current caller may perform an ability.
type Authorizer interface {
	Allows(ctx context.Context, ability string, args ...any) (*policy.Response, error)
}

// AdminChecker reports whether the current caller is an administrator.
type AdminChecker interface {
	IsAdmin(ctx context.Context) bool
}

// ArgsFunc extracts ability arguments from a request.
type ArgsFunc func(r *http.Request) []any

// URLParams returns the named chi route parameters as ability arguments.
func URLParams(names ...string) ArgsFunc {
	return func(r *http.Request) []any {
		args := make([]any, 0, len(names))
		for _, name := range names {
			args = append(args, chi.URLParam(r, name))
		}
		return args
	}
}

// RequireAbility returns middleware that lets the request through only when
// the user service resolves the caller and the gate allows ability.
func RequireAbility(authz Authorizer, logger *slog.Logger, ability string, argsFn ArgsFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var args []any
			if argsFn != nil {
				args = argsFn(r)
			}

			if _, err := authz.Allows(r.Context(), ability, args...); err != nil {
				logger.Warn("ability check failed",
					slog.String("ability", ability),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				WriteClientError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that lets the request through only when
// the user service answers 2xx on its admin check.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checker.IsAdmin(r.Context()) {
				WriteError(w, http.StatusForbidden, "FORBIDDEN", "Administrator access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
