package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/penshort/usergate/internal/auth"
)

// CredentialStore remembers a credential for later fallback lookups.
type CredentialStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CredentialConfig holds configuration for the credential middleware.
type CredentialConfig struct {
	Logger *slog.Logger
	// Store, when set, receives every incoming credential under the
	// Authorization key. Leave nil to only capture per request.
	Store CredentialStore
	TTL   time.Duration
}

// Credential captures the incoming Authorization header into the request
// context, where the user service client reads it.
func Credential(cfg CredentialConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value := r.Header.Get(auth.HeaderAuthorization)
			if value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithAuthorization(r.Context(), value)

			if cfg.Store != nil {
				if err := cfg.Store.Set(ctx, auth.HeaderAuthorization, value, cfg.TTL); err != nil && cfg.Logger != nil {
					cfg.Logger.Warn("failed to remember credential",
						slog.String("error", err.Error()),
						slog.String("credential", auth.Fingerprint(value)),
						slog.String("request_id", GetRequestID(ctx)),
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
