// Package auth carries the caller's credential through a request.
package auth

import (
	"context"
	"net/http"
)

// HeaderAuthorization is the header and cache key holding the bearer credential.
const HeaderAuthorization = "Authorization"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// authorizationKey is the context key for the incoming Authorization header.
	authorizationKey contextKey = "authorization"
)

// ContextWithAuthorization stores the incoming Authorization header value.
func ContextWithAuthorization(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, authorizationKey, value)
}

// AuthorizationFromContext returns the incoming Authorization header value.
// Returns empty string if not present.
func AuthorizationFromContext(ctx context.Context) string {
	value, ok := ctx.Value(authorizationKey).(string)
	if !ok {
		return ""
	}
	return value
}

// ContextSource reads request headers captured into the context.
// It is the Authorization source used by the user service client.
type ContextSource struct{}

// Header returns the captured value of the named header.
// Only the Authorization header is captured.
func (ContextSource) Header(ctx context.Context, name string) string {
	if http.CanonicalHeaderKey(name) != HeaderAuthorization {
		return ""
	}
	return AuthorizationFromContext(ctx)
}
