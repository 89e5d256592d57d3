// Package model defines domain entities for the application.
package model

import "fmt"

// User is a user record as returned by the user service.
// The remote contract is not fixed, so the record is kept as the decoded
// JSON object. Known fields are exposed through accessors.
type User map[string]any

// Well-known user fields.
const (
	UserFieldID     = "id"
	UserFieldEmail  = "email"
	UserFieldName   = "name"
	UserFieldScopes = "scopes"
)

// NewUser builds a User from a decoded JSON object.
// A nil map yields an empty User.
func NewUser(fields map[string]any) User {
	if fields == nil {
		return User{}
	}
	return User(fields)
}

// Get returns the raw value stored under key.
func (u User) Get(key string) (any, bool) {
	v, ok := u[key]
	return v, ok
}

// ID returns the user identifier as a string.
// JSON numbers are rendered without a fractional part when integral.
func (u User) ID() string {
	switch v := u[UserFieldID].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

// Email returns the email field, or "" when absent.
func (u User) Email() string {
	return u.stringField(UserFieldEmail)
}

// Name returns the name field, or "" when absent.
func (u User) Name() string {
	return u.stringField(UserFieldName)
}

// Scopes returns the string entries of the scopes field.
// Non-string entries are skipped.
func (u User) Scopes() []string {
	raw, ok := u[UserFieldScopes].([]any)
	if !ok {
		if s, ok := u[UserFieldScopes].([]string); ok {
			return s
		}
		return nil
	}

	scopes := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func (u User) stringField(key string) string {
	s, _ := u[key].(string)
	return s
}
