package model

import "slices"

// Scope constants carried in a user's scopes field.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// Abilities checked against the policy gate.
const (
	AbilityViewUser   = "users.view"
	AbilityListUsers  = "users.list"
	AbilityCreateUser = "users.create"
	AbilityUpdateUser = "users.update"
	AbilityDeleteUser = "users.delete"
)

// HasScope reports whether the user carries scope.
// The admin scope implies every other scope.
func (u User) HasScope(scope string) bool {
	scopes := u.Scopes()
	if slices.Contains(scopes, ScopeAdmin) {
		return true
	}
	return slices.Contains(scopes, scope)
}
