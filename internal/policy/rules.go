package policy

import (
	"context"
	"fmt"
	"slices"

	"github.com/penshort/usergate/internal/model"
)

// RequireScope allows users holding any of scopes.
func RequireScope(scopes ...string) Rule {
	return func(ctx context.Context, user model.User, args ...any) Response {
		for _, scope := range scopes {
			if user.HasScope(scope) {
				return Allow()
			}
		}
		if len(scopes) == 0 {
			return Deny("no scope grants this action")
		}
		return Deny(fmt.Sprintf("insufficient permissions, required scope: %s", scopes[0]))
	}
}

// OwnerOr allows the user named by the first argument, otherwise defers to rule.
func OwnerOr(rule Rule) Rule {
	return func(ctx context.Context, user model.User, args ...any) Response {
		if len(args) > 0 {
			if id := fmt.Sprint(args[0]); id != "" && id == user.ID() {
				return Allow()
			}
		}
		return rule(ctx, user, args...)
	}
}

// AdminBypass grants every ability to users holding the admin scope.
func AdminBypass(ctx context.Context, user model.User, ability string, args ...any) *Response {
	if slices.Contains(user.Scopes(), model.ScopeAdmin) {
		res := Allow()
		return &res
	}
	return nil
}

// DefaultGate returns a Gate with the user management abilities defined.
func DefaultGate() *Gate {
	g := NewGate()
	g.Before(AdminBypass)

	g.Define(model.AbilityListUsers, RequireScope(model.ScopeRead))
	g.Define(model.AbilityViewUser, OwnerOr(RequireScope(model.ScopeRead)))
	g.Define(model.AbilityCreateUser, RequireScope(model.ScopeWrite))
	g.Define(model.AbilityUpdateUser, OwnerOr(RequireScope(model.ScopeWrite)))
	g.Define(model.AbilityDeleteUser, RequireScope(model.ScopeAdmin))

	return g
}
