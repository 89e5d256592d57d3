package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/penshort/usergate/internal/model"
)

// Rule decides a single ability for a user.
type Rule func(ctx context.Context, user model.User, args ...any) Response

// Hook runs before any rule. A non-nil result short-circuits the check.
type Hook func(ctx context.Context, user model.User, ability string, args ...any) *Response

// Gate holds the registered abilities.
// Define and Before are expected during setup; checks are safe for concurrent use.
type Gate struct {
	mu     sync.RWMutex
	rules  map[string]Rule
	before []Hook
}

// NewGate returns an empty Gate. Every ability is denied until defined.
func NewGate() *Gate {
	return &Gate{rules: make(map[string]Rule)}
}

// Define registers rule for ability, replacing any previous rule.
func (g *Gate) Define(ability string, rule Rule) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules[ability] = rule
}

// Before registers a hook evaluated ahead of every rule, in registration order.
func (g *Gate) Before(hook Hook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.before = append(g.before, hook)
}

// Inspect evaluates ability for user and returns the response without failing.
func (g *Gate) Inspect(ctx context.Context, user model.User, ability string, args ...any) Response {
	g.mu.RLock()
	hooks := g.before
	rule, ok := g.rules[ability]
	g.mu.RUnlock()

	for _, hook := range hooks {
		if res := hook(ctx, user, ability, args...); res != nil {
			return *res
		}
	}

	if !ok {
		return DenyWithCode(CodeUndefinedAbility, fmt.Sprintf("ability %q is not defined", ability))
	}

	return rule(ctx, user, args...)
}

// Authorize evaluates ability for user.
// It returns the response when allowed and an *AuthorizationError when denied.
func (g *Gate) Authorize(ctx context.Context, user model.User, ability string, args ...any) (*Response, error) {
	res := g.Inspect(ctx, user, ability, args...)
	if !res.Allowed {
		return nil, &AuthorizationError{Ability: ability, Response: res}
	}
	return &res, nil
}
