package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/penshort/usergate/internal/policy"
)

// ErrNoGate is returned by Allows when the client has no policy gate.
var ErrNoGate = errors.New("user service: no policy gate configured")

// Allows resolves the current user from the service and asks the gate
// whether that user may perform ability with args.
//
// The user is fetched on every call. A denial is returned as
// *policy.AuthorizationError; failures resolving the user are returned as is
// and the gate is not consulted.
func (c *Client) Allows(ctx context.Context, ability string, args ...any) (*policy.Response, error) {
	if c.gate == nil {
		return nil, ErrNoGate
	}

	user, err := c.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve user for %s: %w", ability, err)
	}

	res, err := c.gate.Authorize(ctx, user, ability, args...)
	if err != nil {
		var authErr *policy.AuthorizationError
		if errors.As(err, &authErr) {
			c.metrics.IncAuthorization(false)
			c.logger.Info("authorization denied",
				slog.String("ability", ability),
				slog.String("user_id", user.ID()),
				slog.String("reason", authErr.Reason()),
			)
		}
		return nil, err
	}

	c.metrics.IncAuthorization(true)
	return res, nil
}
