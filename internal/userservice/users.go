package userservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/penshort/usergate/internal/model"
)

// GetUser returns the user the current credential belongs to.
// The status code is not checked: whatever JSON object the service returns
// becomes the User.
func (c *Client) GetUser(ctx context.Context) (model.User, error) {
	return c.fetchUser(ctx, "/user")
}

// IsAdmin reports whether the service answers 2xx on /admin.
// Transport failures and every non-2xx status yield false.
func (c *Client) IsAdmin(ctx context.Context) bool {
	return c.check(ctx, http.MethodGet, "/admin")
}

// IsInfluencer reports whether the service answers 2xx on /influencer.
func (c *Client) IsInfluencer(ctx context.Context) bool {
	return c.check(ctx, http.MethodGet, "/influencer")
}

// Paginate returns one page of users exactly as the service sent them.
func (c *Client) Paginate(ctx context.Context, page int) ([]map[string]any, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	res, err := req.Get("/users?page=" + strconv.Itoa(page))
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := res.JSON(&items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, fmt.Errorf("%w: page is not a JSON array", ErrDecode)
	}
	return items, nil
}

// Find returns the user with id.
func (c *Client) Find(ctx context.Context, id string) (model.User, error) {
	return c.fetchUser(ctx, userPath(id))
}

// Create creates a user from data and returns the service's representation.
func (c *Client) Create(ctx context.Context, data map[string]any) (model.User, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	res, err := req.Post("/users", data)
	if err != nil {
		return nil, err
	}
	return decodeUser(res)
}

// Update replaces fields of user id with data.
func (c *Client) Update(ctx context.Context, id string, data map[string]any) (model.User, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	res, err := req.Put(userPath(id), data)
	if err != nil {
		return nil, err
	}
	return decodeUser(res)
}

// Delete removes user id and reports whether the service answered 2xx.
// Transport failures yield false.
func (c *Client) Delete(ctx context.Context, id string) bool {
	return c.check(ctx, http.MethodDelete, userPath(id))
}

func (c *Client) fetchUser(ctx context.Context, path string) (model.User, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	res, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	return decodeUser(res)
}

// check issues a call whose only outcome is the 2xx predicate.
func (c *Client) check(ctx context.Context, method, path string) bool {
	req, err := c.Request(ctx)
	if err != nil {
		c.logger.Warn("user service check failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return false
	}

	var res *Response
	if method == http.MethodDelete {
		res, err = req.Delete(path)
	} else {
		res, err = req.Get(path)
	}
	if err != nil {
		c.logger.Warn("user service check failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return false
	}

	return res.Successful()
}

func decodeUser(res *Response) (model.User, error) {
	var fields map[string]any
	if err := res.JSON(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: user is not a JSON object", ErrDecode)
	}
	return model.NewUser(fields), nil
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}
