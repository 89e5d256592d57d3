package userservice

import "errors"

// Sentinel errors for user service calls.
var (
	// ErrDecode wraps response bodies that are not the expected JSON shape.
	ErrDecode = errors.New("user service: undecodable response")
	// ErrTransport wraps failures to reach the user service.
	ErrTransport = errors.New("user service: request failed")
)
