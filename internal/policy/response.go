// Package policy evaluates whether a user may perform an ability.
package policy

import (
	"errors"
	"fmt"
)

// Denial codes.
const (
	CodeForbidden        = "FORBIDDEN"
	CodeUndefinedAbility = "UNDEFINED_ABILITY"
)

// ErrUnauthorized matches every *AuthorizationError via errors.Is.
var ErrUnauthorized = errors.New("this action is unauthorized")

// Response is the outcome of a policy check.
type Response struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Allow returns an allowing response.
func Allow() Response {
	return Response{Allowed: true}
}

// Deny returns a denying response with a reason.
func Deny(message string) Response {
	return Response{Allowed: false, Message: message, Code: CodeForbidden}
}

// DenyWithCode returns a denying response with a machine-readable code.
func DenyWithCode(code, message string) Response {
	return Response{Allowed: false, Message: message, Code: code}
}

// AuthorizationError reports that the gate denied an ability.
type AuthorizationError struct {
	Ability  string
	Response Response
}

// Error implements error.
func (e *AuthorizationError) Error() string {
	if e.Response.Message == "" {
		return fmt.Sprintf("%s: %s", ErrUnauthorized, e.Ability)
	}
	return fmt.Sprintf("%s: %s: %s", ErrUnauthorized, e.Ability, e.Response.Message)
}

// Is reports whether target is ErrUnauthorized.
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Reason returns the denial message, or a generic one.
func (e *AuthorizationError) Reason() string {
	if e.Response.Message == "" {
		return ErrUnauthorized.Error()
	}
	return e.Response.Message
}
