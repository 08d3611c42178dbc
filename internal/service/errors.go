// Package service implements the suggestion box operations on top of the
// repositories: account and session handling, suggestions and replies.
// Handlers and the CLI call these; neither talks to repositories directly.
package service

import "errors"

// Input validation failures.  Nothing is written when one is returned.
var (
	ErrEmptyInput        = errors.New("required field is empty")
	ErrInvalidContact    = errors.New("contact number must be exactly 10 characters")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrPasswordTooLong   = errors.New("password must be at most 72 bytes")
	ErrReservedUsername  = errors.New("username is reserved")
	ErrDuplicateUsername = errors.New("username already exists")
)

// Lookup and authorization failures.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTicket      = errors.New("invalid or expired token")
	ErrAccessDenied       = errors.New("access denied")
)
