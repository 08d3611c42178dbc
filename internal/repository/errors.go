// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let the service layer distinguish a
// missing row or a constraint clash from a storage failure without looking
// at driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist.  Deletes
// and updates return it without changing anything, so repeating them is
// harmless.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when an insert collides with the unique
// index on users.username.
var ErrUsernameExists = errors.New("username already exists")

// ErrTokenInvalid is returned for unknown, expired, revoked or already
// consumed tokens.  Callers must not reveal which of these applied.
var ErrTokenInvalid = errors.New("token invalid")
