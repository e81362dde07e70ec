// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a resource owned by someone else, while
// ErrConflict signals that an operation cannot proceed because of
// dependent records (e.g. deleting a schedule that still has active
// reservations).
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as removing a
// schedule that still has non-cancelled reservations. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNoChange is returned by update methods when the target row exists
// but every requested value already matches it. Handlers treat this as
// a successful no-op rather than an error.
var ErrNoChange = errors.New("no change")

// isDup reports whether a driver error is a MySQL duplicate-key
// violation (error 1062).
func isDup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
