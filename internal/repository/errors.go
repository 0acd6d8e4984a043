// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting SQL errors: ErrNotFound for absent records, ErrForbidden
// when the caller does not own the record, ErrConflict when a write
// cannot proceed because of existing state (e.g. a duplicate pending
// booking for the same slot).
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state, such as creating a reservation for a slot
// that already has a pending booking. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
