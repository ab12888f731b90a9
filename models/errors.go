// models/errors.go
package models

import "errors"

// Error kinds shared by the lifecycle engine and its callers. Handlers map
// these to HTTP status codes with errors.Is.
var (
	// ErrNotFound covers a missing entity or a missing required directory
	// user. Nothing is written when it is returned.
	ErrNotFound = errors.New("not found")

	// ErrTransitionDenied is returned both when the action is illegal for
	// the current status and when the actor is not the current owner. The
	// two cases are deliberately indistinguishable to the caller.
	ErrTransitionDenied = errors.New("Transition not allowed")

	// ErrValidation covers malformed action payloads, rejected before any
	// lookup runs.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signals that a concurrent action already advanced the
	// entity; the caller should retry with fresh state.
	ErrConflict = errors.New("conflict: entity was modified concurrently")
)
