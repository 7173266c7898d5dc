package common

import "errors"

// Domain error taxonomy. Services wrap these with fmt.Errorf("...: %w")
// so handlers can map them to HTTP codes with errors.Is while keeping
// the operation-specific message.
var (
	// ErrNotFound is returned when an id does not resolve to a stored row.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPlan is returned when a plan id is unknown to the catalog.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrInvalidUser is returned when a user id does not resolve against
	// the identity collaborator.
	ErrInvalidUser = errors.New("invalid user")

	// ErrForbidden is returned when the requesting user neither owns the
	// target entity nor holds the admin role.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when an operation is attempted against
	// a disallowed state, e.g. refunding a non-Completed payment or
	// cancelling an already-terminal subscription.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict is returned on a uniqueness violation, e.g. a duplicate
	// transaction id.
	ErrConflict = errors.New("conflict")

	// ErrPersistence is returned for generic storage failures surfaced
	// after a forced rollback.
	ErrPersistence = errors.New("persistence error")
)
