package shared

import "errors"

var (
	// ErrNotFound indicates an unresolved id, barcode or reference.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates missing or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict indicates a uniqueness violation or duplicate posting.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates a missing or invalid principal.
	ErrUnauthorized = errors.New("unauthorized")
)
