package store

import (
	"errors"
	"fmt"
)

// Error kinds for callers to branch on with errors.Is. The API layer maps
// them to stable machine-readable codes; raw database errors never cross
// the store boundary.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("daily capacity exceeded")
	ErrConflict         = errors.New("conflict")
	ErrUnavailable      = errors.New("store unavailable")
)

// invalidf builds an ErrInvalidArgument with a field-level detail message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// unavailable wraps a raw database error into ErrUnavailable. Callers may
// retry; the underlying error stays attached for logging only.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
