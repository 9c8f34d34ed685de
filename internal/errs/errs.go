// Package errs defines the error taxonomy shared by the service layer.
// Callers classify failures with errors.Is against these sentinels; the
// HTTP layer maps them onto response codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed or out-of-range request data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden marks an actor without household membership or admin rights.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks an absent household, obligation, share or expense.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks double payments, duplicate shares and join-code clashes.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks an unreachable external collaborator.
	ErrUnavailable = errors.New("unavailable")
)

// InvalidInput wraps a reason into an ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Forbidden wraps a reason into an ErrForbidden.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// NotFound wraps a reason into an ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict wraps a reason into an ErrConflict.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Unavailable wraps a reason into an ErrUnavailable.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
