/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these to HTTP status codes with errors.Is().

ERROR CATEGORIES:
  1. Storage errors - NEVER returned from ledger operations. Read failures
     fall back to defaults and write failures are logged and dropped
     (see storage.go).
  2. Validation errors - Rejected input, returned before any state changes
  3. Lookup errors - Entry or worker not found
  4. Credential errors - Failed admin or worker login

SEE ALSO:
  - storage.go: Where storage failures are swallowed
  - api/handlers.go: Status code mapping
*/
package hisab

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned by a Store when a key has no value.
	ErrNotFound = errors.New("key not found")

	// ErrValidation is the parent of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrEntryNotFound is returned when deleting an entry id that is not in
	// its history. Nothing is written in that case.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrWorkerNotFound is returned when a worker name is not on the roster.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrWorkerExists is returned when adding a name already on the roster.
	ErrWorkerExists = errors.New("worker already exists")

	// ErrRateLocked is returned when editing the rate of a locked worker.
	ErrRateLocked = errors.New("worker rate is locked")

	// ErrReportNotFound is returned when deleting an unknown company report.
	ErrReportNotFound = errors.New("report not found")

	// ErrUnknownKind is returned for a history kind outside the four known ones.
	ErrUnknownKind = errors.New("unknown history kind")

	// ErrInvalidCredentials is returned when a login does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes rejected input. The message is user-facing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrWorkerExists) ||
		errors.Is(err, ErrRateLocked)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrReportNotFound)
}
