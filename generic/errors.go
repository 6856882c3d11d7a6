/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (HTTP handlers, CLI) map them to responses with the helpers below.

ERROR CATEGORIES:
  1. Client errors - bad status, field, date key, empty name
  2. Range errors - mutation before the configured minimum date
  3. Restore errors - structurally invalid snapshot

NOT ERRORS:
  - Unparsable clock strings and negative wages are recovered locally
    (cleared / clamped to zero) and never reach the caller.
  - Undo on an empty stack is a no-op.

SEE ALSO:
  - engine.go: Returns these errors
  - snapshot.go: MalformedSnapshotError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDateOutOfRange is returned when a mutation targets a date earlier
	// than the configured minimum date. No state is changed.
	ErrDateOutOfRange = errors.New("date before minimum date")

	// ErrMalformedSnapshot is returned when a restore payload is structurally
	// invalid. The prior state is left untouched.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrPersonNotFound is returned when a referenced person is not on the roster.
	ErrPersonNotFound = errors.New("person not found")

	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidField   = errors.New("invalid time field")
	ErrInvalidClock   = errors.New("invalid clock time")
	ErrInvalidDateKey = errors.New("invalid date key")
	ErrEmptyName      = errors.New("name is empty")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateOutOfRangeError provides the rejected date and the minimum.
type DateOutOfRangeError struct {
	Date    DateKey
	MinDate DateKey
}

func (e *DateOutOfRangeError) Error() string {
	return fmt.Sprintf("date %s is before minimum date %s", e.Date, e.MinDate)
}

func (e *DateOutOfRangeError) Unwrap() error {
	return ErrDateOutOfRange
}

// MalformedSnapshotError explains why a restore was rejected.
type MalformedSnapshotError struct {
	Reason string
	Err    error
}

func (e *MalformedSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed snapshot: %s: %v", e.Reason, e.Err)
	}
	return "malformed snapshot: " + e.Reason
}

func (e *MalformedSnapshotError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedSnapshot, e.Err}
	}
	return []error{ErrMalformedSnapshot}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDateOutOfRange) ||
		errors.Is(err, ErrMalformedSnapshot) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrInvalidClock) ||
		errors.Is(err, ErrInvalidDateKey) ||
		errors.Is(err, ErrEmptyName)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound)
}
