// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrApplicationNotFound indicates an application was not found by the given identifier.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrInvalidApplication indicates an application record cannot be stored as given.
	ErrInvalidApplication = errors.New("invalid application")

	// ErrChangeEventExists indicates an event with the same identifier was already written.
	ErrChangeEventExists = errors.New("change event already exists")
)

// ApplicationError wraps application-related errors with additional context.
type ApplicationError struct {
	Op            string // Operation being performed (e.g., "GetByID", "Save")
	ApplicationID string // Application ID if applicable
	Err           error  // Underlying error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s operation failed for application %s: %v", e.Op, e.ApplicationID, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for application errors.
func (e *ApplicationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewApplicationError creates a new application error with context.
func NewApplicationError(op, applicationID string, err error) *ApplicationError {
	return &ApplicationError{
		Op:            op,
		ApplicationID: applicationID,
		Err:           err,
	}
}

// ChangeEventError wraps event-related errors with additional context.
type ChangeEventError struct {
	Op            string // Operation being performed
	ApplicationID string // Application the event refers to
	EventID       string // Event ID
	Err           error  // Underlying error
}

func (e *ChangeEventError) Error() string {
	return fmt.Sprintf("%s operation failed for event %s of application %s: %v", e.Op, e.EventID, e.ApplicationID, e.Err)
}

func (e *ChangeEventError) Unwrap() error {
	return e.Err
}

func (e *ChangeEventError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewChangeEventError creates a new change event error with context.
func NewChangeEventError(op, applicationID, eventID string, err error) *ChangeEventError {
	return &ChangeEventError{
		Op:            op,
		ApplicationID: applicationID,
		EventID:       eventID,
		Err:           err,
	}
}

// IsApplicationNotFound checks if an error indicates an application was not found.
func IsApplicationNotFound(err error) bool {
	return errors.Is(err, ErrApplicationNotFound)
}

// IsChangeEventExists checks if an error indicates a duplicate event identifier.
func IsChangeEventExists(err error) bool {
	return errors.Is(err, ErrChangeEventExists)
}
