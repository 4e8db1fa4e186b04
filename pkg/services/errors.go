// Package services provides the application approval service.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/appflow/pkg/persistence"
	"github.com/dukex/appflow/pkg/workflow"
)

var (
	// ErrApplicationNotFound is returned when an operation addresses an unknown application ID.
	ErrApplicationNotFound = persistence.ErrApplicationNotFound

	// ErrApplicationRequired is returned when a transition receives no application.
	ErrApplicationRequired = fmt.Errorf("%w: application is required", workflow.ErrInvalidArgument)
)

// IsValidationError reports errors caused by bad input (HTTP 400).
func IsValidationError(err error) bool {
	return workflow.IsInvalidArgument(err)
}

// IsConflictError reports operations not allowed from the current status (HTTP 422).
func IsConflictError(err error) bool {
	return workflow.IsInvalidTransition(err)
}

// IsNotFoundError reports operations on unknown applications (HTTP 404).
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrApplicationNotFound)
}
