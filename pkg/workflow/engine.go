// Package workflow implements the application approval state machine.
//
// The engine is pure: it validates a requested operation against the current
// status of an application and computes the resulting value. Persistence and
// audit events are the caller's concern.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/appflow/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrInvalidArgument indicates a required string input is missing or blank.
	ErrInvalidArgument = errors.New("workflow: invalid argument")
	// ErrInvalidTransition indicates the current status does not allow the operation.
	ErrInvalidTransition = errors.New("workflow: transition not allowed")

	ErrNameRequired    = fmt.Errorf("%w: name is required", ErrInvalidArgument)
	ErrContentRequired = fmt.Errorf("%w: content is required", ErrInvalidArgument)
	ErrCauseRequired   = fmt.Errorf("%w: cause is required", ErrInvalidArgument)
)

// Operation names a transition requested on an existing application.
type Operation string

const (
	OperationVerify      Operation = "verify"
	OperationAccept      Operation = "accept"
	OperationReject      Operation = "reject"
	OperationPublish     Operation = "publish"
	OperationDelete      Operation = "delete"
	OperationEditContent Operation = "edit-content"
)

// Operations lists every operation the engine knows about.
var Operations = []Operation{
	OperationVerify,
	OperationAccept,
	OperationReject,
	OperationPublish,
	OperationDelete,
	OperationEditContent,
}

type transitionKey struct {
	from      models.Status
	operation Operation
}

type transition struct {
	to             models.Status
	causeRequired  bool
	replaceContent bool
}

// transitions is the complete state machine. Any pair missing here is rejected.
var transitions = map[transitionKey]transition{
	{models.StatusCreated, OperationVerify}:       {to: models.StatusVerified},
	{models.StatusCreated, OperationDelete}:       {to: models.StatusDeleted, causeRequired: true},
	{models.StatusCreated, OperationEditContent}:  {to: models.StatusCreated, replaceContent: true},
	{models.StatusVerified, OperationAccept}:      {to: models.StatusAccepted},
	{models.StatusVerified, OperationReject}:      {to: models.StatusRejected, causeRequired: true},
	{models.StatusVerified, OperationEditContent}: {to: models.StatusVerified, replaceContent: true},
	{models.StatusAccepted, OperationPublish}:     {to: models.StatusPublished},
	{models.StatusAccepted, OperationReject}:      {to: models.StatusRejected, causeRequired: true},
}

// Result is the outcome of an accepted transition.
type Result struct {
	Application models.Application
	// Cause is set only for transitions that require one.
	Cause *string
}

// New builds a fresh application in the initial status with a generated identifier.
func New(name, content string) (models.Application, error) {
	if isBlank(name) {
		return models.Application{}, ErrNameRequired
	}

	if isBlank(content) {
		return models.Application{}, ErrContentRequired
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Application{}, fmt.Errorf("failed to generate application ID: %w", err)
	}

	return models.Application{
		ID:      id.String(),
		Name:    name,
		Content: content,
		Status:  models.StatusCreated,
	}, nil
}

// Apply validates op against the status of app and returns the resulting application.
// input carries the cause for reject and delete, and the replacement content for
// edit-content; it is ignored otherwise. Arguments are checked before the status.
func Apply(app models.Application, op Operation, input string) (Result, error) {
	switch op {
	case OperationReject, OperationDelete:
		if isBlank(input) {
			return Result{}, ErrCauseRequired
		}
	case OperationEditContent:
		if isBlank(input) {
			return Result{}, ErrContentRequired
		}
	}

	rule, ok := transitions[transitionKey{from: app.Status, operation: op}]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, app.Status)
	}

	next := app
	next.Status = rule.to

	if rule.replaceContent {
		next.Content = input
	}

	result := Result{Application: next}

	if rule.causeRequired {
		cause := input
		result.Cause = &cause
	}

	return result, nil
}

// Available returns the operations allowed from status, in the order of Operations.
func Available(status models.Status) []Operation {
	available := make([]Operation, 0, 3)

	for _, op := range Operations {
		if _, ok := transitions[transitionKey{from: status, operation: op}]; ok {
			available = append(available, op)
		}
	}

	return available
}

// IsInvalidArgument checks if an error indicates a missing or blank input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInvalidTransition checks if an error indicates an operation not allowed by the current status.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
