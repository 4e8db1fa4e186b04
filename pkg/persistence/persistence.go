// Package persistence provides the storage abstraction for applications and their change events.
package persistence

import (
	"context"

	"github.com/dukex/appflow/pkg/models"
)

// ApplicationRepository reads application records.
type ApplicationRepository interface {
	// GetAll returns every application ordered by ID.
	GetAll(ctx context.Context) ([]*models.Application, error)
	// GetByID returns nil and no error when the application does not exist.
	GetByID(ctx context.Context, id string) (*models.Application, error)
}

// ChangeEventRepository reads the audit trail. Events are ordered by timestamp, then by ID.
type ChangeEventRepository interface {
	GetByApplicationID(ctx context.Context, applicationID string) ([]*models.ChangeEvent, error)
}

// UnitOfWork groups the writes of one accepted mutation. Implementations commit
// everything written through it at once, or nothing.
type UnitOfWork interface {
	// SaveApplication inserts the application or replaces the record with the same ID.
	SaveApplication(ctx context.Context, app *models.Application) error
	// SaveChangeEvent appends an event. Existing events are never overwritten.
	SaveChangeEvent(ctx context.Context, event *models.ChangeEvent) error
}

// TransactionFunc receives the unit of work for the running transaction.
// Returning an error discards every write made through uow.
type TransactionFunc func(ctx context.Context, uow UnitOfWork) error

type Persistence interface {
	ApplicationRepository() ApplicationRepository
	ChangeEventRepository() ChangeEventRepository

	Transaction(ctx context.Context, fn TransactionFunc) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
