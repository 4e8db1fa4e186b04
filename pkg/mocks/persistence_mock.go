// Package mocks provides testify mocks for the persistence and event bus interfaces.
package mocks

import (
	"context"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockApplicationRepository is a mock implementation of persistence.ApplicationRepository interface.
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) GetAll(ctx context.Context) ([]*models.Application, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Application), args.Error(1)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Application), args.Error(1)
}

// MockChangeEventRepository is a mock implementation of persistence.ChangeEventRepository interface.
type MockChangeEventRepository struct {
	mock.Mock
}

func (m *MockChangeEventRepository) GetByApplicationID(ctx context.Context, applicationID string) ([]*models.ChangeEvent, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ChangeEvent), args.Error(1)
}

// MockUnitOfWork is a mock implementation of persistence.UnitOfWork interface.
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) SaveApplication(ctx context.Context, app *models.Application) error {
	args := m.Called(ctx, app)

	return args.Error(0)
}

func (m *MockUnitOfWork) SaveChangeEvent(ctx context.Context, event *models.ChangeEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Applications *MockApplicationRepository
	ChangeEvents *MockChangeEventRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Applications: &MockApplicationRepository{},
		ChangeEvents: &MockChangeEventRepository{},
	}
}

func (m *MockPersistence) ApplicationRepository() persistence.ApplicationRepository {
	return m.Applications
}

func (m *MockPersistence) ChangeEventRepository() persistence.ChangeEventRepository {
	return m.ChangeEvents
}

// Transaction runs fn against the unit of work returned as the first value, if any,
// and then returns the second value as the commit result.
func (m *MockPersistence) Transaction(ctx context.Context, fn persistence.TransactionFunc) error {
	args := m.Called(ctx, fn)

	if uow, ok := args.Get(0).(persistence.UnitOfWork); ok {
		err := fn(ctx, uow)
		if err != nil {
			return err
		}
	}

	return args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
