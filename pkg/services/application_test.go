package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/appflow/pkg/eventbus"
	"github.com/dukex/appflow/pkg/events"
	"github.com/dukex/appflow/pkg/mocks"
	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/persistence"
	"github.com/dukex/appflow/pkg/persistence/file"
	"github.com/dukex/appflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...Option) (*Application, *file.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	// Timestamps advance one second per event so history order is deterministic.
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time {
		clock = clock.Add(time.Second)

		return clock
	})}, opts...)

	return NewApplication(store, opts...), store
}

// reach drives a new application to status through the public operations.
func reach(t *testing.T, service *Application, status models.Status) *models.Application {
	t.Helper()

	ctx := t.Context()

	app, err := service.Create(ctx, "name", "content")
	require.NoError(t, err)

	steps := map[models.Status][]func(*models.Application) (*models.Application, error){
		models.StatusCreated: nil,
		models.StatusVerified: {
			func(a *models.Application) (*models.Application, error) { return service.Verify(ctx, a) },
		},
		models.StatusAccepted: {
			func(a *models.Application) (*models.Application, error) { return service.Verify(ctx, a) },
			func(a *models.Application) (*models.Application, error) { return service.Accept(ctx, a) },
		},
		models.StatusRejected: {
			func(a *models.Application) (*models.Application, error) { return service.Verify(ctx, a) },
			func(a *models.Application) (*models.Application, error) { return service.Reject(ctx, a, "c") },
		},
		models.StatusPublished: {
			func(a *models.Application) (*models.Application, error) { return service.Verify(ctx, a) },
			func(a *models.Application) (*models.Application, error) { return service.Accept(ctx, a) },
			func(a *models.Application) (*models.Application, error) { return service.Publish(ctx, a) },
		},
		models.StatusDeleted: {
			func(a *models.Application) (*models.Application, error) { return service.Delete(ctx, a.ID, "gone") },
		},
	}

	for _, step := range steps[status] {
		app, err = step(app)
		require.NoError(t, err)
	}

	require.Equal(t, status, app.Status)

	return app
}

func statuses(changes []*models.ChangeEvent) []models.Status {
	result := make([]models.Status, 0, len(changes))
	for _, change := range changes {
		result = append(result, change.Status)
	}

	return result
}

func TestNewApplication(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	service := NewApplication(store)

	assert.NotNil(t, service)
	assert.Equal(t, store, service.persistence)
	assert.Nil(t, service.publisher)
	assert.NotNil(t, service.tracer)
	assert.NotNil(t, service.now)
}

func TestApplication_HealthCheck(t *testing.T) {
	service, _ := newTestService(t)

	message, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, ok = NewApplication(nil).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestApplication_Create(t *testing.T) {
	service, store := newTestService(t)

	app, err := service.Create(t.Context(), "X", "Y")
	require.NoError(t, err)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "X", app.Name)
	assert.Equal(t, "Y", app.Content)
	assert.Equal(t, models.StatusCreated, app.Status)

	stored, err := store.ApplicationRepository().GetByID(t.Context(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app, stored)

	changes, err := store.ChangeEventRepository().GetByApplicationID(t.Context(), app.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.NotEmpty(t, changes[0].ID)
	assert.Equal(t, app.ID, changes[0].ApplicationID)
	assert.Equal(t, models.StatusCreated, changes[0].Status)
	assert.Nil(t, changes[0].Cause)
}

func TestApplication_Create_ArgumentErrors(t *testing.T) {
	service, store := newTestService(t)

	tests := []struct {
		name    string
		appName string
		content string
	}{
		{"empty name", "", "content"},
		{"blank name", "   ", "content"},
		{"empty content", "name", ""},
		{"blank content", "name", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := service.Create(t.Context(), tt.appName, tt.content)

			assert.Nil(t, app)
			assert.True(t, IsValidationError(err))
		})
	}

	all, err := store.ApplicationRepository().GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestApplication_PublishFlow(t *testing.T) {
	service, _ := newTestService(t)

	app := reach(t, service, models.StatusPublished)

	changes, err := service.History(t.Context(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Status{
		models.StatusCreated,
		models.StatusVerified,
		models.StatusAccepted,
		models.StatusPublished,
	}, statuses(changes))

	for _, change := range changes {
		assert.Nil(t, change.Cause)
	}
}

func TestApplication_RejectFlow(t *testing.T) {
	service, _ := newTestService(t)

	app := reach(t, service, models.StatusRejected)

	changes, err := service.History(t.Context(), app.ID)
	require.NoError(t, err)
	require.Equal(t, []models.Status{models.StatusCreated, models.StatusVerified, models.StatusRejected}, statuses(changes))
	require.NotNil(t, changes[2].Cause)
	assert.Equal(t, "c", *changes[2].Cause)
}

func TestApplication_RejectFromAccepted(t *testing.T) {
	service, _ := newTestService(t)

	app := reach(t, service, models.StatusAccepted)

	rejected, err := service.Reject(t.Context(), app, "late finding")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
}

func TestApplication_VerifyInvalidStatus(t *testing.T) {
	for _, status := range []models.Status{
		models.StatusVerified,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusPublished,
		models.StatusDeleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			service, store := newTestService(t)
			app := reach(t, service, status)

			before, err := store.ChangeEventRepository().GetByApplicationID(t.Context(), app.ID)
			require.NoError(t, err)

			result, err := service.Verify(t.Context(), app)
			assert.Nil(t, result)
			assert.True(t, IsConflictError(err))

			stored, err := store.ApplicationRepository().GetByID(t.Context(), app.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)

			after, err := store.ChangeEventRepository().GetByApplicationID(t.Context(), app.ID)
			require.NoError(t, err)
			assert.Len(t, after, len(before))
		})
	}
}

func TestApplication_Edit(t *testing.T) {
	for _, status := range []models.Status{models.StatusCreated, models.StatusVerified} {
		t.Run(string(status), func(t *testing.T) {
			service, _ := newTestService(t)
			app := reach(t, service, status)

			edited, err := service.Edit(t.Context(), app, "new content")
			require.NoError(t, err)
			assert.Equal(t, status, edited.Status)
			assert.Equal(t, "new content", edited.Content)
			assert.Equal(t, app.Name, edited.Name)

			changes, err := service.History(t.Context(), app.ID)
			require.NoError(t, err)

			last := changes[len(changes)-1]
			assert.Equal(t, "new content", last.Content)
			assert.Equal(t, status, last.Status)
			assert.Nil(t, last.Cause)
		})
	}

	for _, status := range []models.Status{
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusPublished,
		models.StatusDeleted,
	} {
		t.Run(string(status)+" refused", func(t *testing.T) {
			service, _ := newTestService(t)
			app := reach(t, service, status)

			edited, err := service.Edit(t.Context(), app, "new content")
			assert.Nil(t, edited)
			assert.True(t, IsConflictError(err))
		})
	}
}

func TestApplication_Edit_BlankContent(t *testing.T) {
	service, _ := newTestService(t)
	app := reach(t, service, models.StatusCreated)

	_, err := service.Edit(t.Context(), app, " ")
	assert.ErrorIs(t, err, workflow.ErrContentRequired)
}

func TestApplication_Reject_BlankCause(t *testing.T) {
	for _, status := range models.Statuses {
		t.Run(string(status), func(t *testing.T) {
			service, _ := newTestService(t)
			app := reach(t, service, status)

			_, err := service.Reject(t.Context(), app, "")
			assert.ErrorIs(t, err, workflow.ErrCauseRequired)
		})
	}
}

func TestApplication_Delete(t *testing.T) {
	service, store := newTestService(t)
	app := reach(t, service, models.StatusCreated)

	deleted, err := service.Delete(t.Context(), app.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, deleted.Status)

	stored, err := store.ApplicationRepository().GetByID(t.Context(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, stored.Status)

	changes, err := service.History(t.Context(), app.ID)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.NotNil(t, changes[1].Cause)
	assert.Equal(t, "duplicate", *changes[1].Cause)
}

func TestApplication_Delete_Errors(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Delete(t.Context(), "missing", "cause")
	assert.True(t, IsNotFoundError(err))
	assert.True(t, persistence.IsApplicationNotFound(err))

	for _, status := range models.Statuses {
		t.Run("blank cause from "+string(status), func(t *testing.T) {
			app := reach(t, service, status)

			_, err := service.Delete(t.Context(), app.ID, "")
			assert.ErrorIs(t, err, workflow.ErrCauseRequired)
		})
	}

	app := reach(t, service, models.StatusVerified)
	_, err = service.Delete(t.Context(), app.ID, "cause")
	assert.True(t, IsConflictError(err))
}

func TestApplication_FindByID(t *testing.T) {
	service, _ := newTestService(t)

	app, err := service.FindByID(t.Context(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, app)

	created := reach(t, service, models.StatusCreated)

	found, err := service.FindByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)
}

func TestApplication_FindAll(t *testing.T) {
	service, _ := newTestService(t)

	first := reach(t, service, models.StatusCreated)
	second := reach(t, service, models.StatusVerified)

	all, err := service.FindAll(t.Context())
	require.NoError(t, err)
	assert.ElementsMatch(t, []*models.Application{first, second}, all)
}

func TestApplication_History_NotFound(t *testing.T) {
	service, _ := newTestService(t)

	changes, err := service.History(t.Context(), "unknown")
	assert.Nil(t, changes)
	assert.True(t, IsNotFoundError(err))
}

func TestApplication_NilApplication(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Verify(t.Context(), nil)
	assert.ErrorIs(t, err, ErrApplicationRequired)
	assert.True(t, IsValidationError(err))
}

func TestApplication_Transitions(t *testing.T) {
	service, _ := newTestService(t)
	app := reach(t, service, models.StatusVerified)

	assert.Equal(t, []workflow.Operation{
		workflow.OperationAccept,
		workflow.OperationReject,
		workflow.OperationEditContent,
	}, service.Transitions(app))
}

func TestApplication_PersistenceFailure(t *testing.T) {
	storeErr := errors.New("disk full")

	store := mocks.NewMockPersistence()
	uow := &mocks.MockUnitOfWork{}
	uow.On("SaveApplication", mock.Anything, mock.Anything).Return(nil)
	uow.On("SaveChangeEvent", mock.Anything, mock.Anything).Return(storeErr)
	store.On("Transaction", mock.Anything, mock.Anything).Return(uow, nil)

	bus := &mocks.MockEventBus{}
	service := NewApplication(store, WithPublisher(bus))

	app, err := service.Create(t.Context(), "name", "content")
	assert.Nil(t, app)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, IsValidationError(err))
	assert.False(t, IsConflictError(err))

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	uow.AssertExpectations(t)
}

func TestApplication_CommitFailure(t *testing.T) {
	commitErr := errors.New("connection reset")

	store := mocks.NewMockPersistence()
	store.Applications.On("GetByID", mock.Anything, "app-1").
		Return(&models.Application{ID: "app-1", Name: "n", Content: "c", Status: models.StatusCreated}, nil)

	uow := &mocks.MockUnitOfWork{}
	uow.On("SaveApplication", mock.Anything, mock.MatchedBy(func(app *models.Application) bool {
		return app.Status == models.StatusDeleted
	})).Return(nil)
	uow.On("SaveChangeEvent", mock.Anything, mock.MatchedBy(func(event *models.ChangeEvent) bool {
		return event.Status == models.StatusDeleted && event.Cause != nil && *event.Cause == "spam"
	})).Return(nil)
	store.On("Transaction", mock.Anything, mock.Anything).Return(uow, commitErr)

	service := NewApplication(store)

	_, err := service.Delete(t.Context(), "app-1", "spam")
	assert.ErrorIs(t, err, commitErr)
	uow.AssertExpectations(t)
}

func TestApplication_LookupFailure(t *testing.T) {
	lookupErr := errors.New("timeout")

	store := mocks.NewMockPersistence()
	store.Applications.On("GetByID", mock.Anything, "app-1").Return(nil, lookupErr)
	store.Applications.On("GetAll", mock.Anything).Return(nil, lookupErr)

	service := NewApplication(store)

	_, err := service.FindByID(t.Context(), "app-1")
	assert.ErrorIs(t, err, lookupErr)

	_, err = service.FindAll(t.Context())
	assert.ErrorIs(t, err, lookupErr)

	_, err = service.Delete(t.Context(), "app-1", "cause")
	assert.ErrorIs(t, err, lookupErr)
	store.AssertNotCalled(t, "Transaction", mock.Anything, mock.Anything)
}

func TestApplication_PublishesAfterCommit(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service, _ := newTestService(t, WithPublisher(bus), WithLogger(slog.Default()))

	app, err := service.Create(t.Context(), "name", "content")
	require.NoError(t, err)

	bus.AssertCalled(t, "Publish", mock.Anything, app.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		changed, ok := event.(*events.ApplicationChanged)

		return ok && changed.ApplicationID == app.ID && changed.Status == models.StatusCreated && changed.EventID != ""
	}))
}

func TestApplication_PublishFailureIsNotReturned(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service, store := newTestService(t, WithPublisher(bus))

	app, err := service.Create(context.Background(), "name", "content")
	require.NoError(t, err)

	stored, err := store.ApplicationRepository().GetByID(t.Context(), app.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}
