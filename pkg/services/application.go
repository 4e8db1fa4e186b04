package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/appflow/pkg/eventbus"
	"github.com/dukex/appflow/pkg/events"
	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/otelhelper"
	"github.com/dukex/appflow/pkg/persistence"
	"github.com/dukex/appflow/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Application runs the approval workflow: every accepted operation writes the
// application and its change event in one unit of work.
type Application struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type Option func(*Application)

// WithPublisher announces committed changes on the event bus.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(a *Application) {
		a.publisher = publisher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(a *Application) {
		a.tracer = tracer
	}
}

// WithClock replaces the source of change event timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Application) {
		a.now = now
	}
}

// NewApplication creates a new application service.
func NewApplication(persistence persistence.Persistence, opts ...Option) *Application {
	a := &Application{
		persistence: persistence,
		logger:      slog.Default(),
		tracer:      otelhelper.NoopTracer(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.logger = a.logger.With("module", "application_service")

	return a
}

// HealthCheck checks the health of the persistence layer.
func (a *Application) HealthCheck(ctx context.Context) (string, bool) {
	if a.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := a.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create stores a new application in status CREATED.
func (a *Application) Create(ctx context.Context, name, content string) (*models.Application, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "application.create")
	defer span.End()

	app, err := workflow.New(name, content)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(otelhelper.ApplicationAttributes(app.ID, app.Status.String())...)

	return a.commit(ctx, span, app, nil)
}

// FindByID returns the application or nil when it does not exist.
func (a *Application) FindByID(ctx context.Context, id string) (*models.Application, error) {
	app, err := a.persistence.ApplicationRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

func (a *Application) FindAll(ctx context.Context) ([]*models.Application, error) {
	apps, err := a.persistence.ApplicationRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

// History returns the change events of an application, oldest first.
func (a *Application) History(ctx context.Context, id string) ([]*models.ChangeEvent, error) {
	app, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app == nil {
		return nil, persistence.NewApplicationError("History", id, ErrApplicationNotFound)
	}

	changes, err := a.persistence.ChangeEventRepository().GetByApplicationID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get change events: %w", err)
	}

	return changes, nil
}

func (a *Application) Verify(ctx context.Context, app *models.Application) (*models.Application, error) {
	return a.transition(ctx, app, workflow.OperationVerify, "")
}

func (a *Application) Accept(ctx context.Context, app *models.Application) (*models.Application, error) {
	return a.transition(ctx, app, workflow.OperationAccept, "")
}

func (a *Application) Publish(ctx context.Context, app *models.Application) (*models.Application, error) {
	return a.transition(ctx, app, workflow.OperationPublish, "")
}

// Reject moves a VERIFIED or ACCEPTED application to REJECTED. cause must not be blank.
func (a *Application) Reject(ctx context.Context, app *models.Application, cause string) (*models.Application, error) {
	return a.transition(ctx, app, workflow.OperationReject, cause)
}

// Edit replaces the content of a CREATED or VERIFIED application without changing its status.
func (a *Application) Edit(ctx context.Context, app *models.Application, content string) (*models.Application, error) {
	return a.transition(ctx, app, workflow.OperationEditContent, content)
}

// Delete marks a CREATED application as DELETED. The record is kept.
func (a *Application) Delete(ctx context.Context, id, cause string) (*models.Application, error) {
	app, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app == nil {
		return nil, persistence.NewApplicationError("Delete", id, ErrApplicationNotFound)
	}

	return a.transition(ctx, app, workflow.OperationDelete, cause)
}

// Transitions lists the operations allowed for app in its current status.
func (a *Application) Transitions(app *models.Application) []workflow.Operation {
	return workflow.Available(app.Status)
}

func (a *Application) transition(ctx context.Context, app *models.Application, op workflow.Operation, input string) (*models.Application, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "application."+string(op),
		attribute.String(otelhelper.OperationKey, string(op)))
	defer span.End()

	if app == nil {
		otelhelper.SetError(span, ErrApplicationRequired)

		return nil, ErrApplicationRequired
	}

	span.SetAttributes(otelhelper.ApplicationAttributes(app.ID, app.Status.String())...)

	result, err := workflow.Apply(*app, op, input)
	if err != nil {
		otelhelper.SetError(span, err)
		a.logger.DebugContext(ctx, "Operation refused",
			"application_id", app.ID,
			"status", app.Status,
			"operation", op,
			"error", err)

		return nil, err
	}

	return a.commit(ctx, span, result.Application, result.Cause)
}

// commit writes app and its change event together, then announces the change.
func (a *Application) commit(ctx context.Context, span trace.Span, app models.Application, cause *string) (*models.Application, error) {
	eventID, err := uuid.NewV7()
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to generate change event ID: %w", err)
	}

	change := models.NewChangeEvent(app, cause, a.now())
	change.ID = eventID.String()

	err = a.persistence.Transaction(ctx, func(ctx context.Context, uow persistence.UnitOfWork) error {
		err := uow.SaveApplication(ctx, &app)
		if err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}

		err = uow.SaveChangeEvent(ctx, change)
		if err != nil {
			return fmt.Errorf("failed to save change event: %w", err)
		}

		return nil
	})
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.EventIDKey, change.ID))

		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.ApplicationStatusKey, app.Status.String()),
		attribute.String(otelhelper.EventIDKey, change.ID),
	)

	a.logger.InfoContext(ctx, "Application changed",
		"application_id", app.ID,
		"status", app.Status,
		"event_id", change.ID)

	a.notify(ctx, change)

	return &app, nil
}

// notify is best effort: the stored change event is authoritative.
func (a *Application) notify(ctx context.Context, change *models.ChangeEvent) {
	if a.publisher == nil {
		return
	}

	err := a.publisher.Publish(ctx, change.ApplicationID, events.NewApplicationChanged(change))
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to publish change notification",
			"application_id", change.ApplicationID,
			"event_id", change.ID,
			"error", err)
	}
}
