// Package main provides the auditor that records application change notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/appflow/pkg/eventbus"
	"github.com/dukex/appflow/pkg/events"
	"github.com/dukex/appflow/pkg/persistence"
)

var errUnexpectedEvent = errors.New("unexpected event payload")

// Auditor logs every change notification. When a store is configured it also
// checks that the announced change event was committed.
type Auditor struct {
	eventBus    eventbus.EventBus
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewAuditor(eventBus eventbus.EventBus, persistence persistence.Persistence, logger *slog.Logger) *Auditor {
	return &Auditor{
		eventBus:    eventBus,
		persistence: persistence,
		logger:      logger.With("module", "auditor"),
	}
}

// Start subscribes to notifications and blocks until ctx is done or a termination signal arrives.
func (a *Auditor) Start(ctx context.Context) error {
	aCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.handleSignals(cancel)

	err := a.eventBus.Handle(events.ApplicationChangedEvent, a.handleApplicationChanged)
	if err != nil {
		return fmt.Errorf("failed to register handler: %w", err)
	}

	err = a.eventBus.Subscribe(aCtx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	a.logger.InfoContext(aCtx, "Auditor started", "topic", events.Topic)

	<-aCtx.Done()

	a.logger.Info("Auditor stopped")

	return nil
}

func (a *Auditor) handleSignals(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		a.logger.Info("Shutting down gracefully...", "signal", sig)
		cancel()
	}()
}

func (a *Auditor) handleApplicationChanged(ctx context.Context, event any) error {
	changed, ok := event.(*events.ApplicationChanged)
	if !ok {
		return fmt.Errorf("%w: %T", errUnexpectedEvent, event)
	}

	logger := a.logger.With(
		"application_id", changed.ApplicationID,
		"event_id", changed.EventID,
		"status", changed.Status,
	)

	if changed.Cause != nil {
		logger = logger.With("cause", *changed.Cause)
	}

	logger.InfoContext(ctx, "Application changed")

	if a.persistence == nil {
		return nil
	}

	committed, err := a.isCommitted(ctx, changed)
	if err != nil {
		return err
	}

	if !committed {
		logger.WarnContext(ctx, "Notification has no matching change event in the store")
	}

	return nil
}

func (a *Auditor) isCommitted(ctx context.Context, changed *events.ApplicationChanged) (bool, error) {
	changes, err := a.persistence.ChangeEventRepository().GetByApplicationID(ctx, changed.ApplicationID)
	if err != nil {
		return false, fmt.Errorf("failed to load change events: %w", err)
	}

	for _, change := range changes {
		if change.ID == changed.EventID && change.Status == changed.Status {
			return true, nil
		}
	}

	return false, nil
}
