// Package events defines the change notifications announced after an application mutation commits.
package events

import (
	"time"

	"github.com/dukex/appflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every application notification.
const Topic = "appflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ApplicationChangedEvent EventType = "application.changed"
)

type BaseEvent struct {
	ID            string         `json:"id"`
	Type          EventType      `json:"type"`
	Timestamp     time.Time      `json:"timestamp"`
	ApplicationID string         `json:"application_id"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ApplicationChanged mirrors a stored change event. EventID references the stored event.
type ApplicationChanged struct {
	BaseEvent

	EventID string        `json:"event_id"`
	Name    string        `json:"name"`
	Content string        `json:"content"`
	Status  models.Status `json:"status"`
	Cause   *string       `json:"cause,omitempty"`
}

func (a ApplicationChanged) GetType() EventType {
	return ApplicationChangedEvent
}

func NewBaseEvent(eventType EventType, applicationID string) BaseEvent {
	return BaseEvent{
		ID:            uuid.New().String(),
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
		ApplicationID: applicationID,
		Metadata:      make(map[string]any),
	}
}

// NewApplicationChanged builds the notification for a committed change event.
func NewApplicationChanged(event *models.ChangeEvent) *ApplicationChanged {
	return &ApplicationChanged{
		BaseEvent: NewBaseEvent(ApplicationChangedEvent, event.ApplicationID),
		EventID:   event.ID,
		Name:      event.Name,
		Content:   event.Content,
		Status:    event.Status,
		Cause:     event.Cause,
	}
}
