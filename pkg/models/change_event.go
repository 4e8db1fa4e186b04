package models

import "time"

// ChangeEvent is the immutable audit record written for every accepted application mutation.
// Name, Content and Status hold the application values after the mutation.
type ChangeEvent struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Name          string    `json:"name"`
	Content       string    `json:"content"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Cause         *string   `json:"cause,omitempty"`
}

// NewChangeEvent snapshots app into a change event. The identifier is assigned by the caller.
func NewChangeEvent(app Application, cause *string, timestamp time.Time) *ChangeEvent {
	return &ChangeEvent{
		ApplicationID: app.ID,
		Name:          app.Name,
		Content:       app.Content,
		Status:        app.Status,
		Timestamp:     timestamp.UTC(),
		Cause:         cause,
	}
}
