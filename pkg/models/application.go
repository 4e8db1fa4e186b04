// Package models defines the domain models for the application approval workflow.
package models

// Status represents the lifecycle state of an application.
type Status string

const (
	StatusCreated   Status = "CREATED"   // Initial state of every application
	StatusVerified  Status = "VERIFIED"  // Content checked, waiting for a decision
	StatusAccepted  Status = "ACCEPTED"  // Approved, not yet visible
	StatusRejected  Status = "REJECTED"  // Terminal
	StatusPublished Status = "PUBLISHED" // Terminal
	StatusDeleted   Status = "DELETED"   // Terminal, the record is kept
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{
	StatusCreated,
	StatusVerified,
	StatusAccepted,
	StatusRejected,
	StatusPublished,
	StatusDeleted,
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}

	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusPublished || s == StatusDeleted
}

func (s Status) String() string {
	return string(s)
}

// Application is a named record with textual content moving through the approval workflow.
type Application struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Status  Status `json:"status"`
}
