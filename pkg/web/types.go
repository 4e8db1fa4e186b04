// Package web provides HTTP request and response types for the application API.
package web

import (
	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/workflow"
)

// CreateApplicationRequest represents the request body for creating a new application.
type CreateApplicationRequest struct {
	Name    string `json:"name"    validate:"required"`
	Content string `json:"content" validate:"required"`
}

// EditContentRequest carries the replacement content. Blank content is refused by the service.
type EditContentRequest struct {
	Content string `json:"content"`
}

// CauseRequest carries the cause for reject and delete.
type CauseRequest struct {
	Cause string `json:"cause"`
}

// TransitionsResponse lists the operations allowed from the current status.
type TransitionsResponse struct {
	ID         string               `json:"id"`
	Status     models.Status        `json:"status"`
	Operations []workflow.Operation `json:"operations"`
}
