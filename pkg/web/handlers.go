// Package web provides HTTP handlers for the application approval API.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/appflow/pkg/models"
	"github.com/dukex/appflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	applicationService *services.Application
	validator          *validator.Validate
}

func NewAPIHandlers(
	applicationService *services.Application,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		applicationService: applicationService,
		validator:          validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.applicationService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "appflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "appflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetApplications(c fiber.Ctx) error {
	applications, err := h.applicationService.FindAll(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	if applications == nil {
		applications = []*models.Application{}
	}

	return c.JSON(applications)
}

func (h *APIHandlers) CreateApplication(c fiber.Ctx) error {
	var req CreateApplicationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.applicationService.Create(c.Context(), req.Name, req.Content)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetApplication(c fiber.Ctx) error {
	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return c.JSON(app)
}

func (h *APIHandlers) EditContent(c fiber.Ctx) error {
	var req EditContentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return h.respond(c)(h.applicationService.Edit(c.Context(), app, req.Content))
}

func (h *APIHandlers) VerifyApplication(c fiber.Ctx) error {
	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return h.respond(c)(h.applicationService.Verify(c.Context(), app))
}

func (h *APIHandlers) AcceptApplication(c fiber.Ctx) error {
	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return h.respond(c)(h.applicationService.Accept(c.Context(), app))
}

func (h *APIHandlers) PublishApplication(c fiber.Ctx) error {
	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return h.respond(c)(h.applicationService.Publish(c.Context(), app))
}

func (h *APIHandlers) RejectApplication(c fiber.Ctx) error {
	var req CauseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return h.respond(c)(h.applicationService.Reject(c.Context(), app, req.Cause))
}

func (h *APIHandlers) DeleteApplication(c fiber.Ctx) error {
	var req CauseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return h.respond(c)(h.applicationService.Delete(c.Context(), c.Params("id"), req.Cause))
}

func (h *APIHandlers) GetApplicationEvents(c fiber.Ctx) error {
	changes, err := h.applicationService.History(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if changes == nil {
		changes = []*models.ChangeEvent{}
	}

	return c.JSON(changes)
}

func (h *APIHandlers) GetApplicationTransitions(c fiber.Ctx) error {
	app, err := h.lookup(c)
	if err != nil || app == nil {
		return err
	}

	return c.JSON(TransitionsResponse{
		ID:         app.ID,
		Status:     app.Status,
		Operations: h.applicationService.Transitions(app),
	})
}

// lookup loads the application named by the :id parameter. When it returns a nil
// application the response has already been written.
func (h *APIHandlers) lookup(c fiber.Ctx) (*models.Application, error) {
	id := c.Params("id")
	if id == "" {
		return nil, badRequest(c, "Application ID is required")
	}

	app, err := h.applicationService.FindByID(c.Context(), id)
	if err != nil {
		return nil, handleServiceError(c, err)
	}

	if app == nil {
		return nil, notFound(c, "Application not found")
	}

	return app, nil
}

func (h *APIHandlers) respond(c fiber.Ctx) func(*models.Application, error) error {
	return func(app *models.Application, err error) error {
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.JSON(app)
	}
}
