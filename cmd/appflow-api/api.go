// Package main provides the appflow API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/appflow/pkg/eventbus"
	"github.com/dukex/appflow/pkg/persistence"
	"github.com/dukex/appflow/pkg/services"
	"github.com/dukex/appflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.Option{services.WithLogger(a.logger)}

	if a.eventBus != nil {
		opts = append(opts, services.WithPublisher(a.eventBus))
	}

	if a.tracer != nil {
		opts = append(opts, services.WithTracer(a.tracer))
	}

	applicationService := services.NewApplication(a.persistence, opts...)
	handlers := web.NewAPIHandlers(applicationService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("appflow API")
	})

	app.Get("/health", handlers.HealthCheck)

	apps := app.Group("/applications")
	apps.Get("/", handlers.GetApplications)
	apps.Post("/", handlers.CreateApplication)
	apps.Get("/:id", handlers.GetApplication)
	apps.Put("/:id/content", handlers.EditContent)
	apps.Get("/:id/events", handlers.GetApplicationEvents)
	apps.Get("/:id/transitions", handlers.GetApplicationTransitions)

	app.Post("/verify-application/:id", handlers.VerifyApplication)
	app.Post("/reject-application/:id", handlers.RejectApplication)
	app.Post("/accept-application/:id", handlers.AcceptApplication)
	app.Post("/delete-application/:id", handlers.DeleteApplication)
	app.Post("/publish-application/:id", handlers.PublishApplication)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
