// Package main provides the hookline API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/hookline/hookline/pkg/compiler"
	"github.com/hookline/hookline/pkg/coordinator"
	"github.com/hookline/hookline/pkg/eventbridge"
	"github.com/hookline/hookline/pkg/identity"
	"github.com/hookline/hookline/pkg/queue"
	"github.com/hookline/hookline/pkg/store"
	"github.com/hookline/hookline/pkg/web"
)

type API struct {
	logger   *slog.Logger
	handlers *web.APIHandlers
	configs  *store.ConfigStore
	queue    queue.Queue
}

func NewAPI(
	logger *slog.Logger,
	kv store.KeyValueStore,
	q queue.Queue,
	bridge eventbridge.Bridge,
	baseURL string,
) *API {
	configs := store.NewConfigStore(kv)
	suspensions := store.NewSuspensionStore(kv)
	resolver := identity.NewResolver(configs, logger)
	comp := compiler.NewCompiler(configs, resolver, q, baseURL, logger)

	// the API never claims jobs; it needs the coordinator only for the
	// resume protocol
	coord := coordinator.NewCoordinator("api", configs, suspensions, q, nil, bridge, logger)

	handlers := web.NewAPIHandlers(comp, coord, configs, validator.New(validator.WithRequiredStructEnabled()))

	return &API{
		logger:   logger,
		handlers: handlers,
		configs:  configs,
		queue:    q,
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Hookline API")
	})

	app.Post("/workflows", a.handlers.DeployWorkflow)
	app.Post("/workflows/test", a.handlers.TestRunWorkflow)
	app.Post("/workflows/:id/run", a.handlers.RunWorkflow)
	app.Post("/workflows/:id/resume/:jobId", a.handlers.ResumeExecution)
	app.Put("/workflows/state", a.handlers.SaveWorkflowState)
	app.Get("/workflows/state", a.handlers.ListWorkflowStates)
	app.Get("/workflows/state/:name", a.handlers.LoadWorkflowState)
	app.Post("/hooks/:id", a.handlers.HandleWebhook)

	return app
}

func (a *API) Listen(ctx context.Context, port int) error {
	a.logger.InfoContext(ctx, "Starting hookline API", "port", port)

	return a.App().Listen(":" + strconv.Itoa(port))
}
