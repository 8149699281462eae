package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/hookline/hookline/pkg/compiler"
	"github.com/hookline/hookline/pkg/identity"
	"github.com/hookline/hookline/pkg/store"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func gone(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(410).
		WithInstance(c.Path()).
		WithType("workflow_renamed").
		WithDetail(detail)

	return c.Status(fiber.StatusGone).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps the engine's error taxonomy onto caller-visible
// outcomes: reject, not-found, gone, unprocessable.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, identity.ErrMalformedID):
		return badRequest(c, err.Error())

	case errors.Is(err, identity.ErrWorkflowGone):
		return gone(c, err.Error())

	case errors.Is(err, identity.ErrWorkflowNotFound):
		return notFound(c, err.Error())

	case compiler.IsConfigurationError(err):
		return badRequest(c, err.Error())

	case store.IsConfigNotFound(err), errors.Is(err, store.ErrStateNotFound):
		return notFound(c, err.Error())

	case store.IsNoPausedState(err):
		return notFound(c, "no paused state found")

	case store.IsCorruptPauseState(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("corrupt_pause_state").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	default:
		return internalError(c, err)
	}
}
