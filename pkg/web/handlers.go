// Package web provides the HTTP boundary of the orchestration engine.
package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/hookline/hookline/pkg/compiler"
	"github.com/hookline/hookline/pkg/coordinator"
	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/store"
)

type APIHandlers struct {
	compiler    *compiler.Compiler
	coordinator *coordinator.Coordinator
	configs     *store.ConfigStore
	validator   *validator.Validate
}

func NewAPIHandlers(
	comp *compiler.Compiler,
	coord *coordinator.Coordinator,
	configs *store.ConfigStore,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		compiler:    comp,
		coordinator: coord,
		configs:     configs,
		validator:   validate,
	}
}

// DeployRequest is the editor's save/deploy payload. PreviousName, when set,
// tells the engine the workflow was renamed since its last deploy.
type DeployRequest struct {
	Name           string             `json:"name"          validate:"required,min=3"`
	PreviousName   string             `json:"previous_name"`
	Trigger        models.TriggerSpec `json:"trigger"       validate:"required"`
	Nodes          []*models.Node     `json:"nodes"         validate:"required,min=1,dive"`
	Edges          []*models.Edge     `json:"edges"         validate:"dive"`
	GlobalSettings map[string]any     `json:"global_settings"`
}

func (h *APIHandlers) DeployWorkflow(c fiber.Ctx) error {
	var req DeployRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	cfg := &models.WorkflowConfig{
		Name:           req.Name,
		Trigger:        req.Trigger,
		Nodes:          req.Nodes,
		Edges:          req.Edges,
		GlobalSettings: req.GlobalSettings,
	}

	if _, err := h.configs.SaveState(c.Context(), cfg); err != nil {
		return handleEngineError(c, err)
	}

	result, err := h.compiler.Deploy(c.Context(), cfg, req.PreviousName)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleWebhook accepts an inbound callback under a workflow id. A renamed
// workflow's old id answers 410, an unknown id 404.
func (h *APIHandlers) HandleWebhook(c fiber.Ctx) error {
	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&payload); err != nil {
			return badRequest(c, "Invalid webhook payload: "+err.Error())
		}
	}

	jobID, err := h.compiler.TriggerWebhook(c.Context(), c.Params("id"), payload)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id": c.Params("id"),
		"job_id":      jobID,
	})
}

func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	jobID, err := h.compiler.Run(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id": c.Params("id"),
		"job_id":      jobID,
	})
}

// TestRunWorkflow executes the posted node list immediately with a synthetic
// trigger payload, bypassing scheduling and dedupe.
func (h *APIHandlers) TestRunWorkflow(c fiber.Ctx) error {
	var req DeployRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if len(req.Nodes) == 0 {
		return badRequest(c, "A test run requires at least one node")
	}

	cfg := &models.WorkflowConfig{
		Name:           req.Name,
		Trigger:        req.Trigger,
		Nodes:          req.Nodes,
		GlobalSettings: req.GlobalSettings,
	}

	runID, err := h.compiler.TestRun(c.Context(), cfg)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"run_id": runID})
}

// ResumeExecution consumes the pause state for (workflowId, jobId) and
// re-enqueues the remaining work. A second call for the same pair gets 404.
func (h *APIHandlers) ResumeExecution(c fiber.Ctx) error {
	executionID, err := h.coordinator.Resume(c.Context(), c.Params("id"), c.Params("jobId"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id":  c.Params("id"),
		"execution_id": executionID,
	})
}

func (h *APIHandlers) SaveWorkflowState(c fiber.Ctx) error {
	var req DeployRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	cfg := &models.WorkflowConfig{
		Name:           req.Name,
		Trigger:        req.Trigger,
		Nodes:          req.Nodes,
		Edges:          req.Edges,
		GlobalSettings: req.GlobalSettings,
	}

	saved, err := h.configs.SaveState(c.Context(), cfg)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) ListWorkflowStates(c fiber.Ctx) error {
	states, err := h.configs.ListStates(c.Context())
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(states)
}

func (h *APIHandlers) LoadWorkflowState(c fiber.Ctx) error {
	state, err := h.configs.LoadState(c.Context(), c.Params("name"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(state)
}
