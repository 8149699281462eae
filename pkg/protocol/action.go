// Package protocol defines the contracts between the orchestration core and
// the action implementations plugged into it.
package protocol

import (
	"context"
	"log/slog"

	"github.com/hookline/hookline/pkg/models"
)

// Result is the tagged outcome of one action execution. Pause being non-nil
// means a guardrail pre-condition failed and the run must suspend rather than
// fail; Outputs is only meaningful when Pause is nil.
type Result struct {
	Outputs map[string]any
	Pause   *models.GuardrailPayload
}

// Ok wraps a successful execution's outputs.
func Ok(outputs map[string]any) Result {
	return Result{Outputs: outputs}
}

// Paused signals a guardrail suspension carrying the actionable payload.
func Paused(payload *models.GuardrailPayload) Result {
	return Result{Pause: payload}
}

// Action executes one node with its template-resolved configuration already
// applied. Any returned error is terminal for the run; suspensions are
// signalled through Result.Pause, never through error.
type Action interface {
	Execute(ctx context.Context, execCtx models.ExecutionContext, logger *slog.Logger) (Result, error)
}

// ActionFactory builds actions of one type from node configuration.
type ActionFactory interface {
	Create(config map[string]any) (Action, error)
	ID() string

	// Schema returns the JSON Schema the node configuration must satisfy,
	// or nil when the type accepts anything.
	Schema() map[string]any
}
