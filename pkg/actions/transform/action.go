// Package transform provides a data reshaping action for workflow nodes.
package transform

import (
	"context"
	"log/slog"

	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "transform"
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"output": map[string]any{
				"type":        "object",
				"description": "Object emitted as this node's output. Values support {{node.field}} placeholders, which are resolved before the action runs.",
			},
		},
		"required": []string{"output"},
	}
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	output, _ := config["output"].(map[string]any)
	if output == nil {
		output = map[string]any{}
	}

	return &Action{output: output}, nil
}

// Action re-emits its already-resolved output mapping, letting workflows
// rename and reshape upstream node outputs for downstream consumption.
type Action struct {
	output map[string]any
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (protocol.Result, error) {
	logger.DebugContext(ctx, "Executing transform action", "fields", len(a.output))

	return protocol.Ok(a.output), nil
}
