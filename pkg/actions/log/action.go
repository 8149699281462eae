// Package log provides a logging action for workflow debugging.
package log

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
	return "log"
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The message to log. Supports {{node.field}} placeholders.",
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for the message",
				"default":     "info",
				"enum":        []string{"debug", "info", "warn", "error"},
			},
		},
		"required": []string{"message"},
	}
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	if config == nil {
		config = map[string]any{}
	}

	message, _ := config["message"].(string)
	level, _ := config["level"].(string)

	return &Action{message: message, level: level}, nil
}

type Action struct {
	message string
	level   string
}

func (a *Action) Execute(_ context.Context, _ models.ExecutionContext, logger *slog.Logger) (protocol.Result, error) {
	switch a.level {
	case "debug":
		logger.Debug(a.message)
	case "warn":
		logger.Warn(a.message)
	case "error":
		logger.Error(a.message)
	default:
		logger.Info(a.message)
	}

	return protocol.Ok(map[string]any{"message": a.message}), nil
}
