// Package registry maps node types onto their action factories. A Registry
// is an explicit value constructed at startup and passed into the
// coordinator; there is no process-wide registry.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hookline/hookline/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger.With("module", "registry"),
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction validates config against the factory's schema, when one is
// declared, and builds the action.
func (r *Registry) CreateAction(actionType string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", actionType)
	}

	if schema := factory.Schema(); schema != nil {
		if err := validateConfig(schema, config); err != nil {
			return nil, fmt.Errorf("invalid config for action type '%s': %w", actionType, err)
		}
	}

	return factory.Create(config)
}

// HasAction reports whether a factory is registered for actionType.
func (r *Registry) HasAction(actionType string) bool {
	_, ok := r.actionFactories[actionType]

	return ok
}

func validateConfig(schema, config map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := ""
	for _, desc := range result.Errors() {
		if details != "" {
			details += "; "
		}

		details += desc.String()
	}

	return fmt.Errorf("schema violation: %s", details)
}
