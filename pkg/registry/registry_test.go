package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/pkg/actions/log"
	"github.com/hookline/hookline/pkg/actions/transform"
	"github.com/hookline/hookline/pkg/models"
)

func newTestRegistry() *Registry {
	reg := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.RegisterAction(log.NewActionFactory())
	reg.RegisterAction(transform.NewActionFactory())

	return reg
}

func TestRegistryHasAction(t *testing.T) {
	reg := newTestRegistry()

	assert.True(t, reg.HasAction("log"))
	assert.True(t, reg.HasAction("transform"))
	assert.False(t, reg.HasAction("no_such_action"))
}

func TestCreateActionUnknownType(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateAction("no_such_action", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCreateActionValidatesSchema(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateAction("log", map[string]any{"level": "info"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = reg.CreateAction("log", map[string]any{"message": "hello", "level": "loud"})
	require.Error(t, err)
}

func TestCreateActionValidConfig(t *testing.T) {
	reg := newTestRegistry()

	action, err := reg.CreateAction("log", map[string]any{"message": "hello"})
	require.NoError(t, err)
	require.NotNil(t, action)
}

func TestCreateActionExecutes(t *testing.T) {
	reg := newTestRegistry()

	action, err := reg.CreateAction("transform", map[string]any{
		"output": map[string]any{"greeting": "hello"},
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)
	assert.Nil(t, result.Pause)
	assert.Equal(t, "hello", result.Outputs["greeting"])
}
