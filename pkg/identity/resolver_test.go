package identity

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/store"
)

func newTestResolver(t *testing.T) (*Resolver, *store.ConfigStore) {
	t.Helper()

	configs := store.NewConfigStore(store.NewMemoryStore())

	return NewResolver(configs, slog.Default()), configs
}

func TestDeriveIDDeterministic(t *testing.T) {
	tests := []struct {
		name     string
		trigger  models.TriggerType
		input    string
		expected string
	}{
		{name: "webhook", trigger: models.TriggerWebhook, input: "My Hook", expected: "workflow_myhook"},
		{name: "webhook_punctuation", trigger: models.TriggerWebhook, input: "My Hook (v2)!", expected: "workflow_myhookv2"},
		{name: "timer", trigger: models.TriggerTimer, input: "Daily Report", expected: "cron_workflow_dailyreport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveID(tt.trigger, tt.input))
			assert.Equal(t, tt.expected, DeriveID(tt.trigger, tt.input))
		})
	}
}

func TestDeriveIDManualIsTimeBased(t *testing.T) {
	id := DeriveID(models.TriggerManual, "anything")

	assert.Regexp(t, `^job_\d+$`, id)
}

func TestNewTestRunIDsAreUnique(t *testing.T) {
	first := NewTestRunID()
	second := NewTestRunID()

	assert.Regexp(t, `^job_test_\d+$`, first)
	assert.NotEqual(t, first, second)
}

func TestValidateWebhookID(t *testing.T) {
	assert.True(t, ValidateWebhookID("workflow_myhook"))
	assert.False(t, ValidateWebhookID("workflow_"))
	assert.False(t, ValidateWebhookID("cron_workflow_daily"))
	assert.False(t, ValidateWebhookID("job_123"))
	assert.False(t, ValidateWebhookID(""))
}

func TestResolveMalformedID(t *testing.T) {
	resolver, _ := newTestResolver(t)

	_, err := resolver.Resolve(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrMalformedID)
}

func TestResolveActiveConfig(t *testing.T) {
	ctx := context.Background()
	resolver, configs := newTestResolver(t)

	cfg := &models.WorkflowConfig{ID: "workflow_myhook", Name: "My Hook"}
	require.NoError(t, configs.PutConfig(ctx, cfg))

	resolved, err := resolver.Resolve(ctx, "workflow_myhook")
	require.NoError(t, err)
	assert.Equal(t, "workflow_myhook", resolved.ID)
}

func TestResolveNotFound(t *testing.T) {
	resolver, _ := newTestResolver(t)

	_, err := resolver.Resolve(context.Background(), "workflow_unknown")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestRenameLeavesOldIDGone(t *testing.T) {
	ctx := context.Background()
	resolver, configs := newTestResolver(t)

	require.NoError(t, configs.PutConfig(ctx, &models.WorkflowConfig{ID: "workflow_oldname", Name: "Old Name"}))

	resolver.ReconcileRename(ctx, "workflow_oldname", "workflow_newname")

	_, err := resolver.Resolve(ctx, "workflow_oldname")
	require.ErrorIs(t, err, ErrWorkflowGone)
	assert.Contains(t, err.Error(), "workflow_newname")

	// Config and tombstone never coexist for the same id.
	_, err = configs.GetConfig(ctx, "workflow_oldname")
	assert.True(t, store.IsConfigNotFound(err))

	tombstone, err := configs.GetTombstone(ctx, "workflow_oldname")
	require.NoError(t, err)
	assert.Equal(t, models.TombstoneStatusRenamed, tombstone.Status)
}

func TestRenameNoopWhenIDUnchanged(t *testing.T) {
	ctx := context.Background()
	resolver, configs := newTestResolver(t)

	require.NoError(t, configs.PutConfig(ctx, &models.WorkflowConfig{ID: "workflow_myhook", Name: "My Hook"}))

	resolver.ReconcileRename(ctx, "workflow_myhook", "workflow_myhook")

	_, err := configs.GetConfig(ctx, "workflow_myhook")
	require.NoError(t, err)

	_, err = configs.GetTombstone(ctx, "workflow_myhook")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestRenameNoopWithoutPreviousConfig(t *testing.T) {
	ctx := context.Background()
	resolver, configs := newTestResolver(t)

	resolver.ReconcileRename(ctx, "workflow_neverdeployed", "workflow_newname")

	_, err := configs.GetTombstone(ctx, "workflow_neverdeployed")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestReactivatedNameWinsOverTombstone(t *testing.T) {
	ctx := context.Background()
	resolver, configs := newTestResolver(t)

	require.NoError(t, configs.PutConfig(ctx, &models.WorkflowConfig{ID: "workflow_myhook", Name: "My Hook"}))
	resolver.ReconcileRename(ctx, "workflow_myhook", "workflow_otherhook")

	// A later deploy reuses the old name before its tombstone is cleared.
	require.NoError(t, configs.PutConfig(ctx, &models.WorkflowConfig{ID: "workflow_myhook", Name: "My Hook"}))

	resolved, err := resolver.Resolve(ctx, "workflow_myhook")
	require.NoError(t, err)
	assert.Equal(t, "workflow_myhook", resolved.ID)

	resolver.ClearTombstone(ctx, "workflow_myhook")

	_, err = configs.GetTombstone(ctx, "workflow_myhook")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}
