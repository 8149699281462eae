package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/pkg/models"
)

func samplePauseState() *models.PauseState {
	return &models.PauseState{
		Context: map[string]any{
			"fetch":   map[string]any{"status_code": float64(200)},
			"trigger": map[string]any{"source": "webhook"},
		},
		RemainingActions: []*models.Node{
			{ID: "transfer", Type: "http_request", Config: map[string]any{"url": "https://example.com"}},
		},
		SpreadsheetID: "sheet-1",
	}
}

func TestSuspensionStoreConsumeOnce(t *testing.T) {
	ctx := context.Background()
	suspensions := NewSuspensionStore(NewMemoryStore())

	require.NoError(t, suspensions.Save(ctx, "workflow_demo", "job-1", samplePauseState()))

	state, err := suspensions.Consume(ctx, "workflow_demo", "job-1")
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", state.SpreadsheetID)
	require.Len(t, state.RemainingActions, 1)
	assert.Equal(t, "transfer", state.RemainingActions[0].ID)

	_, err = suspensions.Consume(ctx, "workflow_demo", "job-1")
	require.Error(t, err)
	assert.True(t, IsNoPausedState(err))
}

func TestSuspensionStoreKeyedByWorkflowAndJob(t *testing.T) {
	ctx := context.Background()
	suspensions := NewSuspensionStore(NewMemoryStore())

	require.NoError(t, suspensions.Save(ctx, "workflow_demo", "job-1", samplePauseState()))

	_, err := suspensions.Consume(ctx, "workflow_demo", "job-2")
	assert.True(t, IsNoPausedState(err))

	_, err = suspensions.Consume(ctx, "workflow_other", "job-1")
	assert.True(t, IsNoPausedState(err))

	_, err = suspensions.Consume(ctx, "workflow_demo", "job-1")
	require.NoError(t, err)
}

func TestSuspensionStoreCorruptState(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	suspensions := NewSuspensionStore(kv)

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "not_json", payload: []byte("{broken")},
		{name: "missing_context", payload: []byte(`{"remaining_actions":[{"id":"a","type":"log"}]}`)},
		{name: "no_remaining_actions", payload: []byte(`{"context":{"fetch":{}},"remaining_actions":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, pauseKey("workflow_demo", "job-1"), tt.payload))

			_, err := suspensions.Consume(ctx, "workflow_demo", "job-1")
			require.Error(t, err)
			assert.True(t, IsCorruptPauseState(err))
		})
	}
}
