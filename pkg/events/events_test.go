package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/pkg/models"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(ExecutionStartedEvent, "workflow_demo", "job-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ExecutionStartedEvent, event.Type)
	assert.Equal(t, "workflow_demo", event.WorkflowID)
	assert.Equal(t, "job-1", event.GetJobID())
	assert.False(t, event.Timestamp.IsZero())
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, ExecutionStartedEvent, ExecutionStarted{}.GetType())
	assert.Equal(t, NodeFinishedEvent, NodeFinished{}.GetType())
	assert.Equal(t, WorkflowUpdateEvent, WorkflowUpdate{}.GetType())
	assert.Equal(t, ExecutionResumedEvent, ExecutionResumed{}.GetType())
	assert.Equal(t, ExecutionCompletedEvent, ExecutionCompleted{}.GetType())
	assert.Equal(t, ExecutionFailedEvent, ExecutionFailed{}.GetType())
}

func TestWorkflowUpdateCarriesPayloadVerbatim(t *testing.T) {
	update := WorkflowUpdate{
		BaseEvent:   NewBaseEvent(WorkflowUpdateEvent, "workflow_demo", "exec-1"),
		ExecutionID: "exec-1",
		NodeID:      "transfer",
		Status:      "paused",
		Payload: &models.GuardrailPayload{
			Code:          models.GuardrailCodeDepositRequired,
			TokenSymbol:   "ETH",
			IsNative:      true,
			AmountRaw:     "1000000000000000000",
			AmountDecimal: "1.0",
			Decimals:      18,
			Account:       "0xabc",
			WorkflowID:    "workflow_demo",
		},
		PausedJobID: "job-1",
	}

	raw, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded WorkflowUpdate
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.NotNil(t, decoded.Payload)
	assert.Equal(t, models.GuardrailCodeDepositRequired, decoded.Payload.Code)
	assert.Equal(t, "1000000000000000000", decoded.Payload.AmountRaw)
	assert.True(t, decoded.Payload.IsNative)
	assert.Equal(t, "job-1", decoded.PausedJobID)
}
