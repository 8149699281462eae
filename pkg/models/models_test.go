package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already_clean", input: "myworkflow", expected: "myworkflow"},
		{name: "mixed_case", input: "MyWorkflow", expected: "myworkflow"},
		{name: "spaces_and_punctuation", input: "My Workflow (v2)!", expected: "myworkflowv2"},
		{name: "digits_kept", input: "daily-report-2024", expected: "dailyreport2024"},
		{name: "only_symbols", input: "!!!", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input))
		})
	}
}

func TestExecutionContextSnapshotRoundTrip(t *testing.T) {
	execCtx := &ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "workflow_demo",
		TriggerData: map[string]any{"body": map[string]any{"user": "ada"}},
		NodeOutputs: map[string]any{
			"fetch": map[string]any{"status": 200},
		},
	}

	snapshot := execCtx.Snapshot()

	restored := RestoreContext("exec-2", "workflow_demo", snapshot)

	assert.Equal(t, "exec-2", restored.ExecutionID)
	assert.Equal(t, execCtx.TriggerData, restored.TriggerData)
	assert.Equal(t, execCtx.NodeOutputs, restored.NodeOutputs)
}

func TestRestoreContextWithoutTrigger(t *testing.T) {
	restored := RestoreContext("exec-1", "workflow_demo", map[string]any{
		"fetch": map[string]any{"status": 200},
	})

	assert.Nil(t, restored.TriggerData)
	assert.Len(t, restored.NodeOutputs, 1)
}
