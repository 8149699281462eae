package models

import "time"

// ExecutionRequest is the unit of work submitted to the queue. JobID is the
// queue's dedupe key; ExecutionID is the broadcast-room key and may differ
// (webhook deliveries broadcast to the stable workflow id while each delivery
// gets a unique dedupe id).
type ExecutionRequest struct {
	WorkflowID       string         `json:"workflow_id"`
	ExecutionID      string         `json:"execution_id"`
	JobID            string         `json:"job_id"`
	Context          map[string]any `json:"context,omitempty"`
	RequestedAt      time.Time      `json:"requested_at"`
	Resume           bool           `json:"resume,omitempty"`
	RemainingActions []*Node        `json:"remaining_actions,omitempty"`
	Globals          map[string]any `json:"globals,omitempty"`
}

// ExecutionContext carries the accumulated state of one run. NodeOutputs is
// keyed by node id; TriggerData holds the payload that requested the run.
type ExecutionContext struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	NodeOutputs map[string]any `json:"node_outputs,omitempty"`
	Globals     map[string]any `json:"globals,omitempty"`
}

// Snapshot flattens the context into the map persisted by a pause and
// restored on resume. Node outputs are keyed by node id; trigger data lives
// under "trigger".
func (ec *ExecutionContext) Snapshot() map[string]any {
	snap := make(map[string]any, len(ec.NodeOutputs)+1)
	for id, out := range ec.NodeOutputs {
		snap[id] = out
	}

	if ec.TriggerData != nil {
		snap["trigger"] = ec.TriggerData
	}

	return snap
}

// RestoreContext rebuilds an ExecutionContext from a persisted snapshot.
func RestoreContext(executionID, workflowID string, snapshot map[string]any) *ExecutionContext {
	ec := &ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		NodeOutputs: make(map[string]any, len(snapshot)),
	}

	for key, value := range snapshot {
		if key == "trigger" {
			if data, ok := value.(map[string]any); ok {
				ec.TriggerData = data

				continue
			}
		}

		ec.NodeOutputs[key] = value
	}

	return ec
}
