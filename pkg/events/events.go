// Package events defines event types and structures for execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/hookline/hookline/pkg/models"
)

type EventType string

// Topic is the single fixed channel every execution event is published on.
const Topic = "hookline.executions"

const JobIDMetadataKey = "job_id"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	NodeFinishedEvent       EventType = "node.finished"
	WorkflowUpdateEvent     EventType = "workflow.update"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	JobID      string    `json:"job_id"`
}

func (b BaseEvent) GetJobID() string {
	return b.JobID
}

func NewBaseEvent(eventType EventType, workflowID, jobID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		JobID:      jobID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Resume      bool           `json:"resume,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type NodeFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	Outputs     map[string]any `json:"outputs,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

// WorkflowUpdate carries a guardrail payload to the watchers of a paused run.
// The payload is forwarded verbatim from the action that signalled the pause.
type WorkflowUpdate struct {
	BaseEvent

	ExecutionID string                   `json:"execution_id"`
	NodeID      string                   `json:"node_id"`
	Status      string                   `json:"status"`
	Payload     *models.GuardrailPayload `json:"payload"`

	// PausedJobID is the queue job id the pause state was persisted under;
	// a resume call must present it together with the workflow id.
	PausedJobID string `json:"paused_job_id"`
}

func (e WorkflowUpdate) GetType() EventType {
	return WorkflowUpdateEvent
}

type ExecutionResumed struct {
	BaseEvent

	ExecutionID    string `json:"execution_id"`
	NodesRemaining int    `json:"nodes_remaining"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	NodesExecuted int            `json:"nodes_executed"`
	Result        map[string]any `json:"result,omitempty"`
	DurationMs    int64          `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id,omitempty"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
