// Package models defines the core domain models for trigger-driven workflow orchestration.
package models

import (
	"strings"
	"time"
)

// SanitizeName normalizes a workflow name for use inside derived ids and
// state keys: every non-alphanumeric character is stripped and the rest is
// lower-cased.
func SanitizeName(name string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// TriggerType selects how a workflow's executions are requested.
type TriggerType string

const (
	TriggerWebhook TriggerType = "webhook" // Reachable by HTTP callback
	TriggerTimer   TriggerType = "timer"   // Recurring schedule
	TriggerManual  TriggerType = "manual"  // Ad-hoc, on demand
)

// ScheduleType selects how a timer trigger expresses its recurrence.
type ScheduleType string

const (
	ScheduleCron     ScheduleType = "cron"
	ScheduleInterval ScheduleType = "interval"
)

// TriggerSpec is the user-authored trigger definition of a workflow.
type TriggerSpec struct {
	Type            TriggerType  `json:"type"                       validate:"required,oneof=webhook timer manual"`
	ScheduleType    ScheduleType `json:"schedule_type,omitempty"    validate:"omitempty,oneof=cron interval"`
	CronExpression  string       `json:"cron_expression,omitempty"`
	IntervalMinutes int          `json:"interval_minutes,omitempty" validate:"omitempty,gt=0"`
}

// Node is one executable action instance inside a workflow.
type Node struct {
	ID     string         `json:"id"   validate:"required"`
	Type   string         `json:"type" validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge connects two nodes. Execution order follows the node list; edges are
// kept for the editor surface and round-tripped untouched.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// WorkflowConfig is the durable, immutable-per-version workflow document.
// Version increments monotonically on every save of the same name; CreatedAt
// is preserved across re-saves. The execution path never mutates it.
type WorkflowConfig struct {
	ID             string         `json:"id"`
	Name           string         `json:"name" validate:"required,min=3"`
	Trigger        TriggerSpec    `json:"trigger"`
	Nodes          []*Node        `json:"nodes"`
	Edges          []*Edge        `json:"edges"`
	GlobalSettings map[string]any `json:"global_settings,omitempty"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

const TombstoneStatusRenamed = "renamed"

// Tombstone records that a workflow id was renamed away. It is keyed by the
// old id and mutually exclusive with an active config for the same id.
type Tombstone struct {
	Status        string    `json:"status"`
	NewWorkflowID string    `json:"new_workflow_id"`
	RenamedAt     time.Time `json:"renamed_at"`
}
