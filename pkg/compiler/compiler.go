// Package compiler turns trigger definitions into queue operations: one-shot
// enqueues, recurring-schedule upserts and test-run overrides.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/hookline/hookline/pkg/identity"
	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/queue"
	"github.com/hookline/hookline/pkg/store"
)

// ErrConfiguration indicates missing or invalid trigger fields. It is always
// raised before any queue mutation; a failed compile leaves no partial
// schedule behind.
var ErrConfiguration = errors.New("invalid trigger configuration")

// IsConfigurationError checks if an error indicates an invalid trigger definition.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// DeployResult reports where a deployed workflow became reachable.
type DeployResult struct {
	WorkflowID string `json:"workflow_id"`
	WebhookURL string `json:"webhook_url,omitempty"`
	JobID      string `json:"job_id,omitempty"`
}

// Compiler registers workflow configurations and compiles their triggers into
// the right queue operations with deliberate dedupe identity for each case.
type Compiler struct {
	configs  *store.ConfigStore
	resolver *identity.Resolver
	queue    queue.Queue
	baseURL  string
	logger   *slog.Logger
}

func NewCompiler(
	configs *store.ConfigStore,
	resolver *identity.Resolver,
	q queue.Queue,
	baseURL string,
	logger *slog.Logger,
) *Compiler {
	return &Compiler{
		configs:  configs,
		resolver: resolver,
		queue:    q,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With("module", "schedule_compiler"),
	}
}

// Deploy durably registers cfg and makes its trigger live. previousName, when
// non-empty, is the name the workflow carried before this save; a webhook
// rename leaves a tombstone behind so old callback URLs answer "gone" rather
// than "not found". Redeploying the same name overwrites in place.
func (c *Compiler) Deploy(ctx context.Context, cfg *models.WorkflowConfig, previousName string) (*DeployResult, error) {
	switch cfg.Trigger.Type {
	case models.TriggerWebhook:
		return c.deployWebhook(ctx, cfg, previousName)
	case models.TriggerTimer:
		return c.deployTimer(ctx, cfg)
	case models.TriggerManual:
		return c.deployManual(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown trigger type %q", ErrConfiguration, cfg.Trigger.Type)
	}
}

func (c *Compiler) deployWebhook(ctx context.Context, cfg *models.WorkflowConfig, previousName string) (*DeployResult, error) {
	workflowID := identity.DeriveID(models.TriggerWebhook, cfg.Name)
	cfg.ID = workflowID

	if previousName != "" {
		previousID := identity.DeriveID(models.TriggerWebhook, previousName)
		c.resolver.ReconcileRename(ctx, previousID, workflowID)
	}

	if err := c.configs.PutConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("store webhook workflow %s: %w", workflowID, err)
	}

	// the id is active again; any tombstone left by an earlier rename away
	// from this name must not shadow it
	c.resolver.ClearTombstone(ctx, workflowID)

	c.logger.InfoContext(ctx, "Deployed webhook workflow", "workflow_id", workflowID)

	return &DeployResult{
		WorkflowID: workflowID,
		WebhookURL: c.baseURL + "/hooks/" + workflowID,
	}, nil
}

func (c *Compiler) deployTimer(ctx context.Context, cfg *models.WorkflowConfig) (*DeployResult, error) {
	workflowID := identity.DeriveID(models.TriggerTimer, cfg.Name)
	cfg.ID = workflowID

	entry, err := compileRecurrence(workflowID, cfg.Trigger)
	if err != nil {
		return nil, err
	}

	if err := c.configs.PutConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("store timer workflow %s: %w", workflowID, err)
	}

	if err := c.replaceRecurrence(ctx, entry); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Deployed timer workflow",
		"workflow_id", workflowID, "pattern", entry.Pattern, "period_ms", entry.PeriodMs)

	return &DeployResult{WorkflowID: workflowID}, nil
}

func (c *Compiler) deployManual(ctx context.Context, cfg *models.WorkflowConfig) (*DeployResult, error) {
	// a manual workflow keeps its time-based id across redeploys so repeat
	// submissions of the same workflow coalesce in the queue; the id assigned
	// on first deploy is recorded on the editor state and recovered here
	if !strings.HasPrefix(cfg.ID, identity.AdhocIDPrefix) {
		if state, err := c.configs.LoadState(ctx, cfg.Name); err == nil && strings.HasPrefix(state.ID, identity.AdhocIDPrefix) {
			cfg.ID = state.ID
		} else {
			cfg.ID = identity.DeriveID(models.TriggerManual, cfg.Name)
		}
	}

	if err := c.configs.PutConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("store manual workflow %s: %w", cfg.ID, err)
	}

	if err := c.configs.BindStateID(ctx, cfg.Name, cfg.ID); err != nil {
		return nil, fmt.Errorf("bind state id for %s: %w", cfg.Name, err)
	}

	jobID, err := c.Run(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	return &DeployResult{WorkflowID: cfg.ID, JobID: jobID}, nil
}

// Run enqueues one execution of a registered workflow. The dedupe id is the
// workflow id itself, so re-submitting before the previous run is claimed
// coalesces rather than duplicating.
func (c *Compiler) Run(ctx context.Context, workflowID string) (string, error) {
	if _, err := c.configs.GetConfig(ctx, workflowID); err != nil {
		return "", err
	}

	request := &models.ExecutionRequest{
		WorkflowID:  workflowID,
		ExecutionID: workflowID,
		JobID:       workflowID,
		RequestedAt: time.Now().UTC(),
	}

	return c.queue.Enqueue(ctx, queue.KindExecution, request, queue.EnqueueOptions{DedupeID: workflowID})
}

// TriggerWebhook resolves an inbound webhook id and enqueues a run carrying
// the delivery payload. Each delivery gets a fresh dedupe id; progress still
// broadcasts to the stable workflow id room.
func (c *Compiler) TriggerWebhook(ctx context.Context, rawID string, payload map[string]any) (string, error) {
	cfg, err := c.resolver.Resolve(ctx, rawID)
	if err != nil {
		return "", err
	}

	request := &models.ExecutionRequest{
		WorkflowID:  cfg.ID,
		ExecutionID: cfg.ID,
		JobID:       uuid.New().String(),
		Context:     map[string]any{"trigger": payload},
		RequestedAt: time.Now().UTC(),
	}

	return c.queue.Enqueue(ctx, queue.KindExecution, request, queue.EnqueueOptions{DedupeID: request.JobID})
}

// TestRun bypasses scheduling and dedupe entirely: a fresh time-based id is
// both the dedupe key and the broadcast room, and a synthetic trigger payload
// keeps downstream variable resolution from failing on absent fields.
func (c *Compiler) TestRun(ctx context.Context, cfg *models.WorkflowConfig) (string, error) {
	runID := identity.NewTestRunID()

	request := &models.ExecutionRequest{
		WorkflowID:  runID,
		ExecutionID: runID,
		JobID:       runID,
		Context: map[string]any{
			"trigger": map[string]any{
				"test":         true,
				"triggered_at": time.Now().UTC().Format(time.RFC3339),
				"payload":      map[string]any{},
			},
		},
		RequestedAt:      time.Now().UTC(),
		RemainingActions: cfg.Nodes,
		Globals:          cfg.GlobalSettings,
	}

	return c.queue.Enqueue(ctx, queue.KindExecution, request, queue.EnqueueOptions{DedupeID: runID})
}

// replaceRecurrence removes every recurring entry whose logical id matches
// the new entry before inserting it: at most one live recurrence per workflow
// survives any sequence of redeploys.
func (c *Compiler) replaceRecurrence(ctx context.Context, entry *queue.RecurringEntry) error {
	existing, err := c.queue.ListRecurring(ctx)
	if err != nil {
		return fmt.Errorf("list recurring entries: %w", err)
	}

	for _, stale := range existing {
		if stale.ID != entry.ID {
			continue
		}

		if err := c.queue.RemoveRecurring(ctx, stale.Key); err != nil && !errors.Is(err, queue.ErrNoRecurringEntry) {
			return fmt.Errorf("remove stale recurrence %s: %w", stale.Key, err)
		}
	}

	return c.queue.UpsertRecurring(ctx, entry)
}

func compileRecurrence(workflowID string, trigger models.TriggerSpec) (*queue.RecurringEntry, error) {
	entry := &queue.RecurringEntry{ID: workflowID}

	now := time.Now().UTC()

	switch trigger.ScheduleType {
	case models.ScheduleCron:
		if trigger.CronExpression == "" {
			return nil, fmt.Errorf("%w: cron schedule requires a cron expression", ErrConfiguration)
		}

		schedule, err := cron.ParseStandard(trigger.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}

		entry.Pattern = trigger.CronExpression
		entry.NextRunAt = schedule.Next(now)
	case models.ScheduleInterval:
		if trigger.IntervalMinutes <= 0 {
			return nil, fmt.Errorf("%w: interval schedule requires interval_minutes > 0", ErrConfiguration)
		}

		entry.PeriodMs = int64(trigger.IntervalMinutes) * 60 * 1000
		entry.NextRunAt = now.Add(time.Duration(entry.PeriodMs) * time.Millisecond)
	default:
		return nil, fmt.Errorf("%w: unknown schedule type %q", ErrConfiguration, trigger.ScheduleType)
	}

	return entry, nil
}

// FireRecurrence is the poller callback: it enqueues one execution of the
// entry's workflow with a per-tick dedupe id, so concurrent pollers firing
// the same tick coalesce.
func (c *Compiler) FireRecurrence(ctx context.Context, entry *queue.RecurringEntry) error {
	request := &models.ExecutionRequest{
		WorkflowID:  entry.ID,
		ExecutionID: entry.ID,
		JobID:       fmt.Sprintf("%s:%d", entry.ID, entry.NextRunAt.UnixMilli()),
		RequestedAt: time.Now().UTC(),
	}

	_, err := c.queue.Enqueue(ctx, queue.KindExecution, request, queue.EnqueueOptions{DedupeID: request.JobID})

	return err
}
