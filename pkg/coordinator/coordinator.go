// Package coordinator drives claimed execution requests through their
// life cycle: sequential node execution, variable resolution, the guardrail
// pause/resume protocol and progress events.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hookline/hookline/pkg/eventbridge"
	"github.com/hookline/hookline/pkg/events"
	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/otelhelper"
	"github.com/hookline/hookline/pkg/protocol"
	"github.com/hookline/hookline/pkg/queue"
	"github.com/hookline/hookline/pkg/registry"
	"github.com/hookline/hookline/pkg/store"
	"github.com/hookline/hookline/pkg/template"
)

// Coordinator consumes execution requests from the queue and runs them.
// Multiple instances may run in parallel across processes; the queue
// guarantees each job is claimed once. Within one run, node execution is
// strictly sequential.
type Coordinator struct {
	id          string
	configs     *store.ConfigStore
	suspensions *store.SuspensionStore
	queue       queue.Queue
	registry    *registry.Registry
	bridge      eventbridge.Bridge
	tracer      trace.Tracer
	logger      *slog.Logger
}

func NewCoordinator(
	id string,
	configs *store.ConfigStore,
	suspensions *store.SuspensionStore,
	q queue.Queue,
	reg *registry.Registry,
	bridge eventbridge.Bridge,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		id:          id,
		configs:     configs,
		suspensions: suspensions,
		queue:       q,
		registry:    reg,
		bridge:      bridge,
		tracer:      noop.NewTracerProvider().Tracer("coordinator"),
		logger:      logger.With("module", "coordinator", "worker_id", id),
	}
}

// WithTracer replaces the no-op tracer installed by NewCoordinator.
func (c *Coordinator) WithTracer(tracer trace.Tracer) *Coordinator {
	c.tracer = tracer

	return c
}

// Start claims and processes execution requests until ctx is done. Failed
// runs are surfaced on the event channel and logged; retry policy, if any,
// belongs to the queue, not to this loop.
func (c *Coordinator) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Starting execution coordinator")

	for {
		job, err := c.queue.Claim(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.InfoContext(ctx, "Coordinator stopping")

				return nil
			}

			return fmt.Errorf("claim execution request: %w", err)
		}

		var request models.ExecutionRequest
		if err := json.Unmarshal(job.Payload, &request); err != nil {
			c.logger.ErrorContext(ctx, "Dropping undecodable execution request",
				"job_id", job.ID, "error", err)

			continue
		}

		if request.JobID == "" {
			request.JobID = job.ID
		}

		if err := c.Process(ctx, &request); err != nil {
			c.logger.ErrorContext(ctx, "Workflow execution failed",
				"workflow_id", request.WorkflowID, "job_id", request.JobID, "error", err)
		}
	}
}

// Process runs one execution request to completion, failure or pause.
func (c *Coordinator) Process(ctx context.Context, request *models.ExecutionRequest) error {
	if request.ExecutionID == "" {
		request.ExecutionID = request.WorkflowID
	}

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, request.WorkflowID),
		attribute.String(otelhelper.ExecutionIDKey, request.ExecutionID),
		attribute.String(otelhelper.JobIDKey, request.JobID),
		attribute.String(otelhelper.WorkerIDKey, c.id),
	)
	defer span.End()

	logger := c.logger.With(
		"workflow_id", request.WorkflowID,
		"execution_id", request.ExecutionID,
		"job_id", request.JobID,
	)

	started := time.Now()

	nodes, globals, err := c.resolveWork(ctx, request)
	if err != nil {
		otelhelper.SetError(span, err)
		c.emitFailed(ctx, request, "", err, started)

		return err
	}

	execCtx := models.RestoreContext(request.ExecutionID, request.WorkflowID, request.Context)
	execCtx.Globals = globals

	if request.Resume {
		logger.InfoContext(ctx, "Resuming paused execution", "nodes_remaining", len(nodes))

		c.publish(ctx, events.ExecutionResumed{
			BaseEvent:      events.NewBaseEvent(events.ExecutionResumedEvent, request.WorkflowID, request.ExecutionID),
			ExecutionID:    request.ExecutionID,
			NodesRemaining: len(nodes),
		})
	} else {
		logger.InfoContext(ctx, "Starting execution", "nodes", len(nodes))

		c.publish(ctx, events.ExecutionStarted{
			BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, request.WorkflowID, request.ExecutionID),
			ExecutionID: request.ExecutionID,
			Resume:      false,
			TriggerData: execCtx.TriggerData,
		})
	}

	for i, node := range nodes {
		outcome, err := c.executeNode(ctx, node, execCtx, logger)
		if err != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.NodeIDKey, node.ID))
			c.emitFailed(ctx, request, node.ID, err, started)

			return fmt.Errorf("node %s: %w", node.ID, err)
		}

		if outcome.Pause != nil {
			return c.suspend(ctx, request, execCtx, nodes[i:], node, outcome.Pause, logger)
		}

		execCtx.NodeOutputs[node.ID] = outcome.Outputs
	}

	logger.InfoContext(ctx, "Execution completed", "nodes_executed", len(nodes))

	c.publish(ctx, events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, request.WorkflowID, request.ExecutionID),
		ExecutionID:   request.ExecutionID,
		NodesExecuted: len(nodes),
		Result:        execCtx.NodeOutputs,
		DurationMs:    time.Since(started).Milliseconds(),
	})

	return nil
}

// resolveWork picks the node list for this run: the request's own remaining
// actions (resumes and test runs carry their work inline) or the registered
// config. Config reads here are unsynchronized with concurrent saves;
// last-writer-wins.
func (c *Coordinator) resolveWork(ctx context.Context, request *models.ExecutionRequest) ([]*models.Node, map[string]any, error) {
	if len(request.RemainingActions) > 0 {
		cfg, err := c.configs.GetConfig(ctx, request.WorkflowID)
		if err != nil {
			if store.IsConfigNotFound(err) {
				// test runs and resumes run under ids with no registered
				// config; globals travel on the request itself
				return request.RemainingActions, request.Globals, nil
			}

			return nil, nil, err
		}

		return request.RemainingActions, cfg.GlobalSettings, nil
	}

	cfg, err := c.configs.GetConfig(ctx, request.WorkflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch workflow %s: %w", request.WorkflowID, err)
	}

	return cfg.Nodes, cfg.GlobalSettings, nil
}

func (c *Coordinator) executeNode(
	ctx context.Context,
	node *models.Node,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) (protocol.Result, error) {
	started := time.Now()

	resolvedConfig, err := template.ResolveConfig(node.Config, execCtx)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("resolve config: %w", err)
	}

	action, err := c.registry.CreateAction(node.Type, resolvedConfig)
	if err != nil {
		return protocol.Result{}, err
	}

	result, err := action.Execute(ctx, *execCtx, logger.With("node_id", node.ID, "node_type", node.Type))
	if err != nil {
		return protocol.Result{}, err
	}

	if result.Pause == nil {
		c.publish(ctx, events.NodeFinished{
			BaseEvent:   events.NewBaseEvent(events.NodeFinishedEvent, execCtx.WorkflowID, execCtx.ExecutionID),
			ExecutionID: execCtx.ExecutionID,
			NodeID:      node.ID,
			NodeType:    node.Type,
			Outputs:     result.Outputs,
			DurationMs:  time.Since(started).Milliseconds(),
		})
	}

	return result, nil
}

// suspend persists the not-yet-executed remainder of the run (the paused node
// included) and broadcasts the guardrail payload verbatim. The run exits
// without being marked failed.
func (c *Coordinator) suspend(
	ctx context.Context,
	request *models.ExecutionRequest,
	execCtx *models.ExecutionContext,
	remaining []*models.Node,
	node *models.Node,
	payload *models.GuardrailPayload,
	logger *slog.Logger,
) error {
	state := &models.PauseState{
		Context:          execCtx.Snapshot(),
		RemainingActions: remaining,
		Globals:          execCtx.Globals,
	}

	if err := c.suspensions.Save(ctx, request.WorkflowID, request.JobID, state); err != nil {
		c.emitFailed(ctx, request, node.ID, err, time.Now())

		return fmt.Errorf("persist pause state: %w", err)
	}

	logger.InfoContext(ctx, "Execution paused by guardrail",
		"node_id", node.ID, "code", payload.Code, "nodes_remaining", len(remaining))

	c.publish(ctx, events.WorkflowUpdate{
		BaseEvent:   events.NewBaseEvent(events.WorkflowUpdateEvent, request.WorkflowID, request.ExecutionID),
		ExecutionID: request.ExecutionID,
		NodeID:      node.ID,
		Status:      "paused",
		Payload:     payload,
		PausedJobID: request.JobID,
	})

	return nil
}

// Resume consumes the pause state for (workflowId, jobId) exactly once and
// re-enqueues the remaining work under a freshly generated execution id.
// A second call for the same pair fails with store.ErrNoPausedState.
func (c *Coordinator) Resume(ctx context.Context, workflowID, jobID string) (string, error) {
	state, err := c.suspensions.Consume(ctx, workflowID, jobID)
	if err != nil {
		return "", err
	}

	executionID := uuid.New().String()

	request := &models.ExecutionRequest{
		WorkflowID:       workflowID,
		ExecutionID:      executionID,
		JobID:            uuid.New().String(),
		Context:          state.Context,
		RequestedAt:      time.Now().UTC(),
		Resume:           true,
		RemainingActions: state.RemainingActions,
		Globals:          state.Globals,
	}

	if _, err := c.queue.Enqueue(ctx, queue.KindExecution, request, queue.EnqueueOptions{DedupeID: request.JobID}); err != nil {
		return "", fmt.Errorf("re-enqueue resumed execution: %w", err)
	}

	c.logger.InfoContext(ctx, "Resumed paused execution",
		"workflow_id", workflowID, "job_id", jobID, "execution_id", executionID)

	return executionID, nil
}

func (c *Coordinator) emitFailed(ctx context.Context, request *models.ExecutionRequest, nodeID string, err error, started time.Time) {
	c.publish(ctx, events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, request.WorkflowID, request.ExecutionID),
		ExecutionID: request.ExecutionID,
		NodeID:      nodeID,
		Error:       err.Error(),
		DurationMs:  time.Since(started).Milliseconds(),
	})
}

func (c *Coordinator) publish(ctx context.Context, event eventbridge.Event) {
	if err := c.bridge.Publish(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
