// Package identity derives stable workflow ids from trigger definitions and
// manages the rename/tombstone relation for webhook-reachable workflows.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/store"
)

// id namespaces, one per trigger class
const (
	WebhookIDPrefix = "workflow_"
	TimerIDPrefix   = "cron_workflow_"
	AdhocIDPrefix   = "job_"
)

var (
	// ErrMalformedID indicates an inbound id outside the webhook namespace.
	ErrMalformedID = errors.New("malformed workflow id")

	// ErrWorkflowGone indicates the id was renamed away; callers should treat
	// it as permanently gone rather than never-existed.
	ErrWorkflowGone = errors.New("workflow renamed")

	// ErrWorkflowNotFound indicates no config and no tombstone exist.
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// DeriveID maps a trigger type and name onto the id namespace for that
// trigger class. Webhook and timer ids are deterministic in the sanitized
// name; ad-hoc ids are time-based and minted once at deploy time.
func DeriveID(trigger models.TriggerType, name string) string {
	switch trigger {
	case models.TriggerTimer:
		return TimerIDPrefix + models.SanitizeName(name)
	case models.TriggerManual:
		return AdhocIDPrefix + strconv.FormatInt(time.Now().UnixMilli(), 10)
	default:
		return WebhookIDPrefix + models.SanitizeName(name)
	}
}

// NewTestRunID mints a fresh time-based id for a test run. Test runs bypass
// scheduling and dedupe entirely.
func NewTestRunID() string {
	return AdhocIDPrefix + "test_" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// ValidateWebhookID cheaply rejects ids outside the webhook namespace before
// any store lookup.
func ValidateWebhookID(raw string) bool {
	if !strings.HasPrefix(raw, WebhookIDPrefix) {
		return false
	}

	return len(raw) > len(WebhookIDPrefix)
}

// Resolver reconciles workflow identity against the config store.
type Resolver struct {
	configs *store.ConfigStore
	logger  *slog.Logger
}

func NewResolver(configs *store.ConfigStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		configs: configs,
		logger:  logger.With("module", "identity_resolver"),
	}
}

// Resolve handles an inbound webhook id: namespace check first, then the
// active config (which always wins, a name can be reactivated after a prior
// rename), then the tombstone, then not-found.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*models.WorkflowConfig, error) {
	if !ValidateWebhookID(raw) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}

	cfg, err := r.configs.GetConfig(ctx, raw)
	if err == nil {
		return cfg, nil
	}

	if !store.IsConfigNotFound(err) {
		return nil, err
	}

	tombstone, err := r.configs.GetTombstone(ctx, raw)
	if err == nil {
		return nil, fmt.Errorf("%w: moved to %s", ErrWorkflowGone, tombstone.NewWorkflowID)
	}

	return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, raw)
}

// ReconcileRename records that previousID was renamed to newID. The old
// config is removed before the tombstone is written so both never coexist.
// Tombstone write failure is logged and swallowed; a rename must never fail
// the save that caused it.
func (r *Resolver) ReconcileRename(ctx context.Context, previousID, newID string) {
	if previousID == "" || previousID == newID {
		return
	}

	if _, err := r.configs.GetConfig(ctx, previousID); err != nil {
		return
	}

	if err := r.configs.DeleteConfig(ctx, previousID); err != nil {
		r.logger.WarnContext(ctx, "Failed to remove renamed workflow config",
			"workflow_id", previousID, "error", err)

		return
	}

	tombstone := &models.Tombstone{
		Status:        models.TombstoneStatusRenamed,
		NewWorkflowID: newID,
		RenamedAt:     time.Now().UTC(),
	}

	if err := r.configs.PutTombstone(ctx, previousID, tombstone); err != nil {
		r.logger.WarnContext(ctx, "Failed to write rename tombstone",
			"workflow_id", previousID, "new_workflow_id", newID, "error", err)
	}
}

// ClearTombstone removes any tombstone for id. Called unconditionally
// whenever id becomes active again.
func (r *Resolver) ClearTombstone(ctx context.Context, id string) {
	if err := r.configs.DeleteTombstone(ctx, id); err != nil {
		r.logger.WarnContext(ctx, "Failed to clear tombstone", "workflow_id", id, "error", err)
	}
}
