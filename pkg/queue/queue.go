// Package queue provides the durable execution-request queue the engine
// consumes, with identity-based dedupe and recurring-schedule entries.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// KindExecution is the only job kind the orchestration core enqueues.
const KindExecution = "execution"

var (
	// ErrNoRecurringEntry indicates no recurring entry exists under the key.
	ErrNoRecurringEntry = errors.New("recurring entry not found")
)

// EnqueueOptions control job identity. A non-empty DedupeID makes the
// submission idempotent: a second enqueue with the same id before the first
// is claimed coalesces silently instead of producing a second run.
type EnqueueOptions struct {
	DedupeID string
}

// Job is one claimed unit of work.
type Job struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// RecurringEntry is the queue's view of a recurring trigger. ID is the
// logical workflow id; Key is the opaque storage key. Exactly one of Pattern
// (cron) or PeriodMs is set.
type RecurringEntry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Pattern   string    `json:"pattern,omitempty"`
	PeriodMs  int64     `json:"period_ms,omitempty"`
	NextRunAt time.Time `json:"next_run_at"`
}

// Queue abstracts the external durable queue. Multiple consumers may claim
// jobs concurrently; the implementation guarantees each job is claimed once.
type Queue interface {
	// Enqueue submits a job and returns its handle. Duplicate dedupe ids
	// coalesce without error.
	Enqueue(ctx context.Context, kind string, payload any, opts EnqueueOptions) (string, error)

	// Claim blocks until a job is available or ctx is done.
	Claim(ctx context.Context) (*Job, error)

	UpsertRecurring(ctx context.Context, entry *RecurringEntry) error
	ListRecurring(ctx context.Context) ([]*RecurringEntry, error)
	RemoveRecurring(ctx context.Context, key string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
