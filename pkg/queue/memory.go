package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is an in-process Queue for tests and local development. It
// mirrors the Redis adapter's semantics: identity-based dedupe released on
// claim, recurring entries keyed by an opaque key.
type MemoryQueue struct {
	mu        sync.Mutex
	pending   chan *Job
	deduped   map[string]bool
	recurring map[string]*RecurringEntry
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		pending:   make(chan *Job, 1024),
		deduped:   make(map[string]bool),
		recurring: make(map[string]*RecurringEntry),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, kind string, payload any, opts EnqueueOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	jobID := opts.DedupeID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	q.mu.Lock()

	if opts.DedupeID != "" {
		if q.deduped[opts.DedupeID] {
			q.mu.Unlock()

			return jobID, nil
		}

		q.deduped[opts.DedupeID] = true
	}

	q.mu.Unlock()

	q.pending <- &Job{
		ID:         jobID,
		Kind:       kind,
		Payload:    body,
		EnqueuedAt: time.Now().UTC(),
	}

	return jobID, nil
}

func (q *MemoryQueue) Claim(ctx context.Context) (*Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job := <-q.pending:
		q.mu.Lock()
		delete(q.deduped, job.ID)
		q.mu.Unlock()

		return job, nil
	}
}

func (q *MemoryQueue) UpsertRecurring(_ context.Context, entry *RecurringEntry) error {
	if entry.Key == "" {
		entry.Key = "sched_" + uuid.New().String()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	clone := *entry
	q.recurring[entry.Key] = &clone

	return nil
}

func (q *MemoryQueue) ListRecurring(_ context.Context) ([]*RecurringEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*RecurringEntry, 0, len(q.recurring))

	for _, entry := range q.recurring {
		clone := *entry
		entries = append(entries, &clone)
	}

	return entries, nil
}

func (q *MemoryQueue) RemoveRecurring(_ context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.recurring[key]; !ok {
		return ErrNoRecurringEntry
	}

	delete(q.recurring, key)

	return nil
}

func (q *MemoryQueue) HealthCheck(_ context.Context) error {
	return nil
}

func (q *MemoryQueue) Close(_ context.Context) error {
	return nil
}
