package queue

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueEnqueueClaim(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	jobID, err := q.Enqueue(ctx, KindExecution, map[string]any{"workflow_id": "workflow_demo"}, EnqueueOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	job, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, KindExecution, job.Kind)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "workflow_demo", payload["workflow_id"])
}

func TestMemoryQueueDedupeCoalesces(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	first, err := q.Enqueue(ctx, KindExecution, map[string]any{"n": 1}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)

	second, err := q.Enqueue(ctx, KindExecution, map[string]any{"n": 2}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	job, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job_123", job.ID)

	claimCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = q.Claim(claimCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueueDedupeReleasedAfterClaim(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	_, err := q.Enqueue(ctx, KindExecution, map[string]any{"n": 1}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)

	_, err = q.Claim(ctx)
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, KindExecution, map[string]any{"n": 2}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)

	job, err := q.Claim(ctx)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, float64(2), payload["n"])
}

func TestMemoryQueueDistinctDedupeIDsBothRun(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	_, err := q.Enqueue(ctx, KindExecution, map[string]any{}, EnqueueOptions{DedupeID: "delivery-1"})
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, KindExecution, map[string]any{}, EnqueueOptions{DedupeID: "delivery-2"})
	require.NoError(t, err)

	first, err := q.Claim(ctx)
	require.NoError(t, err)

	second, err := q.Claim(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestMemoryQueueRecurring(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	entry := &RecurringEntry{ID: "cron_workflow_daily", PeriodMs: 60000, NextRunAt: time.Now().UTC()}
	require.NoError(t, q.UpsertRecurring(ctx, entry))
	assert.NotEmpty(t, entry.Key)

	entries, err := q.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cron_workflow_daily", entries[0].ID)

	// Upsert with the same key replaces, never duplicates.
	entry.PeriodMs = 120000
	require.NoError(t, q.UpsertRecurring(ctx, entry))

	entries, err = q.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(120000), entries[0].PeriodMs)

	require.NoError(t, q.RemoveRecurring(ctx, entry.Key))
	assert.ErrorIs(t, q.RemoveRecurring(ctx, entry.Key), ErrNoRecurringEntry)
}

func TestNextRun(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("period", func(t *testing.T) {
		next, err := NextRun(&RecurringEntry{ID: "a", PeriodMs: 300000}, from)
		require.NoError(t, err)
		assert.Equal(t, from.Add(5*time.Minute), next)
	})

	t.Run("cron", func(t *testing.T) {
		next, err := NextRun(&RecurringEntry{ID: "b", Pattern: "0 * * * *"}, from)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), next)
	})

	t.Run("invalid_cron", func(t *testing.T) {
		_, err := NextRun(&RecurringEntry{ID: "c", Pattern: "not a cron"}, from)
		require.Error(t, err)
	})

	t.Run("neither", func(t *testing.T) {
		_, err := NextRun(&RecurringEntry{ID: "d"}, from)
		require.Error(t, err)
	})
}

func TestPollerFiresDueEntries(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	due := &RecurringEntry{ID: "cron_workflow_due", PeriodMs: 60000, NextRunAt: time.Now().UTC().Add(-time.Second)}
	future := &RecurringEntry{ID: "cron_workflow_future", PeriodMs: 60000, NextRunAt: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, q.UpsertRecurring(ctx, due))
	require.NoError(t, q.UpsertRecurring(ctx, future))

	fired := make(chan string, 4)
	poller := NewPoller(q, 10*time.Millisecond, func(_ context.Context, entry *RecurringEntry) error {
		fired <- entry.ID

		return nil
	}, testLogger())

	require.NoError(t, poller.Start(ctx))

	defer func() { _ = poller.Stop(ctx) }()

	select {
	case id := <-fired:
		assert.Equal(t, "cron_workflow_due", id)
	case <-time.After(2 * time.Second):
		t.Fatal("poller never fired the due entry")
	}

	// Firing advances NextRunAt past now, so the entry is not immediately due again.
	assert.Eventually(t, func() bool {
		entries, err := q.ListRecurring(ctx)
		if err != nil {
			return false
		}

		for _, entry := range entries {
			if entry.ID == "cron_workflow_due" {
				return entry.NextRunAt.After(time.Now().UTC())
			}
		}

		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPollerStopDuringFire(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	require.NoError(t, q.UpsertRecurring(ctx, &RecurringEntry{
		ID:        "cron_workflow_slow",
		PeriodMs:  1,
		NextRunAt: time.Now().UTC().Add(-time.Second),
	}))

	firing := make(chan struct{}, 16)
	release := make(chan struct{})

	var fires atomic.Int32

	poller := NewPoller(q, 10*time.Millisecond, func(context.Context, *RecurringEntry) error {
		fires.Add(1)

		firing <- struct{}{}
		<-release

		return nil
	}, testLogger())

	require.NoError(t, poller.Start(ctx))

	select {
	case <-firing:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never fired")
	}

	// Stop lands while the fire callback is still blocked mid-tick; the
	// loop must still observe the signal once the tick finishes.
	require.NoError(t, poller.Stop(ctx))
	close(release)

	// At most one tick queued before Stop may still run; after that the
	// fire count settles. A dropped stop signal would keep it climbing.
	var last int32

	require.Eventually(t, func() bool {
		current := fires.Load()
		if current != last {
			last = current

			return false
		}

		return true
	}, 2*time.Second, 100*time.Millisecond)

	// Stop after Stop is a no-op.
	require.NoError(t, poller.Stop(ctx))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
