package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()

	server := miniredis.RunT(t)

	return NewRedisQueue(redis.NewClient(&redis.Options{Addr: server.Addr()}))
}

func TestRedisQueueEnqueueClaim(t *testing.T) {
	ctx := context.Background()
	q := newTestRedisQueue(t)

	jobID, err := q.Enqueue(ctx, KindExecution, map[string]any{"workflow_id": "workflow_demo"}, EnqueueOptions{})
	require.NoError(t, err)

	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	job, err := q.Claim(claimCtx)
	require.NoError(t, err)
	assert.Equal(t, jobID, job.ID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "workflow_demo", payload["workflow_id"])
}

func TestRedisQueueDedupeCoalesces(t *testing.T) {
	ctx := context.Background()
	q := newTestRedisQueue(t)

	first, err := q.Enqueue(ctx, KindExecution, map[string]any{"n": 1}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)

	second, err := q.Enqueue(ctx, KindExecution, map[string]any{"n": 2}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	job, err := q.Claim(claimCtx)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, float64(1), payload["n"])

	// The claim released the identity; a new submission enqueues a fresh run.
	_, err = q.Enqueue(ctx, KindExecution, map[string]any{"n": 3}, EnqueueOptions{DedupeID: "job_123"})
	require.NoError(t, err)

	job, err = q.Claim(claimCtx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, float64(3), payload["n"])
}

func TestRedisQueueRecurringReplace(t *testing.T) {
	ctx := context.Background()
	q := newTestRedisQueue(t)

	entry := &RecurringEntry{ID: "cron_workflow_daily", Pattern: "0 9 * * *", NextRunAt: time.Now().UTC()}
	require.NoError(t, q.UpsertRecurring(ctx, entry))
	require.NotEmpty(t, entry.Key)

	entry.Pattern = "0 10 * * *"
	require.NoError(t, q.UpsertRecurring(ctx, entry))

	entries, err := q.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0 10 * * *", entries[0].Pattern)

	require.NoError(t, q.RemoveRecurring(ctx, entry.Key))
	assert.ErrorIs(t, q.RemoveRecurring(ctx, entry.Key), ErrNoRecurringEntry)
}
