package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	jobsKey         = "hookline:jobs"
	recurringKey    = "hookline:recurring"
	dedupeKeyPrefix = "hookline:dedupe:"

	// dedupe markers are cleared on claim; the TTL only guards against
	// markers orphaned by a crash between SETNX and LPUSH
	dedupeTTL = 24 * time.Hour

	claimBlock = time.Second
)

// RedisQueue implements Queue on Redis: a list for pending jobs, SETNX
// markers for identity-based dedupe and a hash for recurring entries.
type RedisQueue struct {
	client redis.UniversalClient
}

func NewRedisQueue(client redis.UniversalClient) *RedisQueue {
	return &RedisQueue{client: client}
}

func NewRedisQueueFromURL(url string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return NewRedisQueue(redis.NewClient(opts)), nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, kind string, payload any, opts EnqueueOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	jobID := opts.DedupeID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	if opts.DedupeID != "" {
		acquired, err := q.client.SetNX(ctx, dedupeKeyPrefix+opts.DedupeID, 1, dedupeTTL).Result()
		if err != nil {
			return "", fmt.Errorf("dedupe check %s: %w", opts.DedupeID, err)
		}

		if !acquired {
			// an unclaimed job with this identity is already pending
			return jobID, nil
		}
	}

	job := Job{
		ID:         jobID,
		Kind:       kind,
		Payload:    body,
		EnqueuedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job %s: %w", jobID, err)
	}

	if err := q.client.LPush(ctx, jobsKey, raw).Err(); err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", jobID, err)
	}

	return jobID, nil
}

func (q *RedisQueue) Claim(ctx context.Context) (*Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := q.client.BRPop(ctx, claimBlock, jobsKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			return nil, fmt.Errorf("unmarshal claimed job: %w", err)
		}

		// release the identity so later submissions enqueue fresh runs
		q.client.Del(ctx, dedupeKeyPrefix+job.ID)

		return &job, nil
	}
}

func (q *RedisQueue) UpsertRecurring(ctx context.Context, entry *RecurringEntry) error {
	if entry.Key == "" {
		entry.Key = "sched_" + uuid.New().String()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal recurring entry %s: %w", entry.Key, err)
	}

	if err := q.client.HSet(ctx, recurringKey, entry.Key, raw).Err(); err != nil {
		return fmt.Errorf("upsert recurring entry %s: %w", entry.Key, err)
	}

	return nil
}

func (q *RedisQueue) ListRecurring(ctx context.Context) ([]*RecurringEntry, error) {
	raw, err := q.client.HGetAll(ctx, recurringKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list recurring entries: %w", err)
	}

	entries := make([]*RecurringEntry, 0, len(raw))

	for key, value := range raw {
		var entry RecurringEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal recurring entry %s: %w", key, err)
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}

func (q *RedisQueue) RemoveRecurring(ctx context.Context, key string) error {
	removed, err := q.client.HDel(ctx, recurringKey, key).Result()
	if err != nil {
		return fmt.Errorf("remove recurring entry %s: %w", key, err)
	}

	if removed == 0 {
		return ErrNoRecurringEntry
	}

	return nil
}

func (q *RedisQueue) HealthCheck(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close(_ context.Context) error {
	return q.client.Close()
}
