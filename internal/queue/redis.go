// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/northbound/knowledgehive/internal/domain"
)

// RedisQueue adapts the teacher's list-backed RPush/BLPop queue to the
// richer Queue contract of spec.md §4.e. The FIFO order lives in a Redis
// list holding job ids; each id's full Entry is held alongside in a hash so
// Remove-by-id and stats don't require scanning the list.
type RedisQueue struct {
	client     *redis.Client
	listKey    string
	entriesKey string
	statsKey   string
}

// NewRedisQueue constructs a RedisQueue over client, pinging it once to
// fail fast on a bad connection, matching the teacher's NewRedisQueue.
func NewRedisQueue(ctx context.Context, client *redis.Client, key string) (*RedisQueue, error) {
	if key == "" {
		key = "jobs:default"
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", domain.ErrQueue, err)
	}
	return &RedisQueue{
		client:     client,
		listKey:    key,
		entriesKey: key + ":entries",
		statsKey:   key + ":stats",
	}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Entry) error {
	job.EnqueuedAt = time.Now().UTC()
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: marshal entry: %v", domain.ErrQueue, err)
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.entriesKey, job.JobID.String(), data)
	pipe.RPush(ctx, q.listKey, job.JobID.String())
	pipe.HIncrBy(ctx, q.statsKey, "enqueued", 1)
	pipe.HSet(ctx, q.statsKey, "last_activity", job.EnqueuedAt.Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: enqueue: %v", domain.ErrQueue, err)
	}
	return nil
}

// Dequeue blocks on BLPOP for the next job id, then resolves its Entry from
// the hash. If the hash entry is already gone (removed out from under it by
// a concurrent Remove), it loops and blocks again rather than returning a
// zero-value Entry.
func (q *RedisQueue) Dequeue(ctx context.Context) (Entry, error) {
	for {
		entry, ok, err := q.blockingPop(ctx)
		if err != nil {
			return Entry{}, err
		}
		if ok {
			return entry, nil
		}
	}
}

func (q *RedisQueue) blockingPop(ctx context.Context) (Entry, bool, error) {
	type result struct {
		val []string
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		val, err := q.client.BLPop(ctx, 0, q.listKey).Result()
		resultCh <- result{val: val, err: err}
	}()

	select {
	case <-ctx.Done():
		return Entry{}, false, ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			if res.err == redis.Nil {
				return Entry{}, false, ctx.Err()
			}
			return Entry{}, false, fmt.Errorf("%w: blpop: %v", domain.ErrQueue, res.err)
		}
		if len(res.val) < 2 {
			return Entry{}, false, fmt.Errorf("%w: unexpected blpop reply", domain.ErrQueue)
		}
		return q.resolveAndConsume(ctx, res.val[1])
	}
}

func (q *RedisQueue) resolveAndConsume(ctx context.Context, jobID string) (Entry, bool, error) {
	data, err := q.client.HGet(ctx, q.entriesKey, jobID).Result()
	if err == redis.Nil {
		// Removed between RPush and this pop: not an error, just nothing
		// to hand back this round.
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: hget entry: %v", domain.ErrQueue, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return Entry{}, false, fmt.Errorf("%w: unmarshal entry: %v", domain.ErrQueue, err)
	}

	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, q.entriesKey, jobID)
	pipe.HIncrBy(ctx, q.statsKey, "dequeued", 1)
	pipe.HSet(ctx, q.statsKey, "last_activity", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return Entry{}, false, fmt.Errorf("%w: consume entry: %v", domain.ErrQueue, err)
	}
	return entry, true, nil
}

func (q *RedisQueue) TryDequeue(ctx context.Context) (Entry, bool, error) {
	jobID, err := q.client.LPop(ctx, q.listKey).Result()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: lpop: %v", domain.ErrQueue, err)
	}
	return q.resolveAndConsume(ctx, jobID)
}

// Remove deletes jobID's hash entry if present; the dangling id left in the
// list is silently skipped by Dequeue/TryDequeue (resolveAndConsume treats
// a missing hash entry as "nothing to hand back"). Idempotent.
func (q *RedisQueue) Remove(ctx context.Context, jobID uuid.UUID) (bool, error) {
	n, err := q.client.HDel(ctx, q.entriesKey, jobID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: remove: %v", domain.ErrQueue, err)
	}
	return n > 0, nil
}

func (q *RedisQueue) Size(ctx context.Context) (int, error) {
	n, err := q.client.HLen(ctx, q.entriesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: size: %v", domain.ErrQueue, err)
	}
	return int(n), nil
}

func (q *RedisQueue) IsEmpty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	return n == 0, err
}

func (q *RedisQueue) HealthCheck(ctx context.Context) (Health, error) {
	size, err := q.Size(ctx)
	if err != nil {
		return Health{}, err
	}
	stats, err := q.client.HGetAll(ctx, q.statsKey).Result()
	if err != nil {
		return Health{}, fmt.Errorf("%w: health: %v", domain.ErrQueue, err)
	}

	health := Health{Size: size, Healthy: true}
	if v, ok := stats["enqueued"]; ok {
		fmt.Sscanf(v, "%d", &health.TotalEnqueued)
	}
	if v, ok := stats["dequeued"]; ok {
		fmt.Sscanf(v, "%d", &health.TotalDequeued)
	}
	if v, ok := stats["last_activity"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			health.LastActivity = t
		}
	}
	if err := q.client.Ping(ctx).Err(); err != nil {
		health.Healthy = false
	}
	return health, nil
}

// Close is a no-op: the *redis.Client is owned by the caller, matching the teacher's
// config.NewRedisClient lifecycle split between construction and queue use.
func (q *RedisQueue) Close() error {
	return nil
}
