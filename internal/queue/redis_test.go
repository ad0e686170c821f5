// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/config"
)

func newTestRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	ctx := context.Background()
	client, err := config.NewRedisClient(ctx)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}

	key := "test:knowledgehive:queue:" + uuid.NewString()
	q, err := NewRedisQueue(ctx, client, key)
	if err != nil {
		t.Fatalf("NewRedisQueue: %v", err)
	}
	t.Cleanup(func() {
		client.Del(ctx, key, key+":entries", key+":stats")
	})
	return q
}

func TestRedisQueue_EnqueueDequeue(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	entry := Entry{JobID: uuid.New(), FileID: uuid.New(), Kind: "file_processing"}
	if err := q.Enqueue(ctx, entry); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	dequeueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	got, err := q.Dequeue(dequeueCtx)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got.JobID != entry.JobID || got.Kind != entry.Kind {
		t.Fatalf("expected %+v, got %+v", entry, got)
	}

	size, err := q.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Fatalf("expected empty queue after dequeue, got size %d", size)
	}
}

func TestRedisQueue_RemoveIsIdempotentAndRacesWithDequeue(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	entry := Entry{JobID: uuid.New(), Kind: "file_processing"}
	if err := q.Enqueue(ctx, entry); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	removed, err := q.Remove(ctx, entry.JobID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatalf("expected Remove to report true for a still-pending job")
	}

	removedAgain, err := q.Remove(ctx, entry.JobID)
	if err != nil {
		t.Fatalf("Remove (again): %v", err)
	}
	if removedAgain {
		t.Fatalf("expected Remove to be idempotent and report false the second time")
	}

	empty, err := q.IsEmpty(ctx)
	if err != nil {
		t.Fatalf("IsEmpty: %v", err)
	}
	if !empty {
		t.Fatalf("expected queue to be empty after Remove")
	}
}

func TestRedisQueue_HealthCheckReportsStats(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Entry{JobID: uuid.New()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	dequeueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := q.Dequeue(dequeueCtx); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	health, err := q.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if !health.Healthy {
		t.Fatalf("expected healthy queue")
	}
	if health.TotalEnqueued != 1 || health.TotalDequeued != 1 {
		t.Fatalf("expected one enqueue and one dequeue recorded, got %+v", health)
	}
}
