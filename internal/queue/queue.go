// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package queue implements the job queue of spec.md §4.e: a FIFO with
// cancellation, sizing, and statistics, single-producer / multi-consumer
// across workers. InProcessQueue is the default in-memory implementation,
// grounded in the teacher's internal/queue.Queue interface; RedisQueue
// extends the same contract with remove-by-id and stats over the teacher's
// Redis-list transport.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is the in-memory shadow of a pending ProcessingJob, holding its
// payload for delivery and removal (spec.md §3's QueueEntry). It is not
// durable; the durable record lives in the job repository and is rebuilt on
// restart.
type Entry struct {
	JobID     uuid.UUID
	FileID    uuid.UUID
	Kind      string
	URL       string
	EnqueuedAt time.Time
}

// Health reports queue statistics for monitoring.
type Health struct {
	Size          int
	TotalEnqueued int64
	TotalDequeued int64
	LastActivity  time.Time
	Healthy       bool
}

// Queue is the job queue contract of spec.md §4.e.
type Queue interface {
	// Enqueue adds job to the tail of the queue.
	Enqueue(ctx context.Context, job Entry) error

	// Dequeue blocks until a job is available or ctx is cancelled.
	Dequeue(ctx context.Context) (Entry, error)

	// TryDequeue returns immediately: (job, true) if one was available, or
	// (zero value, false) if the queue was empty.
	TryDequeue(ctx context.Context) (Entry, bool, error)

	// Remove deletes the entry for jobID if it is still pending. It is
	// idempotent and races harmlessly with Dequeue: if the job has already
	// been handed to a worker, Remove returns false.
	Remove(ctx context.Context, jobID uuid.UUID) (bool, error)

	// Size reports the number of entries currently queued.
	Size(ctx context.Context) (int, error)

	// IsEmpty is a convenience wrapper around Size.
	IsEmpty(ctx context.Context) (bool, error)

	// HealthCheck reports queue statistics (spec.md §4.e).
	HealthCheck(ctx context.Context) (Health, error)

	// Close releases queue resources. Pending entries are discarded.
	Close() error
}
