// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

// InProcessQueue is the default Queue: a mutex-guarded slice with a
// buffered notify channel waking blocked dequeuers, per spec.md §4.e's
// "in-memory job map guarded by a single mutex held only for the duration
// of map operations."
type InProcessQueue struct {
	mu     sync.Mutex
	items  []Entry
	notify chan struct{}
	closed bool
	closeCh chan struct{}

	totalEnqueued int64
	totalDequeued int64
	lastActivity  time.Time
}

// NewInProcessQueue constructs an empty queue.
func NewInProcessQueue() *InProcessQueue {
	return &InProcessQueue{
		notify:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

func (q *InProcessQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *InProcessQueue) Enqueue(ctx context.Context, job Entry) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("%w", domain.ErrQueueClosed)
	}
	job.EnqueuedAt = time.Now().UTC()
	q.items = append(q.items, job)
	q.totalEnqueued++
	q.lastActivity = job.EnqueuedAt
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *InProcessQueue) Dequeue(ctx context.Context) (Entry, error) {
	for {
		if e, ok := q.pop(); ok {
			return e, nil
		}
		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case <-q.closeCh:
			return Entry{}, fmt.Errorf("%w", domain.ErrQueueClosed)
		case <-q.notify:
			// loop and try popping again
		}
	}
}

func (q *InProcessQueue) TryDequeue(ctx context.Context) (Entry, bool, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Entry{}, false, fmt.Errorf("%w", domain.ErrQueueClosed)
	}
	q.mu.Unlock()

	e, ok := q.pop()
	return e, ok, nil
}

func (q *InProcessQueue) pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Entry{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	q.totalDequeued++
	q.lastActivity = time.Now().UTC()
	return e, true
}

// Remove deletes jobID's entry if still pending. Idempotent: returns false
// if the job is not (or no longer) in the queue.
func (q *InProcessQueue) Remove(ctx context.Context, jobID uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.items {
		if e.JobID == jobID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.lastActivity = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (q *InProcessQueue) Size(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

func (q *InProcessQueue) IsEmpty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	return n == 0, err
}

func (q *InProcessQueue) HealthCheck(ctx context.Context) (Health, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Health{
		Size:          len(q.items),
		TotalEnqueued: q.totalEnqueued,
		TotalDequeued: q.totalDequeued,
		LastActivity:  q.lastActivity,
		Healthy:       !q.closed,
	}, nil
}

func (q *InProcessQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.closeCh)
	return nil
}
