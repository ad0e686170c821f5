// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package progress generalizes the teacher's WebSocketManager broadcast
// pattern (internal/server/websocket_handler.go) into a transport-agnostic
// subscription contract: the worker pool publishes a Message per job per
// progress milestone, and any out-of-scope transport (SSE handler,
// gorilla/websocket upgrade loop) can Subscribe to a job's channel and push
// messages to its own client connections. The core never touches a
// net/http or websocket.Conn type directly.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one progress update for a job, shaped to marshal directly as
// the payload of a server-sent event or websocket text frame.
type Message struct {
	JobID     uuid.UUID `json:"job_id"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans out progress messages per job to any number of
// subscribers. The zero value is not usable; construct with NewBroadcaster.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan Message]bool
}

// NewBroadcaster constructs an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]map[chan Message]bool)}
}

// Subscribe returns a channel that receives every Publish for jobID until
// Unsubscribe is called. The channel is buffered; a slow subscriber drops
// messages rather than blocking the publisher (matching the teacher's
// logger broadcast's non-blocking send).
func (b *Broadcaster) Subscribe(jobID uuid.UUID) chan Message {
	ch := make(chan Message, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[chan Message]bool)
	}
	b.subs[jobID][ch] = true
	return ch
}

// Unsubscribe removes and closes ch.
func (b *Broadcaster) Unsubscribe(jobID uuid.UUID, ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[jobID]
	if subs == nil || !subs[ch] {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(b.subs, jobID)
	}
}

// Publish delivers msg to every current subscriber of msg.JobID.
func (b *Broadcaster) Publish(msg Message) {
	b.mu.RLock()
	subs := b.subs[msg.JobID]
	targets := make([]chan Message, 0, len(subs))
	for ch := range subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close tears down all subscriptions for jobID, e.g. once the job has
// reached a terminal state and no further messages will be published.
func (b *Broadcaster) Close(jobID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[jobID] {
		close(ch)
	}
	delete(b.subs, jobID)
}
