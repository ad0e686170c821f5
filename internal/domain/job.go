// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the ProcessingJob state machine described in spec.md §4.f.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status has no outgoing transitions except
// Failed -> Pending for retry.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// IsActive reports whether a job in this status counts against the
// at-most-one-active-job-per-file invariant.
func (s JobStatus) IsActive() bool {
	return s == JobPending || s == JobProcessing
}

// JobKind identifies the pipeline a worker should run for a job.
type JobKind string

const (
	KindFileProcessing  JobKind = "file_processing"
	KindURLExtraction   JobKind = "url_extraction"
	KindYoutubeExtract  JobKind = "youtube_extraction"
)

// JobResult is the structured outcome of a successfully completed job.
type JobResult struct {
	ChunksCreated        int
	EmbeddingsCreated    int
	ProcessingTimeMs     int64
	ExtractedTextLength  int
}

// ProcessingJob is the durable record of one unit of ingestion work.
type ProcessingJob struct {
	ID            uuid.UUID
	FileID        uuid.UUID
	Kind          JobKind
	URL           string // populated for UrlExtraction / YoutubeExtraction
	Status        JobStatus
	Progress      float64
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	LastMessage   string
	Result        *JobResult
}

// NewJob constructs a Pending ProcessingJob for fileID.
func NewJob(fileID uuid.UUID, kind JobKind, url string) ProcessingJob {
	return ProcessingJob{
		ID:        uuid.New(),
		FileID:    fileID,
		Kind:      kind,
		URL:       url,
		Status:    JobPending,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}
}

// Start transitions Pending -> Processing, setting StartedAt and the initial
// progress milestone. Returns an error if the job is not Pending.
func (j *ProcessingJob) Start() error {
	if j.Status != JobPending {
		return fmt.Errorf("%w: cannot start job in status %s", ErrValidation, j.Status)
	}
	now := time.Now().UTC()
	j.Status = JobProcessing
	j.StartedAt = &now
	j.Progress = 0.1
	return nil
}

// Advance records a progress milestone. Progress is clamped to [0,1] and
// never regresses within a run, per §5's monotonicity guarantee.
func (j *ProcessingJob) Advance(progress float64, message string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if progress < j.Progress {
		progress = j.Progress
	}
	j.Progress = progress
	if message != "" {
		j.LastMessage = message
	}
}

// Complete transitions Processing -> Completed.
func (j *ProcessingJob) Complete(result JobResult) {
	now := time.Now().UTC()
	j.Status = JobCompleted
	j.Progress = 1.0
	j.CompletedAt = &now
	j.LastMessage = ""
	j.Result = &result
}

// Fail transitions {Pending, Processing} -> Failed(reason).
func (j *ProcessingJob) Fail(reason string) {
	now := time.Now().UTC()
	j.Status = JobFailed
	j.CompletedAt = &now
	j.LastMessage = reason
}

// Retry transitions Failed -> Pending, the only backward transition.
func (j *ProcessingJob) Retry() error {
	if j.Status != JobFailed {
		return fmt.Errorf("%w: can only retry a failed job", ErrValidation)
	}
	j.Status = JobPending
	j.Progress = 0
	j.StartedAt = nil
	j.CompletedAt = nil
	j.LastMessage = ""
	j.Result = nil
	return nil
}

// EstimatedCompletion derives the wall-clock estimate described in spec.md
// §4.g, valid only once progress has passed the initial "started" milestone
// and the job is still running.
func (j ProcessingJob) EstimatedCompletion() *time.Time {
	if j.Status != JobProcessing || j.StartedAt == nil || j.Progress <= 0.1 {
		return nil
	}
	elapsed := time.Since(*j.StartedAt)
	total := time.Duration(float64(elapsed) / j.Progress)
	eta := j.StartedAt.Add(total)
	return &eta
}

// Duration reports elapsed processing time: completed-started for terminal
// jobs, now-started while running.
func (j ProcessingJob) Duration() *time.Duration {
	if j.StartedAt == nil {
		return nil
	}
	var d time.Duration
	if j.CompletedAt != nil {
		d = j.CompletedAt.Sub(*j.StartedAt)
	} else {
		d = time.Since(*j.StartedAt)
	}
	return &d
}
