// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package ingest is the use-case layer of spec.md §4.g: upload, queue, and
// cancel ingestion jobs, enforcing the at-most-one-active-job-per-file
// invariant and the upload/pickup read-after-write contract. The teacher
// does this inline in server.IngestHandler; spec.md's explicit OUT OF
// SCOPE boundary around transport pulls it out into a transport-independent
// orchestrator, restructured around the spec's async job model instead of
// the teacher's synchronous chunk-and-embed handler.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/extract"
	"github.com/northbound/knowledgehive/internal/queue"
	"github.com/northbound/knowledgehive/internal/store"
)

// BlobStore is the subset of blobstore.Store the orchestrator needs.
type BlobStore interface {
	Put(name string, data []byte) (path string, err error)
}

// Orchestrator wires the repositories, queue, and blob store behind the
// use cases of spec.md §4.g.
type Orchestrator struct {
	Files  store.FileRepository
	Chunks store.ChunkRepository
	Jobs   store.JobRepository
	Queue  queue.Queue
	Blobs  BlobStore

	// ReadAfterWritePolls/Interval configure the upload->pickup visibility
	// poll of spec.md §4.f, defaulting to "up to 10 times with 50ms spacing."
	ReadAfterWritePolls    int
	ReadAfterWriteInterval time.Duration
}

// New constructs an Orchestrator with spec.md's default read-after-write
// polling policy.
func New(files store.FileRepository, chunks store.ChunkRepository, jobs store.JobRepository, q queue.Queue, blobs BlobStore) *Orchestrator {
	return &Orchestrator{
		Files:                  files,
		Chunks:                 chunks,
		Jobs:                   jobs,
		Queue:                  q,
		Blobs:                  blobs,
		ReadAfterWritePolls:    10,
		ReadAfterWriteInterval: 50 * time.Millisecond,
	}
}

// UploadResult is the success output of Upload (spec.md §6).
type UploadResult struct {
	FileID uuid.UUID
	Name   string
	Size   int64
	Hash   string
	Kind   string
}

// Upload validates, deduplicates by content hash, stores the blob, and
// persists a File record. It never enqueues a job.
func (o *Orchestrator) Upload(ctx context.Context, name string, data []byte, kind string) (UploadResult, error) {
	if name == "" {
		return UploadResult{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}

	hash := domain.HashBytes(data)
	if _, err := o.Files.FindByHash(ctx, hash); err == nil {
		return UploadResult{}, fmt.Errorf("%w", domain.ErrDuplicateFile)
	}

	path, err := o.Blobs.Put(name, data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	size := int64(len(data))
	f := domain.NewFile(name, path, kind, hash, &size, nil)
	if err := o.Files.Save(ctx, f); err != nil {
		return UploadResult{}, err
	}

	return UploadResult{FileID: f.ID, Name: f.Name, Size: size, Hash: hash, Kind: kind}, nil
}

// UploadWithProcessingResult is the success output of UploadWithProcessing.
type UploadWithProcessingResult struct {
	FileID uuid.UUID
	JobID  *uuid.UUID
	Status string // "uploaded" or "processing"
}

// UploadWithProcessing uploads, then (if autoProcess) confirms
// read-after-write visibility and enqueues a FileProcessing job. If
// enqueueing fails, the upload still stands; JobID is left nil.
func (o *Orchestrator) UploadWithProcessing(ctx context.Context, name string, data []byte, kind string, autoProcess bool) (UploadWithProcessingResult, error) {
	uploaded, err := o.Upload(ctx, name, data, kind)
	if err != nil {
		return UploadWithProcessingResult{}, err
	}
	result := UploadWithProcessingResult{FileID: uploaded.FileID, Status: "uploaded"}
	if !autoProcess {
		return result, nil
	}

	if err := o.confirmVisible(ctx, uploaded.FileID); err != nil {
		return result, nil
	}

	job, err := o.QueueProcessingJob(ctx, uploaded.FileID, domain.KindFileProcessing, "")
	if err != nil {
		return result, nil
	}
	result.JobID = &job.ID
	result.Status = "processing"
	return result, nil
}

// confirmVisible polls FindByID until the just-written File is visible to
// the caller's connection, per spec.md §4.f's read-after-write contract.
func (o *Orchestrator) confirmVisible(ctx context.Context, fileID uuid.UUID) error {
	for i := 0; i < o.ReadAfterWritePolls; i++ {
		if _, err := o.Files.FindByID(ctx, fileID); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.ReadAfterWriteInterval):
		}
	}
	return fmt.Errorf("%w: file %s not visible after read-after-write poll", domain.ErrFileNotFound, fileID)
}

// QueueProcessingJob is the queue_processing_job use case: requires the
// file to exist and have no active job, then persists and enqueues.
func (o *Orchestrator) QueueProcessingJob(ctx context.Context, fileID uuid.UUID, kind domain.JobKind, url string) (domain.ProcessingJob, error) {
	if _, err := o.Files.FindByID(ctx, fileID); err != nil {
		return domain.ProcessingJob{}, fmt.Errorf("%w: %v", domain.ErrFileNotFound, err)
	}

	active, err := o.Jobs.FindByFileID(ctx, fileID)
	if err != nil {
		return domain.ProcessingJob{}, err
	}
	for _, j := range active {
		if j.Status.IsActive() {
			return domain.ProcessingJob{}, fmt.Errorf("%w: file %s already has an active job", domain.ErrValidation, fileID)
		}
	}

	job := domain.NewJob(fileID, kind, url)
	if err := o.Jobs.Save(ctx, job); err != nil {
		return domain.ProcessingJob{}, err
	}

	entry := queue.Entry{JobID: job.ID, FileID: fileID, Kind: string(kind), URL: url}
	if err := o.Queue.Enqueue(ctx, entry); err != nil {
		return domain.ProcessingJob{}, fmt.Errorf("%w: %v", domain.ErrQueue, err)
	}
	return job, nil
}

// DirectResult is the success output of ProcessURLDirect/ProcessYoutubeDirect.
type DirectResult struct {
	JobID  uuid.UUID
	FileID uuid.UUID
	URL    string
	Name   string
	Status string
}

// ProcessURLDirect synthesizes a File for a web page and queues a
// UrlExtraction job.
func (o *Orchestrator) ProcessURLDirect(ctx context.Context, rawURL, name string) (DirectResult, error) {
	if rawURL == "" {
		return DirectResult{}, fmt.Errorf("%w: url is required", domain.ErrInvalidURL)
	}
	if name == "" {
		name = rawURL
	}

	f := domain.NewFile(name, rawURL, "text/html", domain.HashString(rawURL), nil, nil)
	if err := o.Files.Save(ctx, f); err != nil {
		return DirectResult{}, err
	}

	job, err := o.QueueProcessingJob(ctx, f.ID, domain.KindURLExtraction, rawURL)
	if err != nil {
		return DirectResult{}, err
	}
	return DirectResult{JobID: job.ID, FileID: f.ID, URL: rawURL, Name: name, Status: "queued"}, nil
}

// ProcessYoutubeDirect validates a YouTube URL (host allowlist plus a
// resolvable video id, per spec.md §4.g and §8 invariant S3), synthesizes a
// File, and queues a YoutubeExtraction job.
func (o *Orchestrator) ProcessYoutubeDirect(ctx context.Context, rawURL, name string) (DirectResult, error) {
	videoID, err := extract.ParseVideoID(rawURL)
	if err != nil {
		return DirectResult{}, err
	}
	if name == "" {
		name = "youtube:" + videoID
	}

	f := domain.NewFile(name, rawURL, "text/youtube-url", domain.HashString(rawURL), nil, nil)
	if err := o.Files.Save(ctx, f); err != nil {
		return DirectResult{}, err
	}

	job, err := o.QueueProcessingJob(ctx, f.ID, domain.KindYoutubeExtract, rawURL)
	if err != nil {
		return DirectResult{}, err
	}
	return DirectResult{JobID: job.ID, FileID: f.ID, URL: rawURL, Name: name, Status: "queued"}, nil
}

// CancelResult is the success output of Cancel.
type CancelResult struct {
	JobID   uuid.UUID
	Status  domain.JobStatus
	Message string
}

// Cancel loads the job, rejects if already terminal, best-effort removes
// it from the queue if still pending, and flips it to
// Failed("Cancelled by user"). A worker that has already picked the job up
// observes the terminal status at its next persistence write (spec.md §5).
func (o *Orchestrator) Cancel(ctx context.Context, jobID uuid.UUID) (CancelResult, error) {
	job, err := o.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return CancelResult{}, fmt.Errorf("%w: %v", domain.ErrJobNotFound, err)
	}
	if job.Status.IsTerminal() {
		return CancelResult{}, fmt.Errorf("%w", domain.ErrJobNotCancellable)
	}

	if job.Status == domain.JobPending {
		if _, err := o.Queue.Remove(ctx, job.ID); err != nil {
			return CancelResult{}, fmt.Errorf("%w: %v", domain.ErrQueue, err)
		}
	}

	job.Fail("Cancelled by user")
	if err := o.Jobs.Update(ctx, job); err != nil {
		return CancelResult{}, err
	}
	return CancelResult{JobID: job.ID, Status: job.Status, Message: "Cancelled by user"}, nil
}

// JobStatusResult augments a ProcessingJob with the derived fields of
// spec.md §4.g's get_job_status use case.
type JobStatusResult struct {
	Job                 domain.ProcessingJob
	EstimatedCompletion *time.Time
	Duration            *time.Duration
}

// GetJobStatus returns the job plus its estimated completion and duration.
func (o *Orchestrator) GetJobStatus(ctx context.Context, jobID uuid.UUID) (JobStatusResult, error) {
	job, err := o.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return JobStatusResult{}, fmt.Errorf("%w: %v", domain.ErrJobNotFound, err)
	}
	return JobStatusResult{Job: job, EstimatedCompletion: job.EstimatedCompletion(), Duration: job.Duration()}, nil
}

// ActiveJobs returns every job whose status is Pending or Processing.
func (o *Orchestrator) ActiveJobs(ctx context.Context) ([]domain.ProcessingJob, error) {
	return o.Jobs.FindActiveJobs(ctx)
}

const (
	maxFilesLimit  = 1000
	maxChunksLimit = 100
)

// ListFiles is a read-only paginated listing, skip >= 0, 1 <= limit <= 1000.
func (o *Orchestrator) ListFiles(ctx context.Context, skip, limit int) ([]domain.File, error) {
	if skip < 0 || limit < 1 || limit > maxFilesLimit {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit in [1,%d]", domain.ErrValidation, maxFilesLimit)
	}
	return o.Files.FindAll(ctx, skip, limit)
}

// GetFile fetches a single File by id.
func (o *Orchestrator) GetFile(ctx context.Context, fileID uuid.UUID) (domain.File, error) {
	f, err := o.Files.FindByID(ctx, fileID)
	if err != nil {
		return domain.File{}, fmt.Errorf("%w: %v", domain.ErrFileNotFound, err)
	}
	return f, nil
}

// GetFileChunks is a read-only paginated listing of a file's chunks,
// skip >= 0, 1 <= limit <= 100.
func (o *Orchestrator) GetFileChunks(ctx context.Context, fileID uuid.UUID, skip, limit int) ([]domain.ContentChunk, error) {
	if skip < 0 || limit < 1 || limit > maxChunksLimit {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit in [1,%d]", domain.ErrValidation, maxChunksLimit)
	}
	if _, err := o.Files.FindByID(ctx, fileID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFileNotFound, err)
	}
	return o.Chunks.FindByFileIDPaginated(ctx, fileID, skip, limit)
}
