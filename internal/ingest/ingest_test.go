// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/northbound/knowledgehive/internal/blobstore"
	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/queue"
	"github.com/northbound/knowledgehive/internal/store"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	blobs, err := blobstore.NewLocal(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	o := New(store.NewFileRepository(db), store.NewChunkRepository(db), store.NewJobRepository(db), queue.NewInProcessQueue(), blobs)
	o.ReadAfterWriteInterval = 0
	return o
}

func TestUpload_Succeeds(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := o.Upload(ctx, "doc.txt", []byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Hash != domain.HashBytes([]byte("hello world")) {
		t.Fatalf("hash mismatch: %s", result.Hash)
	}
	if result.Size != 11 {
		t.Fatalf("size mismatch: %d", result.Size)
	}
}

func TestUpload_DuplicateRejected(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.Upload(ctx, "doc.txt", []byte("hello world"), "text/plain"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	_, err := o.Upload(ctx, "other-name.txt", []byte("hello world"), "text/plain")
	if !errors.Is(err, domain.ErrDuplicateFile) {
		t.Fatalf("expected ErrDuplicateFile, got %v", err)
	}

	count, _ := o.Files.Count(ctx)
	if count != 1 {
		t.Fatalf("expected exactly one file, got %d", count)
	}
}

func TestUploadWithProcessing_EnqueuesJob(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := o.UploadWithProcessing(ctx, "doc.txt", []byte("hello world, this has enough text"), "text/plain", true)
	if err != nil {
		t.Fatalf("UploadWithProcessing: %v", err)
	}
	if result.Status != "processing" || result.JobID == nil {
		t.Fatalf("expected processing status with a job id, got %+v", result)
	}

	size, err := o.Queue.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 1 {
		t.Fatalf("expected one queued job, got %d", size)
	}
}

func TestQueueProcessingJob_RejectsSecondActiveJob(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	uploaded, err := o.Upload(ctx, "doc.txt", []byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, err := o.QueueProcessingJob(ctx, uploaded.FileID, domain.KindFileProcessing, ""); err != nil {
		t.Fatalf("first QueueProcessingJob: %v", err)
	}

	_, err = o.QueueProcessingJob(ctx, uploaded.FileID, domain.KindFileProcessing, "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate active job, got %v", err)
	}
}

func TestProcessYoutubeDirect_ValidatesURL(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.ProcessYoutubeDirect(ctx, "https://example.com/watch?v=abc", "")
	if !errors.Is(err, domain.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL for non-YouTube host, got %v", err)
	}

	result, err := o.ProcessYoutubeDirect(ctx, "https://youtu.be/AbCdEfGhIjK", "")
	if err != nil {
		t.Fatalf("ProcessYoutubeDirect: %v", err)
	}
	if result.Status != "queued" {
		t.Fatalf("expected queued, got %+v", result)
	}
}

func TestCancel_PendingJobStopsAndTerminates(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	uploaded, err := o.Upload(ctx, "doc.txt", []byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	job, err := o.QueueProcessingJob(ctx, uploaded.FileID, domain.KindFileProcessing, "")
	if err != nil {
		t.Fatalf("QueueProcessingJob: %v", err)
	}

	sizeBefore, _ := o.Queue.Size(ctx)

	result, err := o.Cancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if result.Status != domain.JobFailed {
		t.Fatalf("expected Failed, got %s", result.Status)
	}

	sizeAfter, _ := o.Queue.Size(ctx)
	if sizeAfter != sizeBefore-1 {
		t.Fatalf("expected queue size to drop by one: before=%d after=%d", sizeBefore, sizeAfter)
	}

	status, err := o.GetJobStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if !status.Job.Status.IsTerminal() {
		t.Fatalf("expected terminal job status, got %s", status.Job.Status)
	}

	// Cancelling again reports JobNotCancellable (spec.md §8 invariant 7).
	_, err = o.Cancel(ctx, job.ID)
	if !errors.Is(err, domain.ErrJobNotCancellable) {
		t.Fatalf("expected ErrJobNotCancellable on second cancel, got %v", err)
	}
}

func TestGetFileChunks_ValidatesPageSize(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	uploaded, err := o.Upload(ctx, "doc.txt", []byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	_, err = o.GetFileChunks(ctx, uploaded.FileID, 0, 101)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for limit > 100, got %v", err)
	}

	_, err = o.GetFileChunks(ctx, uploaded.FileID, 0, 100)
	if err != nil {
		t.Fatalf("limit=100 should succeed: %v", err)
	}
}
