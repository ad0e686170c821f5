// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/northbound/knowledgehive/internal/blobstore"
	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/embedclient"
	"github.com/northbound/knowledgehive/internal/extract"
	"github.com/northbound/knowledgehive/internal/queue"
	"github.com/northbound/knowledgehive/internal/store"
)

func newTestDeps(t *testing.T) (Deps, *blobstore.Local, *store.SQLiteFileRepository, *store.SQLiteJobRepository, queue.Queue) {
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

	files := store.NewFileRepository(db)
	jobs := store.NewJobRepository(db)
	q := queue.NewInProcessQueue()

	registry := extract.NewRegistry(extract.PlainTextExtractor{})

	deps := Deps{
		Queue:      q,
		Jobs:       jobs,
		Files:      files,
		Chunks:     store.NewChunkRepository(db),
		Embeddings: store.NewEmbeddingRepository(db),
		Extractors: registry,
		Embedder:   embedclient.NewMockClient(16),
		Blobs:      blobs,
		ChunkSize:  20,
		EmbedSize:  10,
	}
	return deps, blobs, files, jobs, q
}

func TestPool_ProcessesFileJobToCompletion(t *testing.T) {
	deps, blobs, files, jobs, q := newTestDeps(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path, err := blobs.Put("doc.txt", []byte("Hello world. This is a test document with enough content to chunk properly across at least one 20-character window."))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	size := int64(100)
	f := domain.NewFile("doc.txt", path, "text/plain", domain.HashString("doc"), &size, nil)
	if err := files.Save(ctx, f); err != nil {
		t.Fatalf("Save file: %v", err)
	}

	job := domain.NewJob(f.ID, domain.KindFileProcessing, "")
	if err := jobs.Save(ctx, job); err != nil {
		t.Fatalf("Save job: %v", err)
	}
	if err := q.Enqueue(ctx, queue.Entry{JobID: job.ID, FileID: f.ID, Kind: string(job.Kind)}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	pool := NewPool(deps, 1)
	pool.Start(ctx)

	var final domain.ProcessingJob
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		final, err = jobs.FindByID(ctx, job.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if final.Status.IsTerminal() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	pool.Wait()

	if final.Status != domain.JobCompleted {
		t.Fatalf("expected Completed, got %s (%s)", final.Status, final.LastMessage)
	}
	if final.Progress != 1.0 {
		t.Fatalf("expected progress 1.0, got %f", final.Progress)
	}
	if final.Result == nil || final.Result.ChunksCreated < 1 {
		t.Fatalf("expected at least one chunk, got %+v", final.Result)
	}
	if final.Result.EmbeddingsCreated != final.Result.ChunksCreated {
		t.Fatalf("embeddings created (%d) != chunks created (%d)", final.Result.EmbeddingsCreated, final.Result.ChunksCreated)
	}
}

func TestPool_MissingFileFailsJob(t *testing.T) {
	deps, _, _, jobs, q := newTestDeps(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	job := domain.NewJob(domain.NewFile("ghost", "/nowhere", "text/plain", "", nil, nil).ID, domain.KindFileProcessing, "")
	if err := jobs.Save(ctx, job); err != nil {
		t.Fatalf("Save job: %v", err)
	}
	if err := q.Enqueue(ctx, queue.Entry{JobID: job.ID}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	pool := NewPool(deps, 1)
	pool.Start(ctx)

	var final domain.ProcessingJob
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		final, err = jobs.FindByID(ctx, job.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if final.Status.IsTerminal() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	pool.Wait()

	if final.Status != domain.JobFailed {
		t.Fatalf("expected Failed, got %s", final.Status)
	}
	if final.LastMessage == "" {
		t.Fatalf("expected a failure message")
	}
}
