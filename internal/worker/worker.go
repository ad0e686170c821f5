// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package worker implements the background worker pool and job state
// machine of spec.md §4.f: N workers dequeue jobs, drive Pending ->
// Processing -> {Completed, Failed}, and run the
// extract -> split -> embed -> persist pipeline with progress reporting.
// Grounded in the teacher's worker.StartWorkers/workerLoop (context-
// cancellable dequeue loop, sync.WaitGroup fan-out) and worker.AnalystPool
// (Start/Stop lifecycle), generalized from a bare HandlerFunc to the full
// pipeline dispatch spec.md names.
package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/embedclient"
	"github.com/northbound/knowledgehive/internal/extract"
	"github.com/northbound/knowledgehive/internal/logger"
	"github.com/northbound/knowledgehive/internal/progress"
	"github.com/northbound/knowledgehive/internal/queue"
	"github.com/northbound/knowledgehive/internal/splitter"
	"github.com/northbound/knowledgehive/internal/store"
)

// Milestones, per spec.md §4.f step 5. 0.1 (start) and 1.0 (complete) are
// set by domain.ProcessingJob.Start/Complete; the remaining three are
// reported explicitly as the pipeline advances.
const (
	milestoneLoaded    = 0.2
	milestoneChunking  = 0.3
	milestoneEmbedding = 0.6
)

// Deps are the shared, read-only-after-construction collaborators every
// worker in the pool draws on, matching spec.md §9's "global state ...
// constructed once at startup and passed by shared ownership."
type Deps struct {
	Queue      queue.Queue
	Jobs       store.JobRepository
	Files      store.FileRepository
	Chunks     store.ChunkRepository
	Embeddings store.EmbeddingRepository
	Extractors *extract.Registry
	Embedder   embedclient.Client
	Blobs      interface {
		Get(path string) ([]byte, error)
	}
	Progress  *progress.Broadcaster
	Log       *logger.Logger
	HTTP      *http.Client
	ChunkSize int
	EmbedSize int
}

// Pool is a fixed-size set of worker goroutines sharing Deps.
type Pool struct {
	deps  Deps
	count int
	wg    sync.WaitGroup
}

// NewPool constructs a Pool of count workers (minimum 1, per spec.md §4.f
// "default 3, configurable >= 1").
func NewPool(deps Deps, count int) *Pool {
	if count < 1 {
		count = 1
	}
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = 2000
	}
	if deps.EmbedSize <= 0 {
		deps.EmbedSize = 10
	}
	if deps.HTTP == nil {
		deps.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	return &Pool{deps: deps, count: count}
}

// Start launches the worker goroutines. They run until ctx is cancelled;
// call Wait to block until they have all exited.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(p.count)
	for i := 0; i < p.count; i++ {
		id := i + 1
		go func() {
			defer p.wg.Done()
			p.loop(ctx, id)
		}()
	}
}

// Wait blocks until every worker goroutine has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) logf(format string, v ...interface{}) {
	if p.deps.Log != nil {
		p.deps.Log.Printf(format, v...)
	}
}

func (p *Pool) loop(ctx context.Context, id int) {
	p.logf("worker %d: started", id)
	defer p.logf("worker %d: stopped", id)

	for {
		entry, err := p.deps.Queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logf("worker %d: dequeue error: %v", id, err)
			continue
		}
		p.process(ctx, id, entry)
	}
}

// process runs one job end to end: load -> flip to Processing -> dispatch
// by kind -> terminal transition. Every step's error becomes a Failed
// transition, per spec.md §7's propagation rule.
func (p *Pool) process(ctx context.Context, workerID int, entry queue.Entry) {
	job, err := p.deps.Jobs.FindByID(ctx, entry.JobID)
	if err != nil {
		p.logf("worker %d: job %s vanished before pickup: %v", workerID, entry.JobID, err)
		return
	}
	if job.Status.IsTerminal() {
		p.logf("worker %d: job %s already terminal (%s), discarding", workerID, job.ID, job.Status)
		return
	}

	if err := job.Start(); err != nil {
		p.logf("worker %d: job %s cannot start: %v", workerID, job.ID, err)
		return
	}
	p.persist(ctx, &job)
	p.publish(job, "")

	start := time.Now()
	result, err := p.runPipeline(ctx, workerID, &job)
	if p.observeCancelled(ctx, &job) {
		p.logf("worker %d: job %s cancelled during processing, not completing", workerID, job.ID)
		return
	}
	if err != nil {
		job.Fail(err.Error())
		p.persist(ctx, &job)
		p.publish(job, err.Error())
		p.logf("worker %d: job %s failed: %v", workerID, job.ID, err)
		return
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	job.Complete(*result)
	p.persist(ctx, &job)
	p.publish(job, "")
	p.logf("worker %d: job %s completed: %+v", workerID, job.ID, *result)
}

// observeCancelled re-reads the durable job status: a concurrent cancel use
// case may have flipped it to Failed("Cancelled by user") while this
// worker was mid-pipeline. Per spec.md §5, the worker must not transition
// to Completed once that has happened.
func (p *Pool) observeCancelled(ctx context.Context, job *domain.ProcessingJob) bool {
	current, err := p.deps.Jobs.FindByID(ctx, job.ID)
	if err != nil {
		return false
	}
	return current.Status == domain.JobFailed && current.LastMessage == "Cancelled by user"
}

func (p *Pool) persist(ctx context.Context, job *domain.ProcessingJob) {
	// A concurrent cancel may already have made the durable record terminal;
	// an in-progress write must not overwrite it.
	if job.Status == domain.JobProcessing && p.observeCancelled(ctx, job) {
		p.logf("job %s: cancelled by user, progress write skipped", job.ID)
		return
	}
	if err := p.deps.Jobs.Update(ctx, *job); err != nil {
		// Best-effort per spec.md §4.f step 5: log and continue, never
		// abort the run over a progress-write failure.
		p.logf("job %s: progress persistence failed: %v", job.ID, err)
	}
}

func (p *Pool) publish(job domain.ProcessingJob, note string) {
	if p.deps.Progress == nil {
		return
	}
	p.deps.Progress.Publish(progress.Message{
		JobID:     job.ID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Note:      note,
		Timestamp: time.Now().UTC(),
	})
	if job.Status.IsTerminal() {
		p.deps.Progress.Close(job.ID)
	}
}

func (p *Pool) advance(ctx context.Context, job *domain.ProcessingJob, progressValue float64, message string) {
	job.Advance(progressValue, message)
	p.persist(ctx, job)
	p.publish(*job, message)
}

// runPipeline dispatches by job kind and runs extract -> split -> embed ->
// persist, returning the JobResult on success.
func (p *Pool) runPipeline(ctx context.Context, workerID int, job *domain.ProcessingJob) (*domain.JobResult, error) {
	var content extract.ExtractedContent

	switch job.Kind {
	case domain.KindFileProcessing:
		f, err := p.deps.Files.FindByID(ctx, job.FileID)
		if err != nil {
			return nil, fmt.Errorf("%w: file %s: %v", domain.ErrFileNotFound, job.FileID, err)
		}
		data, err := p.deps.Blobs.Get(f.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIO, err)
		}
		p.advance(ctx, job, milestoneLoaded, "document loaded")
		content, err = p.deps.Extractors.ExtractBytes(f.Kind, data, extract.Options{ExtractMetadata: true})
		if err != nil {
			return nil, err
		}

	case domain.KindURLExtraction:
		data, err := p.fetchURL(ctx, job.URL)
		if err != nil {
			return nil, err
		}
		p.advance(ctx, job, milestoneLoaded, "document loaded")
		content, err = p.deps.Extractors.ExtractBytes("text/html", data, extract.Options{ExtractMetadata: true})
		if err != nil {
			return nil, err
		}

	case domain.KindYoutubeExtract:
		data, err := p.fetchURL(ctx, job.URL)
		if err != nil {
			return nil, err
		}
		p.advance(ctx, job, milestoneLoaded, "document loaded")
		content, err = p.deps.Extractors.ExtractBytes("text/youtube-url", data, extract.Options{ExtractMetadata: true})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown job kind %s", domain.ErrValidation, job.Kind)
	}

	p.advance(ctx, job, milestoneChunking, "chunking")
	split := splitter.New(p.deps.ChunkSize)
	pieces := split.Split(content.Text)

	chunks := make([]domain.ContentChunk, 0, len(pieces))
	texts := make([]string, 0, len(pieces))
	idx := 0
	for _, text := range pieces {
		if !domain.MeetsFloor(text) {
			continue
		}
		chunks = append(chunks, domain.NewChunk(job.FileID, text, idx))
		texts = append(texts, text)
		idx++
	}

	p.advance(ctx, job, milestoneEmbedding, "embedding")
	results, err := embedclient.EmbedInGroups(ctx, p.deps.Embedder, texts, p.deps.EmbedSize)
	if err != nil {
		return nil, err
	}
	if len(results) != len(chunks) {
		return nil, fmt.Errorf("%w: embedding count %d does not match chunk count %d", domain.ErrAPI, len(results), len(chunks))
	}

	embeddings := make([]domain.Embedding, len(chunks))
	for i, c := range chunks {
		embeddings[i] = domain.NewEmbedding(c.ID, results[i].ModelName, results[i].ModelVersion, results[i].Vector)
	}

	// Chunks before embeddings, in index order, per spec.md §5's
	// "embeddings are persisted in the order of their chunks."
	if err := p.deps.Chunks.SaveBatch(ctx, chunks); err != nil {
		return nil, err
	}
	if err := p.deps.Embeddings.SaveBatch(ctx, embeddings); err != nil {
		return nil, err
	}

	return &domain.JobResult{
		ChunksCreated:       len(chunks),
		EmbeddingsCreated:   len(embeddings),
		ExtractedTextLength: len([]rune(content.Text)),
	}, nil
}

// fetchURL retrieves raw bytes for a UrlExtraction/YoutubeExtraction job.
// The embedding model service and extractor implementations are treated as
// external collaborators per spec.md §1; fetching the source URL's bytes is
// likewise a plain outbound HTTP call, not part of any pluggable contract.
func (p *Pool) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	resp, err := p.deps.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: status %d", domain.ErrExtractionFailed, rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return data, nil
}
