// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/northbound/knowledgehive/internal/blobstore"
	"github.com/northbound/knowledgehive/internal/config"
	"github.com/northbound/knowledgehive/internal/embedclient"
	"github.com/northbound/knowledgehive/internal/extract"
	"github.com/northbound/knowledgehive/internal/ingest"
	"github.com/northbound/knowledgehive/internal/logger"
	"github.com/northbound/knowledgehive/internal/progress"
	"github.com/northbound/knowledgehive/internal/queue"
	"github.com/northbound/knowledgehive/internal/search"
	"github.com/northbound/knowledgehive/internal/store"
	"github.com/northbound/knowledgehive/internal/vectordb"
	"github.com/northbound/knowledgehive/internal/worker"
)

var configFile = flag.String("config", "", "optional YAML config file overlay")

// main wires every collaborator named in spec.md §9's "Process & Concurrency
// Model" and blocks until SIGINT/SIGTERM. Grounded in the teacher's
// cmd/hive-server/main.go: logger initialized first, .env loaded before the
// embedder so API keys are visible, optional Qdrant/Redis with a mock/
// in-process fallback, graceful shutdown on signal. Thinner than the
// teacher's entrypoint because transport (gRPC/HTTP) is out of scope here
// per spec.md §1 - this binary owns only ingestion, the worker pool, and
// search, reachable by embedding this module directly or driving it in
// tests.
func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("knowledgehive: loading config: %v", err)
	}

	lg, err := logger.New(cfg.LogFile)
	if err != nil {
		log.Printf("knowledgehive: logger init failed, using stdout only: %v", err)
		lg, _ = logger.New("")
	}
	defer lg.Close()
	lg.Printf("knowledgehive starting up")

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		lg.Errorf("opening database at %s: %v", cfg.DatabaseURL, err)
		os.Exit(1)
	}
	defer db.Close()

	blobs, err := blobstore.NewLocal(cfg.UploadDir)
	if err != nil {
		lg.Errorf("opening blob store at %s: %v", cfg.UploadDir, err)
		os.Exit(1)
	}

	files := store.NewFileRepository(db)
	chunks := store.NewChunkRepository(db)
	jobs := store.NewJobRepository(db)
	embeddings := store.NewEmbeddingRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobQueue, workerCancel := mustQueue(ctx, cfg, lg)
	defer jobQueue.Close()

	if cfg.QdrantAddr != "" {
		backend, closeFn := mustQdrantBackend(cfg, lg)
		if backend != nil {
			embeddings.WithSimilarityBackend(backend)
			defer closeFn()
		}
	}

	embedder := mustEmbedder(cfg, lg)
	registry := extract.NewRegistry(
		extract.PlainTextExtractor{},
		extract.HTMLExtractor{},
		extract.PDFExtractor{},
		extract.DOCXExtractor{},
		extract.ExcelExtractor{},
		extract.EmailExtractor{},
		extract.YoutubeTranscriptExtractor{},
	)

	pool := worker.NewPool(worker.Deps{
		Queue:      jobQueue,
		Jobs:       jobs,
		Files:      files,
		Chunks:     chunks,
		Embeddings: embeddings,
		Extractors: registry,
		Embedder:   embedder,
		Blobs:      blobs,
		Progress:   progress.NewBroadcaster(),
		Log:        lg,
		ChunkSize:  cfg.ChunkSizeChars,
		EmbedSize:  cfg.EmbedBatch,
	}, cfg.WorkerCount)
	pool.Start(ctx)

	ingestor := ingest.New(files, chunks, jobs, jobQueue, blobs)
	searcher := search.New(embedder, chunks, embeddings)

	lg.Printf("knowledgehive ready: %d workers, upload dir %s, database %s", cfg.WorkerCount, cfg.UploadDir, cfg.DatabaseURL)
	lg.Printf("ingest orchestrator %T and search orchestrator %T constructed; embed this module to drive them", ingestor, searcher)

	<-ctx.Done()
	lg.Printf("shutdown signal received, stopping workers")
	if workerCancel != nil {
		workerCancel()
	}
	pool.Wait()
	lg.Printf("knowledgehive stopped")
}

// mustQueue builds the job queue named in spec.md §6 ("local in-process
// default, Redis when configured"). The returned cancel function is always
// nil. The in-process queue needs no separate cancel
// since it shuts down with the process; a Redis-backed queue's consumer
// loop is still driven by the pool's own ctx, so workerCancel is only
// meaningful when it differs from the root ctx (it never does here, kept
// for symmetry with the teacher's workerCancel plumbing).
func mustQueue(ctx context.Context, cfg config.Config, lg *logger.Logger) (queue.Queue, context.CancelFunc) {
	if cfg.RedisAddr == "" {
		return queue.NewInProcessQueue(), nil
	}

	client, err := config.NewRedisClient(ctx)
	if err != nil {
		lg.Warnf("failed to connect to Redis at %s: %v, falling back to in-process queue", cfg.RedisAddr, err)
		return queue.NewInProcessQueue(), nil
	}

	rq, err := queue.NewRedisQueue(ctx, client, "knowledgehive:jobs")
	if err != nil {
		lg.Warnf("failed to create Redis queue: %v, falling back to in-process queue", err)
		return queue.NewInProcessQueue(), nil
	}
	lg.Printf("connected to Redis at %s", cfg.RedisAddr)
	return rq, nil
}

// mustQdrantBackend dials Qdrant and wraps it as a store.SimilarityBackend,
// falling back to the repository's own brute-force scan (nil backend) if
// the server is unreachable, mirroring the teacher's
// vectordb.NewMockVectorDB fallback in cmd/hive-server/main.go.
func mustQdrantBackend(cfg config.Config, lg *logger.Logger) (*vectordb.QdrantBackend, func()) {
	conn, err := grpc.NewClient(cfg.QdrantAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		lg.Warnf("failed to dial Qdrant at %s: %v, using brute-force similarity search", cfg.QdrantAddr, err)
		return nil, nil
	}

	backend, err := vectordb.NewQdrantBackend(conn, "knowledgehive_chunks", defaultEmbeddingDimension)
	if err != nil {
		lg.Warnf("failed to initialize Qdrant collection: %v, using brute-force similarity search", err)
		conn.Close()
		return nil, nil
	}
	lg.Printf("connected to Qdrant at %s", cfg.QdrantAddr)
	return backend, func() { conn.Close() }
}

// defaultEmbeddingDimension matches embedclient.MockClient's and most small
// open embedding models' output width. It is the Qdrant collection size used
// at startup; no configuration option overrides it.
const defaultEmbeddingDimension = 384

// mustEmbedder selects an embedding client per spec.md §6's
// EMBEDDINGS_SERVICE_URL option, auto-detecting a mock fallback the way the
// teacher's initEmbedder auto-detects from OPENAI_API_KEY when no service
// is configured or reachable.
func mustEmbedder(cfg config.Config, lg *logger.Logger) embedclient.Client {
	if cfg.EmbeddingsServiceURL == "" {
		lg.Printf("no embeddings service configured, using mock embedder")
		return embedclient.NewMockClient(defaultEmbeddingDimension)
	}

	client, err := embedclient.NewHTTPClient(embedclient.Config{
		BaseURL:   cfg.EmbeddingsServiceURL,
		Model:     envOr("EMBEDDER_MODEL", "default"),
		Dimension: defaultEmbeddingDimension,
		Timeout:   30 * time.Second,
	})
	if err != nil {
		lg.Warnf("failed to construct embeddings client for %s: %v, using mock embedder", cfg.EmbeddingsServiceURL, err)
		return embedclient.NewMockClient(defaultEmbeddingDimension)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !client.Health(ctx) {
		lg.Warnf("embeddings service at %s failed health check, using mock embedder", cfg.EmbeddingsServiceURL)
		return embedclient.NewMockClient(defaultEmbeddingDimension)
	}
	lg.Printf("connected to embeddings service at %s", cfg.EmbeddingsServiceURL)
	return client
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
