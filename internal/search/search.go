// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package search is the search orchestrator of spec.md §4.h: embed the
// query, delegate ranking to the EmbeddingRepository's similarity search,
// and resolve each hit back to its ContentChunk. Grounded in the teacher's
// vectordb.VectorDB.Search plus the ingest handler's embed-then-query
// pattern, restructured around the spec's
// search(query, limit, threshold?, file_id?) contract.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/embedclient"
	"github.com/northbound/knowledgehive/internal/store"
)

const maxLimit = 100

// Result is one ranked hit, per spec.md §4.h's "{chunk, score, file_id}".
type Result struct {
	Chunk  domain.ContentChunk
	Score  float64
	FileID uuid.UUID
}

// Orchestrator wires the embedding client and the chunk/embedding
// repositories behind the search use case.
type Orchestrator struct {
	Embedder   embedclient.Client
	Chunks     store.ChunkRepository
	Embeddings store.EmbeddingRepository
}

// New constructs an Orchestrator.
func New(embedder embedclient.Client, chunks store.ChunkRepository, embeddings store.EmbeddingRepository) *Orchestrator {
	return &Orchestrator{Embedder: embedder, Chunks: chunks, Embeddings: embeddings}
}

// Search embeds query, ranks via similarity_search, and resolves each hit
// to its chunk. Misses (a chunk deleted after its embedding was indexed)
// are dropped silently, per spec.md §4.h. Order is preserved from the
// similarity search; there is no reranking.
func (o *Orchestrator) Search(ctx context.Context, query string, limit int, threshold *float64) ([]Result, error) {
	return o.search(ctx, query, limit, threshold, nil)
}

// SearchByFile is Search scoped to a single file's chunks.
func (o *Orchestrator) SearchByFile(ctx context.Context, query string, fileID uuid.UUID, limit int, threshold *float64) ([]Result, error) {
	return o.search(ctx, query, limit, threshold, &fileID)
}

func (o *Orchestrator) search(ctx context.Context, query string, limit int, threshold *float64, fileID *uuid.UUID) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if limit < 1 || limit > maxLimit {
		return nil, fmt.Errorf("%w: limit must be in [1,%d]", domain.ErrValidation, maxLimit)
	}

	embedded, err := o.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var matches []store.SimilarityMatch
	if fileID != nil {
		matches, err = o.Embeddings.SimilaritySearchByFile(ctx, embedded.Vector, *fileID, limit, threshold)
	} else {
		matches, err = o.Embeddings.SimilaritySearch(ctx, embedded.Vector, limit, threshold)
	}
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		chunk, err := o.Chunks.FindByID(ctx, m.ChunkID)
		if err != nil {
			// The chunk was removed after its embedding was indexed; drop
			// the hit rather than fail the whole search.
			continue
		}
		results = append(results, Result{Chunk: chunk, Score: m.Score, FileID: chunk.FileID})
	}
	return results, nil
}
