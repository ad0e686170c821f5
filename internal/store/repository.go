// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package store implements the four durable repositories of spec.md §4.d
// over a SQLite database (database/sql + mattn/go-sqlite3), grounded in the
// teacher's internal/database/*.go schema-on-construct pattern.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

// FileRepository persists File records.
type FileRepository interface {
	Save(ctx context.Context, f domain.File) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.File, error)
	FindByHash(ctx context.Context, hash string) (domain.File, error)
	FindAll(ctx context.Context, skip, limit int) ([]domain.File, error)
	Update(ctx context.Context, f domain.File) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// ChunkRepository persists ContentChunk records.
type ChunkRepository interface {
	SaveBatch(ctx context.Context, chunks []domain.ContentChunk) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.ContentChunk, error)
	FindByFileIDPaginated(ctx context.Context, fileID uuid.UUID, skip, limit int) ([]domain.ContentChunk, error)
	DeleteByFileID(ctx context.Context, fileID uuid.UUID) error
	CountByFileID(ctx context.Context, fileID uuid.UUID) (int, error)
}

// SimilarityMatch is one ranked hit from an EmbeddingRepository similarity
// search.
type SimilarityMatch struct {
	ChunkID uuid.UUID
	Score   float64
}

// SimilarityBackend is an optional server-side ANN index an
// EmbeddingRepository can delegate similarity search to instead of its own
// full-scan ranking, per SPEC_FULL.md §4.d's pluggable similarity backend
// (the internal/vectordb Qdrant implementation).
type SimilarityBackend interface {
	Upsert(ctx context.Context, chunkID, fileID uuid.UUID, vector []float32) error
	Search(ctx context.Context, query []float32, limit int, fileID *uuid.UUID) ([]SimilarityMatch, error)
	Delete(ctx context.Context, chunkID uuid.UUID) error
	DeleteByFileID(ctx context.Context, fileID uuid.UUID) error
}

// EmbeddingRepository persists Embedding records and serves similarity
// search.
type EmbeddingRepository interface {
	SaveBatch(ctx context.Context, embeddings []domain.Embedding) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Embedding, error)
	FindByChunkID(ctx context.Context, chunkID uuid.UUID) ([]domain.Embedding, error)
	FindByFileID(ctx context.Context, fileID uuid.UUID) ([]domain.Embedding, error)
	SimilaritySearch(ctx context.Context, query []float32, limit int, threshold *float64) ([]SimilarityMatch, error)
	SimilaritySearchByFile(ctx context.Context, query []float32, fileID uuid.UUID, limit int, threshold *float64) ([]SimilarityMatch, error)
	DeleteByChunkID(ctx context.Context, chunkID uuid.UUID) error
	DeleteByFileID(ctx context.Context, fileID uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountByModel(ctx context.Context, modelName, modelVersion string) (int, error)
}

// JobRepository persists ProcessingJob records.
type JobRepository interface {
	Save(ctx context.Context, j domain.ProcessingJob) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.ProcessingJob, error)
	FindByFileID(ctx context.Context, fileID uuid.UUID) ([]domain.ProcessingJob, error)
	FindActiveJobs(ctx context.Context) ([]domain.ProcessingJob, error)
	Update(ctx context.Context, j domain.ProcessingJob) error
}
