// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

func TestFileRepository_SaveFindUpdateDelete(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	repo := NewFileRepository(db)
	ctx := context.Background()

	size := int64(1024)
	f := domain.NewFile("report.pdf", "/uploads/report.pdf", "application/pdf", domain.HashString("report.pdf"), &size, map[string]any{"source": "upload"})

	if err := repo.Save(ctx, f); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.FindByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Name != f.Name || got.Hash != f.Hash {
		t.Fatalf("round-tripped file mismatch: got %+v, want %+v", got, f)
	}
	if got.Size == nil || *got.Size != size {
		t.Fatalf("size mismatch: got %v", got.Size)
	}
	if got.Metadata["source"] != "upload" {
		t.Fatalf("metadata not preserved: %+v", got.Metadata)
	}

	byHash, err := repo.FindByHash(ctx, f.Hash)
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if byHash.ID != f.ID {
		t.Fatalf("FindByHash returned wrong file")
	}

	got.ProcessingStatus = domain.StatusCompleted
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err := repo.FindByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("FindByID after update: %v", err)
	}
	if updated.ProcessingStatus != domain.StatusCompleted {
		t.Fatalf("update not persisted: %+v", updated)
	}
	if !updated.UpdatedAt.After(f.UpdatedAt) && updated.UpdatedAt != f.UpdatedAt {
		t.Fatalf("UpdatedAt should not regress")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count = %d, want 1", count)
	}

	if err := repo.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, f.ID); err == nil {
		t.Fatalf("expected error finding deleted file")
	}
}

func TestFileRepository_FindAllPaginatedOrdering(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	repo := NewFileRepository(db)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		f := domain.NewFile("f.txt", "/x", "text/plain", domain.HashString(uuid.NewString()), nil, nil)
		if err := repo.Save(ctx, f); err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, f.ID)
	}

	page, err := repo.FindAll(ctx, 0, 3)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("len(page) = %d, want 3", len(page))
	}

	rest, err := repo.FindAll(ctx, 3, 3)
	if err != nil {
		t.Fatalf("FindAll (page 2): %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("len(rest) = %d, want 2", len(rest))
	}
}

func TestChunkRepository_SaveBatchOrderedByIndex(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fileRepo := NewFileRepository(db)
	chunkRepo := NewChunkRepository(db)
	ctx := context.Background()

	f := domain.NewFile("a.txt", "/a", "text/plain", domain.HashString("a"), nil, nil)
	if err := fileRepo.Save(ctx, f); err != nil {
		t.Fatalf("Save file: %v", err)
	}

	chunks := []domain.ContentChunk{
		domain.NewChunk(f.ID, "ccc", 2),
		domain.NewChunk(f.ID, "aaa", 0),
		domain.NewChunk(f.ID, "bbb", 1),
	}
	if err := chunkRepo.SaveBatch(ctx, chunks); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, err := chunkRepo.FindByFileIDPaginated(ctx, f.ID, 0, 10)
	if err != nil {
		t.Fatalf("FindByFileIDPaginated: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	for i, c := range got {
		if c.Index != i {
			t.Fatalf("chunk at position %d has index %d, want %d", i, c.Index, i)
		}
	}
	if got[0].Text != "aaa" || got[1].Text != "bbb" || got[2].Text != "ccc" {
		t.Fatalf("chunks not ordered by idx: %+v", got)
	}

	count, err := chunkRepo.CountByFileID(ctx, f.ID)
	if err != nil {
		t.Fatalf("CountByFileID: %v", err)
	}
	if count != 3 {
		t.Fatalf("CountByFileID = %d, want 3", count)
	}

	if err := chunkRepo.DeleteByFileID(ctx, f.ID); err != nil {
		t.Fatalf("DeleteByFileID: %v", err)
	}
	count, err = chunkRepo.CountByFileID(ctx, f.ID)
	if err != nil {
		t.Fatalf("CountByFileID after delete: %v", err)
	}
	if count != 0 {
		t.Fatalf("CountByFileID after delete = %d, want 0", count)
	}
}

func TestEmbeddingRepository_SimilaritySearchRanksByScore(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fileRepo := NewFileRepository(db)
	chunkRepo := NewChunkRepository(db)
	embRepo := NewEmbeddingRepository(db)
	ctx := context.Background()

	f := domain.NewFile("a.txt", "/a", "text/plain", domain.HashString("a"), nil, nil)
	if err := fileRepo.Save(ctx, f); err != nil {
		t.Fatalf("Save file: %v", err)
	}

	c1 := domain.NewChunk(f.ID, "one", 0)
	c2 := domain.NewChunk(f.ID, "two", 1)
	c3 := domain.NewChunk(f.ID, "three", 2)
	if err := chunkRepo.SaveBatch(ctx, []domain.ContentChunk{c1, c2, c3}); err != nil {
		t.Fatalf("SaveBatch chunks: %v", err)
	}

	// c1 identical to query, c2 orthogonal, c3 opposite.
	e1 := domain.NewEmbedding(c1.ID, "mock", "v1", []float32{1, 0, 0})
	e2 := domain.NewEmbedding(c2.ID, "mock", "v1", []float32{0, 1, 0})
	e3 := domain.NewEmbedding(c3.ID, "mock", "v1", []float32{-1, 0, 0})
	if err := embRepo.SaveBatch(ctx, []domain.Embedding{e1, e2, e3}); err != nil {
		t.Fatalf("SaveBatch embeddings: %v", err)
	}

	results, err := embRepo.SimilaritySearch(ctx, []float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].ChunkID != c1.ID {
		t.Fatalf("top result = %v, want c1 (%v)", results[0].ChunkID, c1.ID)
	}
	if results[0].Score < results[1].Score || results[1].Score < results[2].Score {
		t.Fatalf("results not sorted descending by score: %+v", results)
	}

	threshold := 0.5
	filtered, err := embRepo.SimilaritySearch(ctx, []float32{1, 0, 0}, 10, &threshold)
	if err != nil {
		t.Fatalf("SimilaritySearch with threshold: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("len(filtered) = %d, want 1 (only c1 clears threshold 0.5)", len(filtered))
	}

	count, err := embRepo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("Count = %d, want 3", count)
	}

	byModel, err := embRepo.CountByModel(ctx, "mock", "v1")
	if err != nil {
		t.Fatalf("CountByModel: %v", err)
	}
	if byModel != 3 {
		t.Fatalf("CountByModel = %d, want 3", byModel)
	}
}

func TestEmbeddingRepository_SimilaritySearchByFileScopes(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fileRepo := NewFileRepository(db)
	chunkRepo := NewChunkRepository(db)
	embRepo := NewEmbeddingRepository(db)
	ctx := context.Background()

	fa := domain.NewFile("a.txt", "/a", "text/plain", domain.HashString("a"), nil, nil)
	fb := domain.NewFile("b.txt", "/b", "text/plain", domain.HashString("b"), nil, nil)
	if err := fileRepo.Save(ctx, fa); err != nil {
		t.Fatalf("Save fa: %v", err)
	}
	if err := fileRepo.Save(ctx, fb); err != nil {
		t.Fatalf("Save fb: %v", err)
	}

	ca := domain.NewChunk(fa.ID, "in a", 0)
	cb := domain.NewChunk(fb.ID, "in b", 0)
	if err := chunkRepo.SaveBatch(ctx, []domain.ContentChunk{ca}); err != nil {
		t.Fatalf("SaveBatch ca: %v", err)
	}
	if err := chunkRepo.SaveBatch(ctx, []domain.ContentChunk{cb}); err != nil {
		t.Fatalf("SaveBatch cb: %v", err)
	}

	ea := domain.NewEmbedding(ca.ID, "mock", "v1", []float32{1, 0})
	eb := domain.NewEmbedding(cb.ID, "mock", "v1", []float32{1, 0})
	if err := embRepo.SaveBatch(ctx, []domain.Embedding{ea, eb}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	results, err := embRepo.SimilaritySearchByFile(ctx, []float32{1, 0}, fa.ID, 10, nil)
	if err != nil {
		t.Fatalf("SimilaritySearchByFile: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != ca.ID {
		t.Fatalf("expected only ca's embedding, got %+v", results)
	}
}

func TestJobRepository_SaveFindActiveUpdate(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fileRepo := NewFileRepository(db)
	jobRepo := NewJobRepository(db)
	ctx := context.Background()

	f := domain.NewFile("a.txt", "/a", "text/plain", domain.HashString("a"), nil, nil)
	if err := fileRepo.Save(ctx, f); err != nil {
		t.Fatalf("Save file: %v", err)
	}

	job := domain.NewJob(f.ID, domain.KindFileProcessing, "")
	if err := jobRepo.Save(ctx, job); err != nil {
		t.Fatalf("Save job: %v", err)
	}

	active, err := jobRepo.FindActiveJobs(ctx)
	if err != nil {
		t.Fatalf("FindActiveJobs: %v", err)
	}
	if len(active) != 1 || active[0].ID != job.ID {
		t.Fatalf("expected one active job, got %+v", active)
	}

	if err := job.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := jobRepo.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != domain.JobProcessing || got.StartedAt == nil {
		t.Fatalf("Start not persisted: %+v", got)
	}

	job.Complete(domain.JobResult{ChunksCreated: 4, EmbeddingsCreated: 4, ProcessingTimeMs: 120, ExtractedTextLength: 900})
	if err := jobRepo.Update(ctx, job); err != nil {
		t.Fatalf("Update after complete: %v", err)
	}

	completed, err := jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("FindByID after complete: %v", err)
	}
	if completed.Status != domain.JobCompleted || completed.Result == nil || completed.Result.ChunksCreated != 4 {
		t.Fatalf("completion not persisted correctly: %+v", completed)
	}

	stillActive, err := jobRepo.FindActiveJobs(ctx)
	if err != nil {
		t.Fatalf("FindActiveJobs after complete: %v", err)
	}
	if len(stillActive) != 0 {
		t.Fatalf("expected no active jobs after completion, got %+v", stillActive)
	}

	byFile, err := jobRepo.FindByFileID(ctx, f.ID)
	if err != nil {
		t.Fatalf("FindByFileID: %v", err)
	}
	if len(byFile) != 1 {
		t.Fatalf("FindByFileID len = %d, want 1", len(byFile))
	}
}
