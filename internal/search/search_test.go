// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/embedclient"
	"github.com/northbound/knowledgehive/internal/store"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, store.ChunkRepository, store.EmbeddingRepository, *embedclient.MockClient) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	chunks := store.NewChunkRepository(db)
	embeddings := store.NewEmbeddingRepository(db)
	embedder := embedclient.NewMockClient(16)

	return New(embedder, chunks, embeddings), chunks, embeddings, embedder
}

func seedChunk(t *testing.T, ctx context.Context, chunks store.ChunkRepository, embeddings store.EmbeddingRepository, embedder *embedclient.MockClient, fileID uuid.UUID, text string, index int) domain.ContentChunk {
	t.Helper()
	chunk := domain.NewChunk(fileID, text, index)
	require.NoError(t, chunks.SaveBatch(ctx, []domain.ContentChunk{chunk}))

	result, err := embedder.Embed(ctx, text)
	require.NoError(t, err)

	emb := domain.NewEmbedding(chunk.ID, result.ModelName, result.ModelVersion, result.Vector)
	require.NoError(t, embeddings.SaveBatch(ctx, []domain.Embedding{emb}))
	return chunk
}

func TestSearch_RanksBestMatchFirst(t *testing.T) {
	o, chunks, embeddings, embedder := newTestOrchestrator(t)
	ctx := context.Background()
	fileID := uuid.New()

	seedChunk(t, ctx, chunks, embeddings, embedder, fileID, "the quick brown fox jumps over the lazy dog", 0)
	exact := seedChunk(t, ctx, chunks, embeddings, embedder, fileID, "an entirely unrelated sentence about astronomy", 1)

	results, err := o.Search(ctx, "an entirely unrelated sentence about astronomy", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, exact.ID, results[0].Chunk.ID, "expected exact-text match to rank first")
	assert.GreaterOrEqual(t, results[0].Score, 0.99, "expected near-1.0 score for identical text")
	assert.Equal(t, fileID, results[0].FileID)
}

func TestSearch_ValidatesQueryAndLimit(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Search(ctx, "", 5, nil)
	assert.Error(t, err, "expected error for empty query")

	_, err = o.Search(ctx, "   ", 5, nil)
	assert.Error(t, err, "expected error for whitespace-only query")

	_, err = o.Search(ctx, "hello", 0, nil)
	assert.Error(t, err, "expected error for limit below 1")

	_, err = o.Search(ctx, "hello", 101, nil)
	assert.Error(t, err, "expected error for limit above 100")
}

func TestSearchByFile_ScopesToFile(t *testing.T) {
	o, chunks, embeddings, embedder := newTestOrchestrator(t)
	ctx := context.Background()
	fileA := uuid.New()
	fileB := uuid.New()

	seedChunk(t, ctx, chunks, embeddings, embedder, fileA, "alpha content about gardening", 0)
	onlyInB := seedChunk(t, ctx, chunks, embeddings, embedder, fileB, "alpha content about gardening", 0)

	results, err := o.SearchByFile(ctx, "alpha content about gardening", fileB, 5, nil)
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, fileB, r.FileID, "expected all results scoped to fileB")
	}
	require.NotEmpty(t, results)
	assert.Equal(t, onlyInB.ID, results[0].Chunk.ID)
}

func TestSearch_DropsChunkMissesSilently(t *testing.T) {
	o, chunks, embeddings, embedder := newTestOrchestrator(t)
	ctx := context.Background()
	fileID := uuid.New()

	seedChunk(t, ctx, chunks, embeddings, embedder, fileID, "a chunk that will be deleted after indexing", 0)
	require.NoError(t, chunks.DeleteByFileID(ctx, fileID))

	results, err := o.Search(ctx, "a chunk that will be deleted after indexing", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results, "expected the dangling embedding to be dropped silently")
}
