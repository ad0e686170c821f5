// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectordb

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryBackend_SearchRanksByCosineSimilarity(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	fileID := uuid.New()

	nearID := uuid.New()
	farID := uuid.New()
	if err := b.Upsert(ctx, nearID, fileID, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := b.Upsert(ctx, farID, fileID, []float32{0, 1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := b.Search(ctx, []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ChunkID != nearID {
		t.Fatalf("expected exact match to rank first, got %+v", matches[0])
	}
}

func TestMemoryBackend_SearchScopesToFile(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	fileA := uuid.New()
	fileB := uuid.New()

	inA := uuid.New()
	inB := uuid.New()
	if err := b.Upsert(ctx, inA, fileA, []float32{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := b.Upsert(ctx, inB, fileB, []float32{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := b.Search(ctx, []float32{1, 0}, 5, &fileB)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkID != inB {
		t.Fatalf("expected only fileB's point, got %+v", matches)
	}
}

func TestMemoryBackend_DeleteByFileID(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	fileID := uuid.New()
	chunkID := uuid.New()

	if err := b.Upsert(ctx, chunkID, fileID, []float32{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := b.DeleteByFileID(ctx, fileID); err != nil {
		t.Fatalf("DeleteByFileID: %v", err)
	}
	count, err := b.PointCount(ctx)
	if err != nil {
		t.Fatalf("PointCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 points after delete, got %d", count)
	}
}
