// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectordb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/store"
)

// MemoryBackend is an in-process store.SimilarityBackend, grounded in the
// teacher's MockVectorDB (a stand-in for a live Qdrant connection) but doing
// real cosine ranking rather than a no-op, so it can exercise the
// EmbeddingRepository.WithSimilarityBackend wiring in tests without a
// running Qdrant server.
type MemoryBackend struct {
	mu      sync.RWMutex
	vectors map[uuid.UUID]point
}

type point struct {
	fileID uuid.UUID
	vector []float32
}

// NewMemoryBackend constructs an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{vectors: make(map[uuid.UUID]point)}
}

func (m *MemoryBackend) Upsert(ctx context.Context, chunkID, fileID uuid.UUID, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[chunkID] = point{fileID: fileID, vector: vector}
	return nil
}

func (m *MemoryBackend) Search(ctx context.Context, query []float32, limit int, fileID *uuid.UUID) ([]store.SimilarityMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		match store.SimilarityMatch
		order int
	}
	var all []scored
	i := 0
	for chunkID, p := range m.vectors {
		if fileID != nil && p.fileID != *fileID {
			continue
		}
		all = append(all, scored{match: store.SimilarityMatch{ChunkID: chunkID, Score: domain.CosineSimilarity(query, p.vector)}, order: i})
		i++
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].match.Score != all[j].match.Score {
			return all[i].match.Score > all[j].match.Score
		}
		return all[i].order < all[j].order
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]store.SimilarityMatch, len(all))
	for idx, s := range all {
		out[idx] = s.match
	}
	return out, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, chunkID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, chunkID)
	return nil
}

func (m *MemoryBackend) DeleteByFileID(ctx context.Context, fileID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for chunkID, p := range m.vectors {
		if p.fileID == fileID {
			delete(m.vectors, chunkID)
		}
	}
	return nil
}

// PointCount reports the number of vectors currently held.
func (m *MemoryBackend) PointCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors), nil
}
