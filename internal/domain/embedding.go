// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Embedding is a fixed-dimension vector produced for one chunk by one model.
type Embedding struct {
	ID                uuid.UUID
	ChunkID           uuid.UUID
	ModelName         string
	ModelVersion      string
	GeneratedAt       time.Time
	GenerationParams  map[string]any
	Vector            []float32
}

// Comparable reports whether two embeddings can be meaningfully compared by
// cosine similarity: same model, version, and dimension.
func (e Embedding) Comparable(other Embedding) bool {
	return e.ModelName == other.ModelName &&
		e.ModelVersion == other.ModelVersion &&
		len(e.Vector) == len(other.Vector)
}

// NewEmbedding builds an Embedding for chunkID generated just now.
func NewEmbedding(chunkID uuid.UUID, modelName, modelVersion string, vector []float32) Embedding {
	return Embedding{
		ID:           uuid.New(),
		ChunkID:      chunkID,
		ModelName:    modelName,
		ModelVersion: modelVersion,
		GeneratedAt:  time.Now().UTC(),
		Vector:       vector,
	}
}
