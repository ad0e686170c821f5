// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedclient

import (
	"context"
	"hash/fnv"
	"math"
)

// MockClient generates deterministic embeddings from a text hash, for
// tests and offline/UI-only operation. Grounded in the teacher's
// embeddings.MockEmbedder.
type MockClient struct {
	info ModelInfo
}

// NewMockClient creates a mock embedding client with the given dimension.
func NewMockClient(dimension int) *MockClient {
	if dimension <= 0 {
		dimension = 384
	}
	return &MockClient{info: ModelInfo{Name: "mock", Version: "v1", Dimension: dimension, MaxInputLength: 1 << 20}}
}

// ModelInfo returns the static model descriptor.
func (m *MockClient) ModelInfo() ModelInfo {
	return m.info
}

// Health always reports true: there is no remote dependency to probe.
func (m *MockClient) Health(ctx context.Context) bool {
	return true
}

// Embed deterministically derives a unit vector from text's FNV hash.
func (m *MockClient) Embed(ctx context.Context, text string) (Result, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, m.info.Dimension)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(seed*uint32(i+1)) * 0.1))
	}
	var sumSq float32
	for _, v := range vec {
		sumSq += v * v
	}
	if norm := float32(math.Sqrt(float64(sumSq))); norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}

	return Result{Vector: vec, ModelName: m.info.Name, ModelVersion: m.info.Version, TokenCount: len(text) / 4}, nil
}

// EmbedBatch embeds each text independently, preserving order.
func (m *MockClient) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	for i, t := range texts {
		r, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}
