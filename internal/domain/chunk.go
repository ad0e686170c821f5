// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinChunkRunes is the floor below which a chunk is dropped rather than
// persisted (invariant 10, spec.md §8).
const MinChunkRunes = 10

// ContentChunk is a contiguous slice of extracted text belonging to one File.
type ContentChunk struct {
	ID          uuid.UUID
	FileID      uuid.UUID
	Text        string
	Index       int
	TokenCount  *int
	Page        *int
	SectionPath string
	CreatedAt   time.Time
}

// MeetsFloor reports whether text has enough non-whitespace content to be
// retained as a chunk.
func MeetsFloor(text string) bool {
	trimmed := strings.TrimSpace(text)
	count := 0
	for _, r := range trimmed {
		if !strings.ContainsRune(" \t\n\r\v\f", r) {
			count++
		}
		if count >= MinChunkRunes {
			return true
		}
	}
	return count >= MinChunkRunes
}

// NewChunk builds a ContentChunk at the given sequence index.
func NewChunk(fileID uuid.UUID, text string, index int) ContentChunk {
	return ContentChunk{
		ID:        uuid.New(),
		FileID:    fileID,
		Text:      text,
		Index:     index,
		CreatedAt: time.Now().UTC(),
	}
}
