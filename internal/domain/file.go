// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus is the coarse status attached to a File, mirrored from
// its owning ProcessingJob once a job exists for it.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// File is a logical source of text: an uploaded document or a referenced URL.
type File struct {
	ID               uuid.UUID
	Path             string
	Name             string
	Size             *int64
	Kind             string
	Hash             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Metadata         map[string]any
	ProcessingStatus ProcessingStatus
	FailureReason    string
}

// ValidHash reports whether s is a well-formed 64-char lowercase hex SHA-256
// digest. The empty string (no hash set) is also accepted.
func ValidHash(s string) bool {
	return s == "" || hashPattern.MatchString(s)
}

// HashBytes computes the canonical hash format used throughout the system:
// lowercase hex SHA-256.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString is a convenience wrapper for hashing a URL or other string key.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// NewFile constructs a File in Pending status with timestamps set to now.
func NewFile(name, path, kind, hash string, size *int64, metadata map[string]any) File {
	now := time.Now().UTC()
	return File{
		ID:               uuid.New(),
		Path:             path,
		Name:             name,
		Size:             size,
		Kind:             kind,
		Hash:             hash,
		CreatedAt:        now,
		UpdatedAt:        now,
		Metadata:         metadata,
		ProcessingStatus: StatusPending,
	}
}
