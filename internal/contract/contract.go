// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package contract holds the plain request/response shapes of spec.md §6's
// operation table. They carry no behavior: a transport layer (out of scope
// here, per §1) decodes onto these and maps internal/ingest and
// internal/search results into them.
package contract

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

// UploadRequest is the input to the upload use case.
type UploadRequest struct {
	Name string
	Kind string
	Data []byte
}

// UploadResponse is upload's success output.
type UploadResponse struct {
	FileID uuid.UUID `json:"file_id"`
	Name   string    `json:"name"`
	Size   int64     `json:"size"`
	Hash   string    `json:"hash"`
	Kind   string    `json:"kind,omitempty"`
}

// UploadWithProcessingRequest is the input to upload_with_processing.
type UploadWithProcessingRequest struct {
	Name        string
	Kind        string
	Data        []byte
	AutoProcess bool
}

// UploadWithProcessingResponse is upload_with_processing's success output.
type UploadWithProcessingResponse struct {
	FileID uuid.UUID  `json:"file_id"`
	JobID  *uuid.UUID `json:"job_id,omitempty"`
	Status string     `json:"status"` // "uploaded" or "processing"
}

// QueueJobRequest is the input to queue_job. Kind selects which of URL/
// Youtube is meaningful.
type QueueJobRequest struct {
	FileID uuid.UUID
	Kind   domain.JobKind
	URL    string
}

// QueueJobResponse is queue_job's success output.
type QueueJobResponse struct {
	JobID  uuid.UUID      `json:"job_id"`
	FileID uuid.UUID      `json:"file_id"`
	Kind   domain.JobKind `json:"kind"`
	Status string         `json:"status"`
}

// ProcessURLDirectRequest is the input to process_url_direct.
type ProcessURLDirectRequest struct {
	URL         string
	Name        string
	AutoProcess bool
}

// ProcessYoutubeDirectRequest is the input to process_youtube_direct.
// ExtractTimestamps and Languages are carried for the transport surface;
// nothing in internal/extract or internal/ingest reads them.
type ProcessYoutubeDirectRequest struct {
	URL               string
	Name              string
	ExtractTimestamps bool
	Languages         []string
	AutoProcess       bool
}

// DirectResponse is the shared success output of process_url_direct and
// process_youtube_direct.
type DirectResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	FileID uuid.UUID `json:"file_id"`
	URL    string    `json:"url"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
}

// GetJobStatusResponse is get_job_status's success output.
type GetJobStatusResponse struct {
	Job                 domain.ProcessingJob `json:"job"`
	EstimatedCompletion *time.Time           `json:"estimated_completion,omitempty"`
	Duration            *time.Duration       `json:"duration,omitempty"`
}

// CancelResponse is cancel's success output.
type CancelResponse struct {
	JobID   uuid.UUID        `json:"job_id"`
	Status  domain.JobStatus `json:"status"`
	Message string           `json:"message"`
}

// SearchRequest is the input to search.
type SearchRequest struct {
	Query     string
	Limit     int
	Threshold *float64
	FileID    *uuid.UUID
}

// SearchResultItem is one entry of SearchResponse.Results.
type SearchResultItem struct {
	Chunk  domain.ContentChunk `json:"chunk"`
	Score  float64             `json:"score"`
	FileID uuid.UUID           `json:"file_id"`
}

// SearchResponse is search's success output.
type SearchResponse struct {
	Query     string             `json:"query"`
	Results   []SearchResultItem `json:"results"`
	Total     int                `json:"total"`
	ElapsedMs int64              `json:"elapsed_ms"`
}

// PageRequest is the shared paging input for list_files/get_file_chunks.
type PageRequest struct {
	Skip  int
	Limit int
}

// ListFilesResponse is list_files' success output.
type ListFilesResponse struct {
	Files []domain.File `json:"files"`
}

// GetFileResponse is get_file's success output.
type GetFileResponse struct {
	File domain.File `json:"file"`
}

// GetFileChunksResponse is get_file_chunks' success output.
type GetFileChunksResponse struct {
	Chunks []domain.ContentChunk `json:"chunks"`
}

// ErrorKind enumerates the error categories named across spec.md §6's
// table, for a transport to map internal errors onto a stable wire code.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "ValidationError"
	ErrorKindInvalidURL        ErrorKind = "InvalidUrl"
	ErrorKindDuplicateFile     ErrorKind = "DuplicateFile"
	ErrorKindFileNotFound      ErrorKind = "FileNotFound"
	ErrorKindJobNotFound       ErrorKind = "JobNotFound"
	ErrorKindJobNotCancellable ErrorKind = "JobNotCancellable"
	ErrorKindQueueError        ErrorKind = "QueueError"
	ErrorKindStorageError      ErrorKind = "StorageError"
	ErrorKindRepositoryError   ErrorKind = "RepositoryError"
	ErrorKindEmbeddingError    ErrorKind = "EmbeddingError"
)

// ClassifyError maps a domain sentinel error to the wire-level ErrorKind a
// transport should report, per spec.md §7's propagation rule. The zero
// value is returned, with ok=false, for errors outside the named taxonomy.
func ClassifyError(err error) (ErrorKind, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, domain.ErrValidation):
		return ErrorKindValidation, true
	case errors.Is(err, domain.ErrInvalidURL):
		return ErrorKindInvalidURL, true
	case errors.Is(err, domain.ErrDuplicateFile):
		return ErrorKindDuplicateFile, true
	case errors.Is(err, domain.ErrFileNotFound):
		return ErrorKindFileNotFound, true
	case errors.Is(err, domain.ErrJobNotFound):
		return ErrorKindJobNotFound, true
	case errors.Is(err, domain.ErrJobNotCancellable):
		return ErrorKindJobNotCancellable, true
	case errors.Is(err, domain.ErrQueue), errors.Is(err, domain.ErrQueueClosed):
		return ErrorKindQueueError, true
	case errors.Is(err, domain.ErrStorage):
		return ErrorKindStorageError, true
	case errors.Is(err, domain.ErrRepository):
		return ErrorKindRepositoryError, true
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrAPI), errors.Is(err, domain.ErrRateLimitExceeded), errors.Is(err, domain.ErrServiceUnavailable):
		return ErrorKindEmbeddingError, true
	default:
		return "", false
	}
}
