// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

// SQLiteJobRepository is the JobRepository backed by SQLite.
type SQLiteJobRepository struct {
	db *sql.DB
}

// NewJobRepository wraps db as a JobRepository.
func NewJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

func (r *SQLiteJobRepository) Save(ctx context.Context, j domain.ProcessingJob) error {
	var resultJSON []byte
	if j.Result != nil {
		var err error
		resultJSON, err = json.Marshal(j.Result)
		if err != nil {
			return fmt.Errorf("%w: marshal result: %v", domain.ErrRepository, err)
		}
	}

	var startedAt, completedAt sql.NullString
	if j.StartedAt != nil {
		startedAt = sql.NullString{String: j.StartedAt.Format(time.RFC3339Nano), Valid: true}
	}
	if j.CompletedAt != nil {
		completedAt = sql.NullString{String: j.CompletedAt.Format(time.RFC3339Nano), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processing_jobs (id, file_id, kind, url, status, progress, created_at, started_at, completed_at, last_message, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.FileID.String(), string(j.Kind), j.URL, string(j.Status), j.Progress,
		j.CreatedAt.Format(time.RFC3339Nano), startedAt, completedAt, j.LastMessage, string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return nil
}

func (r *SQLiteJobRepository) Update(ctx context.Context, j domain.ProcessingJob) error {
	return r.Save(ctx, j)
}

func (r *SQLiteJobRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, file_id, kind, url, status, progress, created_at, started_at, completed_at, last_message, result FROM processing_jobs WHERE id = ?`, id.String())
	return scanJob(row)
}

func (r *SQLiteJobRepository) FindByFileID(ctx context.Context, fileID uuid.UUID) ([]domain.ProcessingJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_id, kind, url, status, progress, created_at, started_at, completed_at, last_message, result
		FROM processing_jobs WHERE file_id = ? ORDER BY created_at ASC`, fileID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

// FindActiveJobs returns every job in Pending or Processing status, used to
// enforce the at-most-one-active-job-per-file invariant.
func (r *SQLiteJobRepository) FindActiveJobs(ctx context.Context) ([]domain.ProcessingJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_id, kind, url, status, progress, created_at, started_at, completed_at, last_message, result
		FROM processing_jobs WHERE status IN (?, ?)`,
		string(domain.JobPending), string(domain.JobProcessing))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()
	return scanJobRows(rows)
}

func scanJob(row rowScanner) (domain.ProcessingJob, error) {
	var (
		j                                       domain.ProcessingJob
		idStr, fileIDStr                       string
		kind, status                           string
		url, lastMessage, resultJSON           sql.NullString
		createdAt                              string
		startedAt, completedAt                 sql.NullString
	)
	err := row.Scan(&idStr, &fileIDStr, &kind, &url, &status, &j.Progress, &createdAt, &startedAt, &completedAt, &lastMessage, &resultJSON)
	if err == sql.ErrNoRows {
		return domain.ProcessingJob{}, fmt.Errorf("%w", domain.ErrJobNotFound)
	}
	if err != nil {
		return domain.ProcessingJob{}, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	j.Kind = domain.JobKind(kind)
	j.Status = domain.JobStatus(status)
	j.ID, _ = uuid.Parse(idStr)
	j.FileID, _ = uuid.Parse(fileIDStr)
	j.URL = url.String
	j.LastMessage = lastMessage.String
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if startedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, startedAt.String)
		if err == nil {
			j.StartedAt = &t
		}
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err == nil {
			j.CompletedAt = &t
		}
	}
	if resultJSON.Valid && resultJSON.String != "" && resultJSON.String != "null" {
		var res domain.JobResult
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err == nil {
			j.Result = &res
		}
	}
	return j, nil
}

func scanJobRows(rows *sql.Rows) ([]domain.ProcessingJob, error) {
	var out []domain.ProcessingJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
