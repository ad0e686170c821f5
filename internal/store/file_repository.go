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

// SQLiteFileRepository is the FileRepository backed by SQLite.
type SQLiteFileRepository struct {
	db *sql.DB
}

// NewFileRepository wraps db as a FileRepository.
func NewFileRepository(db *sql.DB) *SQLiteFileRepository {
	return &SQLiteFileRepository{db: db}
}

// Save is create-or-replace by id, per spec.md §4.d.
func (r *SQLiteFileRepository) Save(ctx context.Context, f domain.File) error {
	metaJSON, err := json.Marshal(f.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", domain.ErrRepository, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO files (id, path, name, size, kind, hash, created_at, updated_at, metadata, processing_status, failure_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID.String(), f.Path, f.Name, f.Size, f.Kind, f.Hash,
		f.CreatedAt.Format(time.RFC3339Nano), f.UpdatedAt.Format(time.RFC3339Nano),
		string(metaJSON), string(f.ProcessingStatus), f.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return nil
}

// Update persists changes to an existing File, bumping UpdatedAt.
func (r *SQLiteFileRepository) Update(ctx context.Context, f domain.File) error {
	f.UpdatedAt = time.Now().UTC()
	return r.Save(ctx, f)
}

func (r *SQLiteFileRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, path, name, size, kind, hash, created_at, updated_at, metadata, processing_status, failure_reason FROM files WHERE id = ?`, id.String())
	return scanFile(row)
}

func (r *SQLiteFileRepository) FindByHash(ctx context.Context, hash string) (domain.File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, path, name, size, kind, hash, created_at, updated_at, metadata, processing_status, failure_reason FROM files WHERE hash = ?`, hash)
	return scanFile(row)
}

func (r *SQLiteFileRepository) FindAll(ctx context.Context, skip, limit int) ([]domain.File, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, path, name, size, kind, hash, created_at, updated_at, metadata, processing_status, failure_reason FROM files ORDER BY created_at ASC LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()

	var files []domain.File
	for rows.Next() {
		f, err := scanFileRows(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SQLiteFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer tx.Rollback()

	// Cascade: embeddings -> chunks -> file, following the ownership tree.
	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE chunk_id IN (SELECT id FROM content_chunks WHERE file_id = ?)`, id.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_chunks WHERE file_id = ?`, id.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM processing_jobs WHERE file_id = ?`, id.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return nil
}

func (r *SQLiteFileRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (domain.File, error) {
	return scanFileRows(row)
}

func scanFileRows(row rowScanner) (domain.File, error) {
	var (
		f                                 domain.File
		idStr                             string
		size                              sql.NullInt64
		createdAt, updatedAt              string
		metaJSON, status, failureReason   sql.NullString
	)
	err := row.Scan(&idStr, &f.Path, &f.Name, &size, &f.Kind, &f.Hash, &createdAt, &updatedAt, &metaJSON, &status, &failureReason)
	if err == sql.ErrNoRows {
		return domain.File{}, fmt.Errorf("%w", domain.ErrFileNotFound)
	}
	if err != nil {
		return domain.File{}, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	f.ID, err = uuid.Parse(idStr)
	if err != nil {
		return domain.File{}, fmt.Errorf("%w: corrupt file id: %v", domain.ErrRepository, err)
	}
	if size.Valid {
		f.Size = &size.Int64
	}
	f.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	f.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	f.ProcessingStatus = domain.ProcessingStatus(status.String)
	f.FailureReason = failureReason.String
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		_ = json.Unmarshal([]byte(metaJSON.String), &f.Metadata)
	}
	return f, nil
}
