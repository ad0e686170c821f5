// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

// SQLiteChunkRepository is the ChunkRepository backed by SQLite.
type SQLiteChunkRepository struct {
	db *sql.DB
}

// NewChunkRepository wraps db as a ChunkRepository.
func NewChunkRepository(db *sql.DB) *SQLiteChunkRepository {
	return &SQLiteChunkRepository{db: db}
}

// SaveBatch persists a file's chunks atomically, preserving index order
// (spec.md §5: "Chunks for one file are persisted in increasing index order").
func (r *SQLiteChunkRepository) SaveBatch(ctx context.Context, chunks []domain.ContentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO content_chunks (id, file_id, text, idx, token_count, page, section_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID.String(), c.FileID.String(), c.Text, c.Index,
			c.TokenCount, c.Page, c.SectionPath, c.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRepository, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return nil
}

func (r *SQLiteChunkRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.ContentChunk, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, file_id, text, idx, token_count, page, section_path, created_at FROM content_chunks WHERE id = ?`, id.String())
	return scanChunk(row)
}

func (r *SQLiteChunkRepository) FindByFileIDPaginated(ctx context.Context, fileID uuid.UUID, skip, limit int) ([]domain.ContentChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_id, text, idx, token_count, page, section_path, created_at
		FROM content_chunks WHERE file_id = ? ORDER BY idx ASC LIMIT ? OFFSET ?`,
		fileID.String(), limit, skip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()

	var chunks []domain.ContentChunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *SQLiteChunkRepository) DeleteByFileID(ctx context.Context, fileID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM content_chunks WHERE file_id = ?`, fileID.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return nil
}

func (r *SQLiteChunkRepository) CountByFileID(ctx context.Context, fileID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_chunks WHERE file_id = ?`, fileID.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return count, nil
}

func scanChunk(row rowScanner) (domain.ContentChunk, error) {
	var (
		c                         domain.ContentChunk
		idStr, fileIDStr          string
		tokenCount, page          sql.NullInt64
		sectionPath               sql.NullString
		createdAt                 string
	)
	err := row.Scan(&idStr, &fileIDStr, &c.Text, &c.Index, &tokenCount, &page, &sectionPath, &createdAt)
	if err == sql.ErrNoRows {
		return domain.ContentChunk{}, fmt.Errorf("%w: chunk", domain.ErrRepository)
	}
	if err != nil {
		return domain.ContentChunk{}, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	c.ID, _ = uuid.Parse(idStr)
	c.FileID, _ = uuid.Parse(fileIDStr)
	if tokenCount.Valid {
		tc := int(tokenCount.Int64)
		c.TokenCount = &tc
	}
	if page.Valid {
		p := int(page.Int64)
		c.Page = &p
	}
	c.SectionPath = sectionPath.String
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return c, nil
}
