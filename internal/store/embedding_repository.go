// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/northbound/knowledgehive/internal/domain"
)

// SQLiteEmbeddingRepository is the EmbeddingRepository backed by SQLite.
//
// SQLite carries no native vector column or index, so similarity search is a
// full scan followed by in-memory cosine ranking by default. A
// SimilarityBackend supplied through WithSimilarityBackend (such as the
// Qdrant-backed one in internal/vectordb) replaces this scan with a
// server-side ANN index.
type SQLiteEmbeddingRepository struct {
	db         *sql.DB
	similarity SimilarityBackend
}

// NewEmbeddingRepository wraps db as an EmbeddingRepository.
func NewEmbeddingRepository(db *sql.DB) *SQLiteEmbeddingRepository {
	return &SQLiteEmbeddingRepository{db: db}
}

// WithSimilarityBackend switches SimilaritySearch/SimilaritySearchByFile to
// delegate to backend (e.g. internal/vectordb's Qdrant client) instead of
// the in-process brute-force scan. SQLite remains the system of record for
// every other operation; backend is kept in sync on save and delete.
func (r *SQLiteEmbeddingRepository) WithSimilarityBackend(backend SimilarityBackend) *SQLiteEmbeddingRepository {
	r.similarity = backend
	return r
}

func (r *SQLiteEmbeddingRepository) SaveBatch(ctx context.Context, embeddings []domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO embeddings (id, chunk_id, model_name, model_version, generated_at, generation_params, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer stmt.Close()

	for _, e := range embeddings {
		vecJSON, err := json.Marshal(e.Vector)
		if err != nil {
			return fmt.Errorf("%w: marshal vector: %v", domain.ErrRepository, err)
		}
		paramsJSON, err := json.Marshal(e.GenerationParams)
		if err != nil {
			return fmt.Errorf("%w: marshal generation params: %v", domain.ErrRepository, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID.String(), e.ChunkID.String(), e.ModelName, e.ModelVersion,
			e.GeneratedAt.Format(time.RFC3339Nano), string(paramsJSON), string(vecJSON)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRepository, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	if r.similarity != nil {
		for _, e := range embeddings {
			fileID, err := r.fileIDForChunk(ctx, e.ChunkID)
			if err != nil {
				return err
			}
			if err := r.similarity.Upsert(ctx, e.ChunkID, fileID, e.Vector); err != nil {
				return fmt.Errorf("%w: similarity backend upsert: %v", domain.ErrRepository, err)
			}
		}
	}
	return nil
}

func (r *SQLiteEmbeddingRepository) fileIDForChunk(ctx context.Context, chunkID uuid.UUID) (uuid.UUID, error) {
	var fileIDStr string
	if err := r.db.QueryRowContext(ctx, `SELECT file_id FROM content_chunks WHERE id = ?`, chunkID.String()).Scan(&fileIDStr); err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: resolving chunk's file id: %v", domain.ErrRepository, err)
	}
	return uuid.Parse(fileIDStr)
}

func (r *SQLiteEmbeddingRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Embedding, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, chunk_id, model_name, model_version, generated_at, generation_params, vector FROM embeddings WHERE id = ?`, id.String())
	return scanEmbedding(row)
}

func (r *SQLiteEmbeddingRepository) FindByChunkID(ctx context.Context, chunkID uuid.UUID) ([]domain.Embedding, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, chunk_id, model_name, model_version, generated_at, generation_params, vector FROM embeddings WHERE chunk_id = ?`, chunkID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()
	return scanEmbeddingRows(rows)
}

func (r *SQLiteEmbeddingRepository) FindByFileID(ctx context.Context, fileID uuid.UUID) ([]domain.Embedding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.chunk_id, e.model_name, e.model_version, e.generated_at, e.generation_params, e.vector
		FROM embeddings e JOIN content_chunks c ON c.id = e.chunk_id
		WHERE c.file_id = ?`, fileID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()
	return scanEmbeddingRows(rows)
}

// SimilaritySearch ranks every stored embedding against query by cosine
// similarity, dropping anything below threshold (when set) and returning at
// most limit matches, highest score first. Ties break by insertion order.
func (r *SQLiteEmbeddingRepository) SimilaritySearch(ctx context.Context, query []float32, limit int, threshold *float64) ([]SimilarityMatch, error) {
	if r.similarity != nil {
		return r.searchBackend(ctx, query, limit, threshold, nil)
	}
	return r.search(ctx, query, limit, threshold, "SELECT chunk_id, vector FROM embeddings")
}

// SimilaritySearchByFile is SimilaritySearch scoped to one file's chunks.
func (r *SQLiteEmbeddingRepository) SimilaritySearchByFile(ctx context.Context, query []float32, fileID uuid.UUID, limit int, threshold *float64) ([]SimilarityMatch, error) {
	if r.similarity != nil {
		return r.searchBackend(ctx, query, limit, threshold, &fileID)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.chunk_id, e.vector FROM embeddings e
		JOIN content_chunks c ON c.id = e.chunk_id
		WHERE c.file_id = ?`, fileID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()
	return rankRows(rows, query, limit, threshold)
}

// searchBackend delegates ranking to the pluggable SimilarityBackend,
// applying the threshold client-side since backends are not required to
// support it natively.
func (r *SQLiteEmbeddingRepository) searchBackend(ctx context.Context, query []float32, limit int, threshold *float64, fileID *uuid.UUID) ([]SimilarityMatch, error) {
	matches, err := r.similarity.Search(ctx, query, limit, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity backend search: %v", domain.ErrRepository, err)
	}
	if threshold == nil {
		return matches, nil
	}
	out := make([]SimilarityMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= *threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *SQLiteEmbeddingRepository) search(ctx context.Context, query []float32, limit int, threshold *float64, q string) ([]SimilarityMatch, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	defer rows.Close()
	return rankRows(rows, query, limit, threshold)
}

func rankRows(rows *sql.Rows, query []float32, limit int, threshold *float64) ([]SimilarityMatch, error) {
	type scored struct {
		match SimilarityMatch
		order int
	}
	var all []scored
	i := 0
	for rows.Next() {
		var chunkIDStr, vecJSON string
		if err := rows.Scan(&chunkIDStr, &vecJSON); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			return nil, fmt.Errorf("%w: corrupt stored vector: %v", domain.ErrRepository, err)
		}
		chunkID, err := uuid.Parse(chunkIDStr)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt chunk id: %v", domain.ErrRepository, err)
		}
		score := domain.CosineSimilarity(query, vec)
		if threshold != nil && score < *threshold {
			i++
			continue
		}
		all = append(all, scored{match: SimilarityMatch{ChunkID: chunkID, Score: score}, order: i})
		i++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
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
	out := make([]SimilarityMatch, len(all))
	for idx, s := range all {
		out[idx] = s.match
	}
	return out, nil
}

func (r *SQLiteEmbeddingRepository) DeleteByChunkID(ctx context.Context, chunkID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM embeddings WHERE chunk_id = ?`, chunkID.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	if r.similarity != nil {
		if err := r.similarity.Delete(ctx, chunkID); err != nil {
			return fmt.Errorf("%w: similarity backend delete: %v", domain.ErrRepository, err)
		}
	}
	return nil
}

func (r *SQLiteEmbeddingRepository) DeleteByFileID(ctx context.Context, fileID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM embeddings WHERE chunk_id IN (SELECT id FROM content_chunks WHERE file_id = ?)`, fileID.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	if r.similarity != nil {
		if err := r.similarity.DeleteByFileID(ctx, fileID); err != nil {
			return fmt.Errorf("%w: similarity backend delete: %v", domain.ErrRepository, err)
		}
	}
	return nil
}

func (r *SQLiteEmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return count, nil
}

func (r *SQLiteEmbeddingRepository) CountByModel(ctx context.Context, modelName, modelVersion string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE model_name = ? AND model_version = ?`, modelName, modelVersion).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return count, nil
}

func scanEmbedding(row rowScanner) (domain.Embedding, error) {
	var (
		e                                domain.Embedding
		idStr, chunkIDStr                string
		modelVersion, paramsJSON         sql.NullString
		generatedAt, vecJSON             string
	)
	err := row.Scan(&idStr, &chunkIDStr, &e.ModelName, &modelVersion, &generatedAt, &paramsJSON, &vecJSON)
	if err == sql.ErrNoRows {
		return domain.Embedding{}, fmt.Errorf("%w: embedding", domain.ErrRepository)
	}
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	e.ID, _ = uuid.Parse(idStr)
	e.ChunkID, _ = uuid.Parse(chunkIDStr)
	e.ModelVersion = modelVersion.String
	e.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
	if paramsJSON.Valid && paramsJSON.String != "" && paramsJSON.String != "null" {
		_ = json.Unmarshal([]byte(paramsJSON.String), &e.GenerationParams)
	}
	if err := json.Unmarshal([]byte(vecJSON), &e.Vector); err != nil {
		return domain.Embedding{}, fmt.Errorf("%w: corrupt stored vector: %v", domain.ErrRepository, err)
	}
	return e, nil
}

func scanEmbeddingRows(rows *sql.Rows) ([]domain.Embedding, error) {
	var out []domain.Embedding
	for rows.Next() {
		e, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
