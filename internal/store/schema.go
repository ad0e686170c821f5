// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the SQLite database at path and applies
// the schema, mirroring the teacher's sql.Open("sqlite3", ...) +
// initSchema() construction pattern used throughout internal/database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	name TEXT NOT NULL,
	size INTEGER,
	kind TEXT,
	hash TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	metadata TEXT,
	processing_status TEXT NOT NULL,
	failure_reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);

CREATE TABLE IF NOT EXISTS content_chunks (
	id TEXT PRIMARY KEY,
	file_id TEXT NOT NULL REFERENCES files(id),
	text TEXT NOT NULL,
	idx INTEGER NOT NULL,
	token_count INTEGER,
	page INTEGER,
	section_path TEXT,
	created_at TEXT NOT NULL,
	UNIQUE(file_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_chunks_file_id ON content_chunks(file_id);

CREATE TABLE IF NOT EXISTS embeddings (
	id TEXT PRIMARY KEY,
	chunk_id TEXT NOT NULL REFERENCES content_chunks(id),
	model_name TEXT NOT NULL,
	model_version TEXT,
	generated_at TEXT NOT NULL,
	generation_params TEXT,
	vector TEXT NOT NULL,
	UNIQUE(chunk_id, model_name, model_version)
);
CREATE INDEX IF NOT EXISTS idx_embeddings_chunk_id ON embeddings(chunk_id);

CREATE TABLE IF NOT EXISTS processing_jobs (
	id TEXT PRIMARY KEY,
	file_id TEXT NOT NULL REFERENCES files(id),
	kind TEXT NOT NULL,
	url TEXT,
	status TEXT NOT NULL,
	progress REAL NOT NULL,
	created_at TEXT NOT NULL,
	started_at TEXT,
	completed_at TEXT,
	last_message TEXT,
	result TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_file_id ON processing_jobs(file_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON processing_jobs(status);
`

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
