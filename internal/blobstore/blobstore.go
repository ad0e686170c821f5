// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package blobstore is the out-of-scope blob backend's Go interface: the
// ingestion orchestrator only needs Put/Get/Delete, so spec.md §1 treats
// the storage backend's internals as an external collaborator. Local is
// the reference implementation, rooted at UPLOAD_DIR (spec.md §6),
// grounded in the teacher's os.MkdirAll/os.WriteFile usage in
// cmd/seeder/main.go.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists and retrieves opaque byte blobs by a path the caller
// previously received from Put.
type Store interface {
	Put(name string, data []byte) (path string, err error)
	Get(path string) ([]byte, error)
	Delete(path string) error
}

// Local is a filesystem-backed Store rooted at a directory.
type Local struct {
	root string
}

// NewLocal ensures root exists and returns a Local store over it.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("blobstore: create root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Put writes data under a content-addressed-looking but collision-free
// name derived from a fresh UUID plus the original name's extension, and
// returns the path to hand back to File.Path.
func (l *Local) Put(name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	key := uuid.NewString() + ext
	path := filepath.Join(l.root, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("blobstore: write %s: %w", path, err)
	}
	return path, nil
}

func (l *Local) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", path, err)
	}
	return data, nil
}

func (l *Local) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: delete %s: %w", path, err)
	}
	return nil
}
