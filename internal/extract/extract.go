// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package extract implements the DocumentExtractor contract of spec.md
// §4.c: a registry that dispatches by declared content kind to a concrete
// extractor, with a uniform output shape. Grounded in the teacher's
// internal/parser dispatcher, generalized from extension-based routing to
// case-insensitive kind matching.
package extract

import (
	"fmt"
	"strings"

	"github.com/northbound/knowledgehive/internal/domain"
)

// ExtractedContent is the uniform output shape every extractor produces.
type ExtractedContent struct {
	Text      string
	Metadata  map[string]string
	PageCount *int
	Language  string
}

// Options tune how an extractor behaves.
type Options struct {
	ExtractMetadata    bool
	PreserveFormatting bool
	IncludeImages      bool
	MaxPages           *int
}

// Extractor is the DocumentExtractor contract: extract from a file path or
// from raw bytes tagged with a declared kind.
type Extractor interface {
	// SupportedKinds lists the content kinds this extractor handles,
	// matched case-insensitively by the Registry.
	SupportedKinds() []string
	// MaxBytes is the largest input this extractor will accept; 0 means
	// unbounded.
	MaxBytes() int64
	// ExtractText extracts from a file already materialized on disk.
	ExtractText(path string, opts Options) (ExtractedContent, error)
	// ExtractTextFromBytes extracts from an in-memory buffer tagged with
	// kind (e.g. the body fetched for a URL or YouTube job).
	ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error)
}

// Registry dispatches to a concrete Extractor by declared kind.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry over the given extractors. Order matters
// only for tie-break among extractors that (incorrectly) both claim a kind;
// the first match wins.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Resolve finds the extractor declaring support for kind, matched
// case-insensitively.
func (r *Registry) Resolve(kind string) (Extractor, error) {
	lower := strings.ToLower(strings.TrimSpace(kind))
	for _, e := range r.extractors {
		for _, k := range e.SupportedKinds() {
			if strings.ToLower(k) == lower {
				return e, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, kind)
}

// ExtractFile resolves by kind and extracts from a file path.
func (r *Registry) ExtractFile(kind, path string, opts Options) (ExtractedContent, error) {
	e, err := r.Resolve(kind)
	if err != nil {
		return ExtractedContent{}, err
	}
	return e.ExtractText(path, opts)
}

// ExtractBytes resolves by kind and extracts from an in-memory buffer.
func (r *Registry) ExtractBytes(kind string, data []byte, opts Options) (ExtractedContent, error) {
	e, err := r.Resolve(kind)
	if err != nil {
		return ExtractedContent{}, err
	}
	if e.MaxBytes() > 0 && int64(len(data)) > e.MaxBytes() {
		return ExtractedContent{}, fmt.Errorf("%w: input exceeds max_bytes of %d for kind %s", domain.ErrCorruptedFile, e.MaxBytes(), kind)
	}
	return e.ExtractTextFromBytes(data, kind, opts)
}
