// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"fmt"
	"os"

	"github.com/northbound/knowledgehive/internal/domain"
)

// PlainTextExtractor handles .txt/.md content verbatim. Grounded in the
// teacher's parser.parseText.
type PlainTextExtractor struct{}

func (PlainTextExtractor) SupportedKinds() []string {
	return []string{"text/plain", "text/markdown"}
}

func (PlainTextExtractor) MaxBytes() int64 { return 0 }

func (PlainTextExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return PlainTextExtractor{}.ExtractTextFromBytes(data, "text/plain", opts)
}

func (PlainTextExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	text := string(data)
	if text == "" {
		return ExtractedContent{}, fmt.Errorf("%w: no content", domain.ErrExtractionFailed)
	}
	return ExtractedContent{Text: text, Metadata: map[string]string{}}, nil
}
