// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/northbound/knowledgehive/internal/domain"
)

// DOCXExtractor extracts text from Word documents. Supplements spec.md's
// explicit extractor list (present in the teacher, absent from spec.md but
// clearly within "binary file" scope). Grounded in the teacher's
// parser.parseDOCX.
type DOCXExtractor struct{}

func (DOCXExtractor) SupportedKinds() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

func (DOCXExtractor) MaxBytes() int64 { return 100 << 20 }

func (DOCXExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}
	defer doc.Close()

	text := strings.TrimSpace(doc.Editable().GetContent())
	if text == "" {
		return ExtractedContent{}, fmt.Errorf("%w: no text extracted from DOCX", domain.ErrExtractionFailed)
	}
	return ExtractedContent{Text: text, Metadata: map[string]string{}}, nil
}

func (DOCXExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	// docx's reader requires random file access; spill to a temp file.
	tmp, err := os.CreateTemp("", "extract-*.docx")
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	return DOCXExtractor{}.ExtractText(name, opts)
}
