// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"fmt"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/northbound/knowledgehive/internal/domain"
)

// PDFExtractor extracts page text via MuPDF. Grounded in the teacher's
// parser.parsePDF and pdf.Processor.ExtractText.
type PDFExtractor struct{}

func (PDFExtractor) SupportedKinds() []string {
	return []string{"application/pdf"}
}

func (PDFExtractor) MaxBytes() int64 { return 200 << 20 } // 200MB

func (PDFExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}
	defer doc.Close()
	return extractPDFPages(doc, opts)
}

func (PDFExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}
	defer doc.Close()
	return extractPDFPages(doc, opts)
}

func extractPDFPages(doc *fitz.Document, opts Options) (ExtractedContent, error) {
	numPages := doc.NumPage()
	if opts.MaxPages != nil && *opts.MaxPages < numPages {
		numPages = *opts.MaxPages
	}

	var builder strings.Builder
	for i := 0; i < numPages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			// One bad page does not sink the whole document.
			continue
		}
		builder.WriteString(pageText)
		if i < numPages-1 {
			builder.WriteString("\n\n")
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return ExtractedContent{}, fmt.Errorf("%w: no text extracted from PDF", domain.ErrExtractionFailed)
	}

	pages := numPages
	return ExtractedContent{Text: text, Metadata: map[string]string{}, PageCount: &pages}, nil
}
