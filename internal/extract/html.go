// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"bytes"
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"

	"github.com/northbound/knowledgehive/internal/domain"
)

// HTMLExtractor strips script/style/noscript tags and returns the visible
// text. Grounded in the teacher's parser.parseHTML.
type HTMLExtractor struct{}

func (HTMLExtractor) SupportedKinds() []string {
	return []string{"text/html"}
}

func (HTMLExtractor) MaxBytes() int64 { return 0 }

func (HTMLExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return HTMLExtractor{}.ExtractTextFromBytes(data, "text/html", opts)
}

func (HTMLExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}

	doc.Find("script, style, noscript").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Text()
	if text == "" {
		return ExtractedContent{}, fmt.Errorf("%w: no text in HTML document", domain.ErrExtractionFailed)
	}

	meta := map[string]string{}
	if opts.ExtractMetadata {
		if title := doc.Find("title").First().Text(); title != "" {
			meta["title"] = title
		}
	}

	return ExtractedContent{Text: text, Metadata: meta}, nil
}
