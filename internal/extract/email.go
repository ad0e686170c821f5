// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mnako/letters"

	"github.com/northbound/knowledgehive/internal/domain"
)

// EmailExtractor extracts subject/sender/date metadata and body text from
// .eml files. Supplements spec.md's explicit extractor list; grounded in
// the teacher's parser.parseEmail.
type EmailExtractor struct{}

func (EmailExtractor) SupportedKinds() []string {
	return []string{"message/rfc822"}
}

func (EmailExtractor) MaxBytes() int64 { return 50 << 20 }

func (EmailExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return EmailExtractor{}.ExtractTextFromBytes(data, "message/rfc822", opts)
}

func (EmailExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	email, err := letters.ParseEmail(bytes.NewReader(data))
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}

	var builder strings.Builder
	meta := map[string]string{}

	if email.Headers.Subject != "" {
		builder.WriteString(fmt.Sprintf("Subject: %s\n", email.Headers.Subject))
		meta["subject"] = email.Headers.Subject
	}
	if len(email.Headers.From) > 0 {
		from := email.Headers.From[0]
		sender := from.Address
		if from.Name != "" {
			sender = fmt.Sprintf("%s <%s>", from.Name, from.Address)
		}
		builder.WriteString(fmt.Sprintf("Sender: %s\n", sender))
		meta["sender"] = sender
	}
	if !email.Headers.Date.IsZero() {
		builder.WriteString(fmt.Sprintf("Date: %s\n", email.Headers.Date.Format(time.RFC3339)))
	}
	builder.WriteString("\n")

	body := email.Text
	if body == "" {
		body = email.HTML
	}
	builder.WriteString(body)

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return ExtractedContent{}, fmt.Errorf("%w: no content extracted from message", domain.ErrExtractionFailed)
	}
	return ExtractedContent{Text: text, Metadata: meta}, nil
}
