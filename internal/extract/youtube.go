// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// YouTube URL validation and transcript extraction, supplementing spec.md's
// extractor list per the Open Question in spec.md §9 ("two subtly different
// URL-extraction worker paths... implementers must not collapse them").
// Grounded in original_source/src/core/youtube.rs: video-id extraction from
// the query string or path, and transcript-cue joining.
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/northbound/knowledgehive/internal/domain"
)

var youtubeHosts = map[string]bool{
	"www.youtube.com": true,
	"youtube.com":     true,
	"youtu.be":        true,
}

// ParseVideoID validates that rawURL is a YouTube URL and extracts its
// video id from either the `v` query parameter or the path (for youtu.be
// short links).
func ParseVideoID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: not a valid URL", domain.ErrInvalidURL)
	}
	if !youtubeHosts[strings.ToLower(u.Host)] {
		return "", fmt.Errorf("%w: not a valid YouTube URL", domain.ErrInvalidURL)
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}

	path := strings.Trim(u.Path, "/")
	if path != "" {
		return path, nil
	}

	return "", fmt.Errorf("%w: could not extract video id", domain.ErrInvalidURL)
}

// TranscriptCue is one caption line of a fetched transcript.
type TranscriptCue struct {
	StartSeconds    float64
	DurationSeconds float64
	Text            string
}

// YoutubeTranscriptExtractor turns an already-fetched transcript payload
// into the uniform ExtractedContent shape. It does no fetching: the worker
// pool GETs the job's URL and passes the response body here with kind
// text/youtube-url. Only a body of "start\tduration\ttext" cue lines is
// parsed; a line in any other form fails with ErrCorruptedFile.
type YoutubeTranscriptExtractor struct{}

func (YoutubeTranscriptExtractor) SupportedKinds() []string {
	return []string{"text/youtube-url"}
}

func (YoutubeTranscriptExtractor) MaxBytes() int64 { return 20 << 20 }

func (YoutubeTranscriptExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	return ExtractedContent{}, fmt.Errorf("%w: youtube extraction requires fetched transcript bytes, not a file path", domain.ErrUnsupportedFormat)
}

func (YoutubeTranscriptExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	cues, err := parseTranscriptCues(data)
	if err != nil {
		return ExtractedContent{}, err
	}
	if len(cues) == 0 {
		return ExtractedContent{}, fmt.Errorf("%w: video has no transcript", domain.ErrExtractionFailed)
	}

	var plain strings.Builder
	for i, c := range cues {
		if i > 0 {
			plain.WriteString(" ")
		}
		plain.WriteString(c.Text)
	}

	return ExtractedContent{Text: strings.TrimSpace(plain.String()), Metadata: map[string]string{}}, nil
}

func parseTranscriptCues(data []byte) ([]TranscriptCue, error) {
	var cues []TranscriptCue
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: malformed transcript cue %q", domain.ErrCorruptedFile, line)
		}
		start, err1 := strconv.ParseFloat(fields[0], 64)
		dur, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: malformed transcript timing %q", domain.ErrCorruptedFile, line)
		}
		cues = append(cues, TranscriptCue{StartSeconds: start, DurationSeconds: dur, Text: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return cues, nil
}
