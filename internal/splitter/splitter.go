// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package splitter implements the recursive separator-driven text chunker
// described in spec.md §4.a. It is character-aware (not byte-aware) so it
// stays correct across multi-byte encodings, and it is pure CPU work: it
// never performs I/O and never yields, matching §5's scheduling model.
package splitter

import "strings"

// DefaultSeparators is the conventional separator hierarchy: paragraph,
// line, word, then character-by-character as a last resort.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter recursively splits text by a separator hierarchy into
// size-bounded chunks.
type Splitter struct {
	Separators []string
	MaxSize    int
}

// New creates a Splitter with the conventional separator hierarchy.
func New(maxSize int) *Splitter {
	return &Splitter{Separators: DefaultSeparators, MaxSize: maxSize}
}

// Split partitions text into chunks of at most MaxSize runes, falling back
// to fixed-width slicing only when an atomic (non-divisible) fragment still
// exceeds MaxSize. Rejoining the result with the separator(s) consumed at
// each split point reproduces text exactly; separators are dropped only at
// chunk boundaries, matching the merge behavior described in spec.md §4.a.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return s.splitAt(text, 0)
}

func (s *Splitter) splitAt(text string, level int) []string {
	if runeLen(text) <= s.MaxSize {
		return []string{text}
	}

	if level >= len(s.Separators) {
		return fixedWidthSlice(text, s.MaxSize)
	}

	sep := s.Separators[level]
	if sep == "" {
		return fixedWidthSlice(text, s.MaxSize)
	}

	parts := strings.Split(text, sep)

	// No progress at this level (the separator never appears): defer to the
	// next separator instead of looping forever.
	if len(parts) <= 1 {
		return s.splitAt(text, level+1)
	}

	var chunks []string
	var running strings.Builder

	flush := func() {
		if running.Len() > 0 {
			chunks = append(chunks, running.String())
			running.Reset()
		}
	}

	for _, part := range parts {
		if runeLen(part) > s.MaxSize {
			// This single part is itself too large: flush what's pending,
			// then recurse into the oversized part at the next level.
			flush()
			chunks = append(chunks, s.splitAt(part, level+1)...)
			continue
		}

		if running.Len() == 0 {
			running.WriteString(part)
			continue
		}

		// running + separator + next, per the algorithm in spec.md §4.a.
		if runeLen(running.String())+len([]rune(sep))+runeLen(part) <= s.MaxSize {
			running.WriteString(sep)
			running.WriteString(part)
			continue
		}

		flush()
		running.WriteString(part)
	}
	flush()

	return chunks
}

// fixedWidthSlice splits text into runs of at most maxSize runes each,
// used once the atomic separator ("") is reached and a fragment still
// exceeds the limit.
func fixedWidthSlice(text string, maxSize int) []string {
	if maxSize <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += maxSize {
		end := start + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
