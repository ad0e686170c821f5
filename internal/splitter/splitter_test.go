// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package splitter

import (
	"strings"
	"testing"
)

func TestSplit_ShortTextUnchanged(t *testing.T) {
	s := New(100)
	text := "a short sentence"
	got := s.Split(text)
	if len(got) != 1 || got[0] != text {
		t.Fatalf("expected [%q], got %v", text, got)
	}
}

func TestSplit_ParagraphBoundaries(t *testing.T) {
	s := New(5)
	got := s.Split("aaa\n\nbbb\n\nccc")
	want := []string{"aaa", "bbb", "ccc"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplit_FixedWidthFallback(t *testing.T) {
	s := New(3)
	got := s.Split("abcdefghij")
	want := []string{"abc", "def", "ghi", "j"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplit_EveryChunkWithinBound(t *testing.T) {
	s := New(20)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	got := s.Split(text)
	if len(got) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range got {
		if len([]rune(c)) > s.MaxSize {
			t.Errorf("chunk %d exceeds MaxSize: %d runes: %q", i, len([]rune(c)), c)
		}
	}
}

func TestSplit_MultiByteCharacters(t *testing.T) {
	s := New(3)
	// Each rune below is multi-byte in UTF-8; slicing must operate on runes.
	text := "日本語のテキスト"
	got := s.Split(text)
	var rebuilt []rune
	for _, c := range got {
		rebuilt = append(rebuilt, []rune(c)...)
	}
	if string(rebuilt) != text {
		t.Fatalf("rebuilt text mismatch: got %q want %q", string(rebuilt), text)
	}
	for _, c := range got {
		if len([]rune(c)) > s.MaxSize {
			t.Errorf("chunk %q exceeds MaxSize %d runes", c, s.MaxSize)
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := New(10)
	got := s.Split("")
	if len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %v", got)
	}
}

func TestSplit_NoSeparatorFallsBackToWords(t *testing.T) {
	s := New(10)
	got := s.Split("a b c d e f g h i j k")
	for _, c := range got {
		if len([]rune(c)) > s.MaxSize {
			t.Errorf("chunk %q exceeds MaxSize %d", c, s.MaxSize)
		}
	}
}
