// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedclient

import (
	"context"
	"testing"
)

func TestMockClient_BatchOrderMatchesInput(t *testing.T) {
	c := NewMockClient(16)
	texts := []string{"alpha", "beta", "gamma", "delta"}

	results, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}

	for i, text := range texts {
		single, err := c.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed: %v", err)
		}
		if !vectorsEqual(single.Vector, results[i].Vector) {
			t.Errorf("batch result %d does not match single embed for %q", i, text)
		}
	}
}

func TestEmbedInGroups_PreservesOrderAcrossBatches(t *testing.T) {
	c := NewMockClient(8)
	texts := make([]string, 25)
	for i := range texts {
		texts[i] = string(rune('a' + i%26))
	}

	results, err := EmbedInGroups(context.Background(), c, texts, 10)
	if err != nil {
		t.Fatalf("EmbedInGroups: %v", err)
	}
	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}
	for i, text := range texts {
		want, _ := c.Embed(context.Background(), text)
		if !vectorsEqual(want.Vector, results[i].Vector) {
			t.Errorf("result %d out of order", i)
		}
	}
}

func TestRetryPolicy_ExponentialBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: 100, Factor: 2.0}
	if p.Delay(1) != 100 {
		t.Errorf("attempt 1: expected 100, got %v", p.Delay(1))
	}
	if p.Delay(2) != 200 {
		t.Errorf("attempt 2: expected 200, got %v", p.Delay(2))
	}
	if p.Delay(3) != 400 {
		t.Errorf("attempt 3: expected 400, got %v", p.Delay(3))
	}
}

func vectorsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
