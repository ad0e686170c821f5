// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedclient

import "context"

// EmbedInGroups embeds texts in fixed-size groups (EMBED_BATCH, default 10
// per spec.md §6), preserving overall order, to bound per-call payload and
// latency as required by §5's back-pressure policy.
func EmbedInGroups(ctx context.Context, client Client, texts []string, groupSize int) ([]Result, error) {
	if groupSize <= 0 {
		groupSize = 10
	}
	results := make([]Result, 0, len(texts))
	for start := 0; start < len(texts); start += groupSize {
		end := start + groupSize
		if end > len(texts) {
			end = len(texts)
		}
		group, err := client.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, group...)
	}
	return results, nil
}
