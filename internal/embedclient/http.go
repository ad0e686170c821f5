// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to a remote embedding service over a simple JSON HTTP
// API: POST {baseURL}/embeddings {"input": [...], "model": "..."} ->
// {"data": [{"embedding": [...], "token_count": N}, ...]}. Grounded in the
// teacher's OpenAIEmbedder/OllamaEmbedder, generalized to one configurable
// backend instead of two hardcoded ones.
type HTTPClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	retry      RetryPolicy
	info       ModelInfo
}

// Config configures an HTTPClient.
type Config struct {
	BaseURL        string
	Model          string
	ModelVersion   string
	APIKey         string
	Dimension      int
	MaxInputLength int
	Timeout        time.Duration
	Retry          RetryPolicy
}

// NewHTTPClient constructs a client per cfg, filling in the teacher's
// defaults where cfg leaves a field zero.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, invalidInputErr("embedding service base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, invalidInputErr("embedding service base URL is malformed")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 1536
	}
	if cfg.MaxInputLength == 0 {
		cfg.MaxInputLength = 8192
	}

	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      cfg.Retry,
		info: ModelInfo{
			Name:           cfg.Model,
			Version:        cfg.ModelVersion,
			Dimension:      cfg.Dimension,
			MaxInputLength: cfg.MaxInputLength,
		},
	}, nil
}

// ModelInfo returns the static model descriptor.
func (c *HTTPClient) ModelInfo() ModelInfo {
	return c.info
}

// Embed generates an embedding for a single text via EmbedBatch.
func (c *HTTPClient) Embed(ctx context.Context, text string) (Result, error) {
	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// EmbedBatch generates embeddings for multiple texts, retrying transient
// transport failures with exponential back-off and preserving input order.
func (c *HTTPClient) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, invalidInputErr("no texts to embed")
	}
	for _, t := range texts {
		if len([]rune(t)) > c.info.MaxInputLength {
			return nil, invalidInputErr(fmt.Sprintf("text exceeds max_input_length of %d", c.info.MaxInputLength))
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxRetries; attempt++ {
		results, err := c.doEmbedBatch(ctx, texts)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !Retriable(err) {
			return nil, err
		}
		if attempt == c.retry.MaxRetries {
			break
		}
		if sleepErr := sleepBackoff(ctx, c.retry, attempt); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) doEmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	payload := struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{Input: texts, Model: c.model}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, invalidInputErr(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, networkErr(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkErr(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusTooManyRequests:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, rateLimitErr(fmt.Errorf("%s", string(respBody)))
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, serviceUnavailableErr(fmt.Errorf("%s", string(respBody)))
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apiErr(resp.StatusCode, string(respBody))
	}

	var response struct {
		Data []struct {
			Embedding  []float64 `json:"embedding"`
			TokenCount int       `json:"token_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, apiErr(resp.StatusCode, "malformed response body")
	}
	if len(response.Data) != len(texts) {
		return nil, apiErr(resp.StatusCode, fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(response.Data)))
	}

	results := make([]Result, len(response.Data))
	for i, d := range response.Data {
		vector := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vector[j] = float32(v)
		}
		results[i] = Result{
			Vector:       vector,
			ModelName:    c.info.Name,
			ModelVersion: c.info.Version,
			TokenCount:   d.TokenCount,
		}
	}
	return results, nil
}

// Health probes the embedding service's health endpoint.
func (c *HTTPClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
