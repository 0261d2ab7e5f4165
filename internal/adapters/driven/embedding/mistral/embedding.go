// Package mistral provides an embedder adapter for the hosted Mistral
// embeddings API. Requests pass through a token-bucket rate limiter so
// bursts of ingestion do not trip the provider's quota.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "https://api.mistral.ai"
	DefaultModel             = "mistral-embed"
	DefaultTimeout           = 30 * time.Second
	DefaultDimensions        = 1024 // mistral-embed output size
	DefaultRequestsPerSecond = 5.0
	DefaultBurstSize         = 5
)

// Config holds configuration for the Mistral embedder.
type Config struct {
	// APIKey authenticates against the Mistral API. Required.
	APIKey string

	// BaseURL is the API base URL (default: https://api.mistral.ai).
	BaseURL string

	// Model is the embedding model to use (default: mistral-embed).
	Model string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 1024).
	Dimensions int

	// RequestsPerSecond is the sustained request rate (default: 5).
	RequestsPerSecond float64
}

// Embedder generates embeddings using the Mistral API.
type Embedder struct {
	client     *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

// embedRequest is the Mistral embeddings request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the Mistral embeddings response format.
type embedResponse struct {
	Data []embedResult `json:"data"`
}

type embedResult struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// NewEmbedder creates a new Mistral embedder.
func NewEmbedder(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Embedder{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), DefaultBurstSize),
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one API call.
// Rate limiting happens before the request; cancelling the context
// aborts the wait. Failures surface as domain.ErrEmbeddingProvider and
// are never retried here.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", domain.ErrEmbeddingProvider, err)
	}

	jsonBody, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+"/v1/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: mistral: %v", domain.ErrEmbeddingProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: mistral status %d: %s",
			domain.ErrEmbeddingProvider, resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: mistral: decode response: %v", domain.ErrEmbeddingProvider, err)
	}

	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: mistral returned %d embeddings for %d inputs",
			domain.ErrEmbeddingProvider, len(embedResp.Data), len(texts))
	}

	// The API documents results in input order; honour the index field
	// anyway.
	embeddings := make([][]float32, len(texts))
	for _, item := range embedResp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("%w: mistral returned out-of-range index %d",
				domain.ErrEmbeddingProvider, item.Index)
		}
		vector := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vector[i] = float32(v)
		}
		embeddings[item.Index] = vector
	}

	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}
