// Package huggingface provides an embedding provider adapter for the
// Hugging Face feature-extraction inference endpoint.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "https://api-inference.huggingface.co"
	DefaultModel         = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultTimeout       = 120 * time.Second
	DefaultDimensions    = 384
	DefaultMaxInputChars = 8192
	DefaultMaxBatchSize  = 16
)

// Config holds configuration for the Hugging Face provider.
type Config struct {
	// APIKey is the Hugging Face access token (optional for public models).
	APIKey string

	// BaseURL is the inference API base URL.
	BaseURL string

	// Model is the repository id of a sentence-transformers model.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 384).
	Dimensions int
}

// Provider calls /pipeline/feature-extraction/<model>. Depending on the
// model the response is a vector per input or token-level vectors; the
// embedding client normalises either shape.
type Provider struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

type featureRequest struct {
	Inputs  []string       `json:"inputs"`
	Options featureOptions `json:"options"`
}

type featureOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// loadingResponse is returned with 503 while the model warms up.
type loadingResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// NewProvider creates a new Hugging Face embedding provider.
func NewProvider(cfg Config) *Provider {
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
	return &Provider{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// EmbedRaw returns the feature-extraction response body unchanged.
func (p *Provider) EmbedRaw(ctx context.Context, texts []string) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(featureRequest{Inputs: texts, Options: featureOptions{WaitForModel: true}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, driven.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, driven.NewTransportError(err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		var loading loadingResponse
		_ = json.Unmarshal(body, &loading)
		pe := driven.NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)), 0)
		if loading.EstimatedTime > 0 {
			pe.RetryAfter = time.Duration(loading.EstimatedTime * float64(time.Second))
		}
		return nil, pe
	}
	if resp.StatusCode != http.StatusOK {
		return nil, driven.NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)), 0)
	}
	return json.RawMessage(body), nil
}

func (p *Provider) endpoint() string {
	return p.baseURL + "/pipeline/feature-extraction/" + p.model
}

// MaxInputChars returns the per-text truncation limit.
func (p *Provider) MaxInputChars() int {
	return DefaultMaxInputChars
}

// MaxBatchSize returns the number of texts sent per request.
func (p *Provider) MaxBatchSize() int {
	return DefaultMaxBatchSize
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the model repository id.
func (p *Provider) ModelName() string {
	return p.model
}

// Ping embeds a single short text. The inference API has no cheaper
// health endpoint for a given model.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.EmbedRaw(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("huggingface: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
