package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// Default embedding client tuning.
const (
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultBatchDelay    = 100 * time.Millisecond
	DefaultMaxRetryDelay = time.Minute
)

// EmbeddingClientConfig tunes retries and pacing.
type EmbeddingClientConfig struct {
	// MaxRetries bounds attempts per chunk. Default: 3.
	MaxRetries int

	// RetryDelay is the wait between attempts when the provider gives no hint.
	// Zero means DefaultRetryDelay; negative means no wait.
	RetryDelay time.Duration

	// MaxRetryDelay caps provider-signalled waits.
	MaxRetryDelay time.Duration

	// BatchDelay is the minimum gap between chunk requests.
	// Zero means DefaultBatchDelay; negative disables pacing.
	BatchDelay time.Duration
}

// EmbeddingClient turns texts into fixed-length vectors through an
// EmbeddingProvider. It truncates, batches, retries and normalises the
// provider's response shape. A call either returns one vector per
// non-blank input or fails as a whole.
type EmbeddingClient struct {
	provider driven.EmbeddingProvider
	config   EmbeddingClientConfig
	limiter  *rate.Limiter
}

// NewEmbeddingClient creates a client for the provider.
func NewEmbeddingClient(provider driven.EmbeddingProvider, cfg EmbeddingClientConfig) *EmbeddingClient {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}

	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}

	return &EmbeddingClient{
		provider: provider,
		config:   cfg,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Dimensions returns the deployment's vector length.
func (c *EmbeddingClient) Dimensions() int {
	return c.provider.Dimensions()
}

// ModelName returns the provider's model.
func (c *EmbeddingClient) ModelName() string {
	return c.provider.ModelName()
}

// EmbedOne embeds a single text.
func (c *EmbeddingClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Embed returns one vector per non-blank input, in input order.
// Blank inputs are dropped before the provider is called.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrInvalidInput)
	}

	filtered := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: all texts are blank", domain.ErrInvalidInput)
	}
	if dropped := len(texts) - len(filtered); dropped > 0 {
		logger.Debug("Embedding: dropped %d blank inputs", dropped)
	}

	batchSize := c.provider.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = len(filtered)
	}

	result := make([][]float32, 0, len(filtered))
	for start := 0; start < len(filtered); start += batchSize {
		end := min(start+batchSize, len(filtered))

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
		}

		logger.Debug("Embedding chunk %d-%d of %d (%s)", start, end, len(filtered), c.provider.ModelName())
		vectors, err := c.embedChunk(ctx, filtered[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}

	return result, nil
}

// embedChunk sends one chunk with bounded retries. A client error gets
// one extra attempt with the truncation limit halved.
func (c *EmbeddingClient) embedChunk(ctx context.Context, chunk []string) ([][]float32, error) {
	limit := c.provider.MaxInputChars()
	reformulated := false

	var lastErr error
	attempts := 0
	for attempts < c.config.MaxRetries {
		attempts++

		raw, err := c.provider.EmbedRaw(ctx, truncateAll(chunk, limit))
		if err == nil {
			vectors, shapeErr := normaliseEmbeddings(raw, len(chunk))
			if shapeErr != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, shapeErr)
			}
			return vectors, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, ctx.Err())
		}

		var pe *driven.ProviderError
		if errors.As(err, &pe) && pe.IsClientError() {
			if reformulated {
				break
			}
			reformulated = true
			if limit <= 1 {
				break
			}
			limit /= 2
			attempts--
			logger.Warn("Embedding rejected (%v), retrying with %d-char limit", err, limit)
			continue
		}

		if attempts >= c.config.MaxRetries {
			break
		}

		delay := c.retryDelay(pe)
		logger.Warn("Embedding attempt %d/%d failed: %v (retrying in %s)", attempts, c.config.MaxRetries, err, delay)
		if err := sleepContext(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
		}
	}

	return nil, fmt.Errorf("%w: after %d attempts: %v", domain.ErrEmbeddingProvider, attempts, lastErr)
}

func (c *EmbeddingClient) retryDelay(pe *driven.ProviderError) time.Duration {
	if pe != nil && pe.RetryAfter > 0 {
		return min(pe.RetryAfter, c.config.MaxRetryDelay)
	}
	if c.config.RetryDelay < 0 {
		return 0
	}
	return c.config.RetryDelay
}

func truncateAll(texts []string, limit int) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = truncateRunes(t, limit)
	}
	return out
}

// truncateRunes cuts s to at most limit characters.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
