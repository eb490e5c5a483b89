package driven

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// LLMService provides language model operations for structured extraction
// and synthetic job generation. This is an optional service - when nil,
// only JSON ingestion is available.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is an optional system instruction sent ahead of the prompt.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// LLMStatusError classifies a failed LLM HTTP response. 429 maps to
// domain.ErrRateLimited and 5xx to domain.ErrLLMUnavailable.
func LLMStatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s status %d: %s", domain.ErrRateLimited, provider, status, msg)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s status %d: %s", domain.ErrLLMUnavailable, provider, status, msg)
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, status, msg)
	}
}

// LLMTransportError wraps a network failure as domain.ErrLLMUnavailable.
func LLMTransportError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrLLMUnavailable, provider, err)
}
