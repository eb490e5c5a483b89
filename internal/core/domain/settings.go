package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHuggingFace is the Hugging Face inference API.
	AIProviderHuggingFace AIProvider = "huggingface"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHuggingFace:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderHuggingFace
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHuggingFace:
		return "Hugging Face Inference (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies a record store or vector index implementation.
type StoreBackend string

// Available storage backends.
const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendQdrant   StoreBackend = "qdrant"
)

// IsValidRecordStore returns true if the backend can hold records.
func (b StoreBackend) IsValidRecordStore() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendPostgres:
		return true
	default:
		return false
	}
}

// IsValidVectorIndex returns true if the backend can hold vectors.
func (b StoreBackend) IsValidVectorIndex() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendPostgres, StoreBackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for OpenAI/Hugging Face).
	APIKey string

	// Dimensions overrides the model's known dimension when non-zero.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// EffectiveDimensions returns the configured dimension or the known
// dimension for the model. Zero means unknown.
func (e EmbeddingSettings) EffectiveDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHuggingFace {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RecordStoreSettings holds record store configuration.
type RecordStoreSettings struct {
	// Backend is memory, sqlite or postgres.
	Backend StoreBackend

	// Path is the SQLite data directory.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend is memory, sqlite, postgres or qdrant.
	Backend StoreBackend

	// URL is the Qdrant endpoint.
	URL string

	// APIKey is the Qdrant API key.
	APIKey string

	// Collection is the collection (or table) name.
	Collection string

	// Path is the SQLite data directory.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string
}

// PipelineSettings tunes the ingestion and search pipeline.
type PipelineSettings struct {
	// MaxRetries bounds embedding attempts per chunk.
	MaxRetries int

	// RetryDelay is the wait between embedding attempts.
	RetryDelay time.Duration

	// BatchDelay is the minimum gap between embedding chunks.
	BatchDelay time.Duration

	// GenerationAttempts bounds the generate-and-ingest loop.
	GenerationAttempts int

	// ReplaceOnUpsert deletes existing points for a record before indexing it.
	ReplaceOnUpsert bool

	// SearchLimit is the default number of search results.
	SearchLimit int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// RecordStore holds record store settings.
	RecordStore RecordStoreSettings

	// VectorIndex holds vector index settings.
	VectorIndex VectorIndexSettings

	// Pipeline holds pipeline tuning.
	Pipeline PipelineSettings
}

// Default collection name for job vectors.
const DefaultCollection = "jobs"

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; storage defaults to local SQLite.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		RecordStore: RecordStoreSettings{
			Backend: StoreBackendSQLite,
		},
		VectorIndex: VectorIndexSettings{
			Backend:    StoreBackendSQLite,
			Collection: DefaultCollection,
		},
		Pipeline: PipelineSettings{
			MaxRetries:         3,
			RetryDelay:         2 * time.Second,
			BatchDelay:         100 * time.Millisecond,
			GenerationAttempts: 3,
			SearchLimit:        DefaultSearchLimit,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderHuggingFace,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:      "nomic-embed-text",
		AIProviderOpenAI:      "text-embedding-3-small",
		AIProviderHuggingFace: "sentence-transformers/all-MiniLM-L6-v2",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Hugging Face models
		"sentence-transformers/all-MiniLM-L6-v2":  384,
		"sentence-transformers/all-mpnet-base-v2": 768,
		"BAAI/bge-small-en-v1.5":                  384,
	}
}
