package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyRecordBackend = "record_store.backend"
	keyRecordPath    = "record_store.path"
	keyRecordDSN     = "record_store.dsn"

	keyVectorBackend    = "vector_index.backend"
	keyVectorURL        = "vector_index.url"
	keyVectorAPIKey     = "vector_index.api_key"
	keyVectorCollection = "vector_index.collection"
	keyVectorPath       = "vector_index.path"
	keyVectorDSN        = "vector_index.dsn"

	keyMaxRetries         = "pipeline.max_retries"
	keyRetryDelayMS       = "pipeline.retry_delay_ms"
	keyBatchDelayMS       = "pipeline.batch_delay_ms"
	keyGenerationAttempts = "pipeline.generation_attempts"
	keyReplaceOnUpsert    = "pipeline.replace_on_upsert"
	keySearchLimit        = "pipeline.search_limit"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		RecordStore: domain.RecordStoreSettings{
			Backend: s.getBackend(keyRecordBackend, defaults.RecordStore.Backend, domain.StoreBackend.IsValidRecordStore),
			Path:    s.configStore.GetString(keyRecordPath),
			DSN:     s.configStore.GetString(keyRecordDSN),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:    s.getBackend(keyVectorBackend, defaults.VectorIndex.Backend, domain.StoreBackend.IsValidVectorIndex),
			URL:        s.configStore.GetString(keyVectorURL),
			APIKey:     s.configStore.GetString(keyVectorAPIKey),
			Collection: s.getString(keyVectorCollection, defaults.VectorIndex.Collection),
			Path:       s.configStore.GetString(keyVectorPath),
			DSN:        s.configStore.GetString(keyVectorDSN),
		},
		Pipeline: domain.PipelineSettings{
			MaxRetries:         s.getInt(keyMaxRetries, defaults.Pipeline.MaxRetries),
			RetryDelay:         s.getMillis(keyRetryDelayMS, defaults.Pipeline.RetryDelay),
			BatchDelay:         s.getMillis(keyBatchDelayMS, defaults.Pipeline.BatchDelay),
			GenerationAttempts: s.getInt(keyGenerationAttempts, defaults.Pipeline.GenerationAttempts),
			ReplaceOnUpsert:    s.getBool(keyReplaceOnUpsert, defaults.Pipeline.ReplaceOnUpsert),
			SearchLimit:        s.getInt(keySearchLimit, defaults.Pipeline.SearchLimit),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyRecordBackend, settings.RecordStore.Backend.String()},
		{keyRecordPath, settings.RecordStore.Path},
		{keyRecordDSN, settings.RecordStore.DSN},
		{keyVectorBackend, settings.VectorIndex.Backend.String()},
		{keyVectorURL, settings.VectorIndex.URL},
		{keyVectorCollection, settings.VectorIndex.Collection},
		{keyVectorPath, settings.VectorIndex.Path},
		{keyVectorDSN, settings.VectorIndex.DSN},
		{keyMaxRetries, settings.Pipeline.MaxRetries},
		{keyRetryDelayMS, int(settings.Pipeline.RetryDelay / time.Millisecond)},
		{keyBatchDelayMS, int(settings.Pipeline.BatchDelay / time.Millisecond)},
		{keyGenerationAttempts, settings.Pipeline.GenerationAttempts},
		{keyReplaceOnUpsert, settings.Pipeline.ReplaceOnUpsert},
		{keySearchLimit, settings.Pipeline.SearchLimit},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so a blank form never erases them.
	secrets := map[string]string{
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyLLMAPIKey:    settings.LLM.APIKey,
		keyVectorAPIKey: settings.VectorIndex.APIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	// A model change invalidates an explicit dimension override.
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetRecordStore selects the record store backend. location is a file
// path for SQLite and a DSN for PostgreSQL.
func (s *SettingsService) SetRecordStore(backend domain.StoreBackend, location string) error {
	if !backend.IsValidRecordStore() {
		return fmt.Errorf("invalid record store backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.RecordStore.Backend = backend
	switch backend {
	case domain.StoreBackendSQLite:
		settings.RecordStore.Path = location
	case domain.StoreBackendPostgres:
		if location == "" {
			return fmt.Errorf("DSN required for %s", backend)
		}
		settings.RecordStore.DSN = location
	}

	return s.Save(settings)
}

// SetVectorIndex selects the vector index backend. location is a URL
// for Qdrant, a DSN for PostgreSQL and a file path for SQLite.
func (s *SettingsService) SetVectorIndex(backend domain.StoreBackend, location, collection string) error {
	if !backend.IsValidVectorIndex() {
		return fmt.Errorf("invalid vector index backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.VectorIndex.Backend = backend
	switch backend {
	case domain.StoreBackendQdrant:
		if location == "" {
			return fmt.Errorf("URL required for %s", backend)
		}
		settings.VectorIndex.URL = location
	case domain.StoreBackendPostgres:
		// Empty reuses the record store DSN.
		settings.VectorIndex.DSN = location
	case domain.StoreBackendSQLite:
		settings.VectorIndex.Path = location
	}
	if collection != "" {
		settings.VectorIndex.Collection = collection
	}

	return s.Save(settings)
}

// Validate checks that the settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider is not configured")
	}
	if settings.Embedding.EffectiveDimensions() <= 0 {
		return fmt.Errorf("unknown dimension for embedding model %q: set %s", settings.Embedding.Model, keyEmbedDimensions)
	}
	if settings.RecordStore.Backend == domain.StoreBackendPostgres && settings.RecordStore.DSN == "" {
		return fmt.Errorf("record store %s requires %s", settings.RecordStore.Backend, keyRecordDSN)
	}
	switch settings.VectorIndex.Backend {
	case domain.StoreBackendQdrant:
		if settings.VectorIndex.URL == "" {
			return fmt.Errorf("vector index %s requires %s", settings.VectorIndex.Backend, keyVectorURL)
		}
	case domain.StoreBackendPostgres:
		if settings.VectorIndex.DSN == "" && settings.RecordStore.DSN == "" {
			return fmt.Errorf("vector index %s requires %s", settings.VectorIndex.Backend, keyVectorDSN)
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(
	key string, defaultVal domain.StoreBackend, valid func(domain.StoreBackend) bool,
) domain.StoreBackend {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	backend := domain.StoreBackend(val)
	if !valid(backend) {
		return defaultVal
	}
	return backend
}
