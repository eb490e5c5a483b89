package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHuggingFace} {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("cohere").Description())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderHuggingFace.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"huggingface with key", EmbeddingSettings{Provider: AIProviderHuggingFace, APIKey: "hf"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_EffectiveDimensions(t *testing.T) {
	assert.Equal(t, 1536, EmbeddingSettings{Model: "text-embedding-3-small"}.EffectiveDimensions())
	assert.Equal(t, 384, EmbeddingSettings{Model: "text-embedding-3-small", Dimensions: 384}.EffectiveDimensions())
	assert.Equal(t, 0, EmbeddingSettings{Model: "mystery"}.EffectiveDimensions())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHuggingFace, APIKey: "k"}.IsConfigured())
}

func TestStoreBackend_Validity(t *testing.T) {
	assert.True(t, StoreBackendSQLite.IsValidRecordStore())
	assert.False(t, StoreBackendQdrant.IsValidRecordStore())
	assert.True(t, StoreBackendQdrant.IsValidVectorIndex())
	assert.False(t, StoreBackend("redis").IsValidVectorIndex())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.False(t, s.Embedding.IsConfigured())
	assert.Equal(t, StoreBackendSQLite, s.RecordStore.Backend)
	assert.Equal(t, DefaultCollection, s.VectorIndex.Collection)
	assert.Equal(t, 3, s.Pipeline.MaxRetries)
	assert.Equal(t, 2*time.Second, s.Pipeline.RetryDelay)
	assert.Equal(t, 100*time.Millisecond, s.Pipeline.BatchDelay)
	assert.Equal(t, DefaultSearchLimit, s.Pipeline.SearchLimit)
}

func TestDefaultModels_HaveDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	for p, model := range DefaultEmbeddingModels() {
		assert.Contains(t, dims, model, p)
	}
	assert.Len(t, AllEmbeddingProviders(), 3)
	assert.Len(t, AllLLMProviders(), 3)
}
