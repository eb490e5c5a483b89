package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// envPrefix namespaces the environment overrides.
const envPrefix = "JOBMATCH_"

type lookupFunc func(key string) (string, bool)

// applyEnv overlays JOBMATCH_* variables on settings for a single run.
// Nothing is persisted. Malformed numbers are ignored and reported.
func applyEnv(s *domain.AppSettings, lookup lookupFunc) []string {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	var warnings []string

	strs := []struct {
		key string
		dst *string
	}{
		{"EMBEDDING_MODEL", &s.Embedding.Model},
		{"EMBEDDING_API_KEY", &s.Embedding.APIKey},
		{"EMBEDDING_BASE_URL", &s.Embedding.BaseURL},
		{"LLM_MODEL", &s.LLM.Model},
		{"LLM_API_KEY", &s.LLM.APIKey},
		{"LLM_BASE_URL", &s.LLM.BaseURL},
		{"RECORD_STORE_PATH", &s.RecordStore.Path},
		{"RECORD_STORE_DSN", &s.RecordStore.DSN},
		{"VECTOR_INDEX_PATH", &s.VectorIndex.Path},
		{"VECTOR_INDEX_DSN", &s.VectorIndex.DSN},
		{"VECTOR_INDEX_URL", &s.VectorIndex.URL},
		{"VECTOR_INDEX_API_KEY", &s.VectorIndex.APIKey},
		{"COLLECTION", &s.VectorIndex.Collection},
	}

	if v, ok := get("EMBEDDING_PROVIDER"); ok {
		p := domain.AIProvider(strings.ToLower(v))
		if p != s.Embedding.Provider {
			s.Embedding.Provider = p
			s.Embedding.Model = domain.DefaultEmbeddingModels()[p]
			s.Embedding.Dimensions = 0
		}
	}
	if v, ok := get("LLM_PROVIDER"); ok {
		p := domain.AIProvider(strings.ToLower(v))
		if p != s.LLM.Provider {
			s.LLM.Provider = p
			s.LLM.Model = domain.DefaultLLMModels()[p]
		}
	}
	if v, ok := get("RECORD_STORE"); ok {
		s.RecordStore.Backend = domain.StoreBackend(strings.ToLower(v))
	}
	if v, ok := get("VECTOR_INDEX"); ok {
		s.VectorIndex.Backend = domain.StoreBackend(strings.ToLower(v))
	}
	for _, f := range strs {
		if v, ok := get(f.key); ok {
			*f.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"EMBEDDING_DIMENSIONS", &s.Embedding.Dimensions},
		{"MAX_RETRIES", &s.Pipeline.MaxRetries},
		{"GENERATION_ATTEMPTS", &s.Pipeline.GenerationAttempts},
		{"SEARCH_LIMIT", &s.Pipeline.SearchLimit},
	}
	for _, f := range ints {
		v, ok := get(f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			warnings = append(warnings, fmt.Sprintf("ignoring %s%s=%q: want a positive integer", envPrefix, f.key, v))
			continue
		}
		*f.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"RETRY_DELAY", &s.Pipeline.RetryDelay},
		{"BATCH_DELAY", &s.Pipeline.BatchDelay},
	}
	for _, f := range durations {
		v, ok := get(f.key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring %s%s=%q: %v", envPrefix, f.key, v, err))
			continue
		}
		*f.dst = d
	}

	if v, ok := get("REPLACE_ON_UPSERT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring %sREPLACE_ON_UPSERT=%q: want true or false", envPrefix, v))
		} else {
			s.Pipeline.ReplaceOnUpsert = b
		}
	}

	return warnings
}
