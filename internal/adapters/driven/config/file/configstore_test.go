package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	store, err := NewConfigStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".jobmatch", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestConfigStore_SetPersistsNestedTables(t *testing.T) {
	store, dir := newTestConfigStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.dimensions", 768))
	require.NoError(t, store.Set("pipeline.replace_on_upsert", true))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Contains(t, string(data), "[pipeline]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reloaded.GetString("embedding.provider"))
	assert.Equal(t, 768, reloaded.GetInt("embedding.dimensions"))
	assert.True(t, reloaded.GetBool("pipeline.replace_on_upsert"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[vector_index]
backend = "qdrant"
url = "http://qdrant:6333"

[pipeline]
max_retries = "5"
replace_on_upsert = "true"
search_limit = 20.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "qdrant", store.GetString("vector_index.backend"))
	assert.Equal(t, "http://qdrant:6333", store.GetString("vector_index.url"))
	assert.Equal(t, 5, store.GetInt("pipeline.max_retries"))
	assert.True(t, store.GetBool("pipeline.replace_on_upsert"))
	assert.Equal(t, 20, store.GetInt("pipeline.search_limit"))
}

func TestConfigStore_MissingAndMistypedValues(t *testing.T) {
	store, _ := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "llama3"))

	_, ok := store.Get("llm.provider")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("llm.provider"))
	assert.Zero(t, store.GetInt("llm.model"))
	assert.False(t, store.GetBool("llm.model"))
	assert.Nil(t, store.GetStringSlice("llm.model"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store, dir := newTestConfigStore(t)
	require.NoError(t, store.Set("search.fields", []string{"title", "company"}))

	assert.Equal(t, []string{"title", "company"}, store.GetStringSlice("search.fields"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "company"}, reloaded.GetStringSlice("search.fields"))
}

func TestConfigStore_Keys(t *testing.T) {
	store, _ := newTestConfigStore(t)
	assert.Empty(t, store.Keys())

	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	assert.Equal(t, []string{"embedding.model", "embedding.provider", "llm.provider"}, store.Keys())
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[broken"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestNestMap_InverseOfFlatten(t *testing.T) {
	flat := map[string]any{
		"embedding.provider": "openai",
		"embedding.model":    "text-embedding-3-small",
		"version":            int64(1),
	}

	nested := nestMap(flat)
	assert.Equal(t, "openai", nested["embedding"].(map[string]any)["provider"])
	assert.Equal(t, int64(1), nested["version"])
	assert.Equal(t, flat, flattenMap(nested, ""))
}
