package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.provider", "openai"))

	val, ok := store.Get("embedding.provider")
	assert.True(t, ok)
	assert.Equal(t, "openai", val)
	assert.Equal(t, 2, store.Saves())

	_, ok = store.Get("llm.provider")
	assert.False(t, ok)
}

func TestConfigStore_SeededValuesAreCopied(t *testing.T) {
	seed := map[string]any{"pipeline.max_retries": 3}
	store := NewConfigStoreWith(seed)
	seed["pipeline.max_retries"] = 9

	assert.Equal(t, 3, store.GetInt("pipeline.max_retries"))
	assert.Zero(t, store.Saves())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreWith(map[string]any{
		"a.string":    "text",
		"a.int64":     int64(42),
		"a.float":     float64(7),
		"a.int_str":   " 12 ",
		"a.bool":      true,
		"a.bool_str":  "true",
		"a.bad_int":   "twelve",
		"a.strings":   []string{"go", "sql"},
		"a.anys":      []any{"go", 1, "sql"},
		"a.not_slice": "go",
	})

	assert.Equal(t, "text", store.GetString("a.string"))
	assert.Empty(t, store.GetString("a.int64"))
	assert.Equal(t, 42, store.GetInt("a.int64"))
	assert.Equal(t, 7, store.GetInt("a.float"))
	assert.Equal(t, 12, store.GetInt("a.int_str"))
	assert.Zero(t, store.GetInt("a.bad_int"))
	assert.True(t, store.GetBool("a.bool"))
	assert.True(t, store.GetBool("a.bool_str"))
	assert.False(t, store.GetBool("a.string"))
	assert.Equal(t, []string{"go", "sql"}, store.GetStringSlice("a.strings"))
	assert.Equal(t, []string{"go", "sql"}, store.GetStringSlice("a.anys"))
	assert.Nil(t, store.GetStringSlice("a.not_slice"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStoreWith(map[string]any{"llm.model": "x", "embedding.model": "y"})
	assert.Equal(t, []string{"embedding.model", "llm.model"}, store.Keys())
}

func TestConfigStore_NoopPersistence(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("pipeline.search_limit", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("pipeline.search_limit")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, store.Saves())
}
