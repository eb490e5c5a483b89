package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(Config{})
	assert.Equal(t, DefaultModel, p.ModelName())
	assert.Equal(t, DefaultDimensions, p.Dimensions())
	assert.Equal(t, DefaultMaxBatchSize, p.MaxBatchSize())
	assert.Equal(t, DefaultMaxInputChars, p.MaxInputChars())
}

func TestEmbedRaw_ReturnsEmbeddings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, []string{"a", "b"}, req.Input)
		_, _ = w.Write([]byte(`{"model":"all-minilm","embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL, Model: "all-minilm", Dimensions: 2})
	raw, err := p.EmbedRaw(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `[[0.1,0.2],[0.3,0.4]]`, string(raw))
}

func TestEmbedRaw_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"input too long"}`))
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL})
	_, err := p.EmbedRaw(context.Background(), []string{"a"})

	var pe *driven.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.True(t, pe.IsClientError())
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, NewProvider(Config{BaseURL: server.URL}).Ping(context.Background()))
}
