package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

func TestIndexInfo(t *testing.T) {
	setupTestServices(t, nil)
	ingestSamples(t)

	out, err := runCLI(t, "", "index", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Collection: "+domain.DefaultCollection)
	assert.Contains(t, out, "Dimensions: 256")
	assert.Contains(t, out, "Vectors:    3")
	assert.Contains(t, out, "Jobs:       3")
	assert.NotContains(t, out, "not indexed")
}

func TestIndexInfo_JSON(t *testing.T) {
	setupTestServices(t, nil)

	out, err := runCLI(t, "", "index", "info", "--json")
	require.NoError(t, err)

	var got indexSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, indexSummary{
		Collection: domain.DefaultCollection,
		Dimensions: testDims,
		Distance:   "cosine",
	}, got)
}
