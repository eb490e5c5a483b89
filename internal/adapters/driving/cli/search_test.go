package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

func TestSearchCmd_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"limit", "n", "0"},
		{"resume", "r", ""},
		{"filter", "f", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := searchCmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func searchJSON(t *testing.T, args ...string) domain.SearchResult {
	t.Helper()
	out, err := runCLI(t, "", append([]string{"search", "--json"}, args...)...)
	require.NoError(t, err, out)

	var res domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.Success)
	return res
}

func TestSearchCmd_RanksBestMatchFirst(t *testing.T) {
	setupTestServices(t, nil)
	ingestSamples(t)

	out, err := runCLI(t, "", "search", "Go", "Kubernetes", "backend")
	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Backend Engineer")
	assert.Contains(t, out, "Acme, Berlin")

	res := searchJSON(t, "Go Kubernetes backend")
	require.Equal(t, 3, res.Count)
	assert.Equal(t, "Backend Engineer", res.Jobs[0].Title)
	assert.IsNonIncreasing(t, res.Scores)
}

func TestSearchCmd_LimitAndFilter(t *testing.T) {
	setupTestServices(t, nil)
	ingestSamples(t)

	limited := searchJSON(t, "-n", "1", "Build services")
	assert.Equal(t, 1, limited.Count)

	berlin := searchJSON(t, "--filter", "location=Berlin", "Build")
	require.Equal(t, 2, berlin.Count)
	for _, job := range berlin.Jobs {
		assert.Equal(t, "Berlin", job.Location)
	}
}

func TestSearchCmd_EmptyIndex(t *testing.T) {
	setupTestServices(t, nil)

	out, err := runCLI(t, "", "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching jobs found.")
}

func TestSearchCmd_QueryValidation(t *testing.T) {
	setupTestServices(t, nil)

	_, err := runCLI(t, "", "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a query or --resume is required")

	_, err = runCLI(t, "", "search", "go", "--resume", "cv.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSearchCmd_ResumeRawText(t *testing.T) {
	setupTestServices(t, nil)
	ingestSamples(t)
	cv := writeFile(t, "cv.md", "# Jane Doe\n\nPython, statistics and churn modelling.")

	res := searchJSON(t, "--resume", cv)
	require.NotZero(t, res.Count)
	assert.Equal(t, "Data Scientist", res.Jobs[0].Title)
}

func TestSearchCmd_ResumeParsedByLLM(t *testing.T) {
	llm := &scriptedLLM{response: `{"name": "Jane", "skills": ["TypeScript", "React"]}`}
	setupTestServices(t, llm)
	ingestSamples(t)
	cv := writeFile(t, "cv.txt", "Jane, frontend person")

	res := searchJSON(t, "--resume", cv)
	require.NotZero(t, res.Count)
	assert.Equal(t, "Frontend Developer", res.Jobs[0].Title)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Jane, frontend person")
}

func TestSearchCmd_ResumeUnsupportedType(t *testing.T) {
	setupTestServices(t, nil)
	cv := writeFile(t, "cv.pdf", "%PDF-1.4")

	_, err := runCLI(t, "", "search", "--resume", cv)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
