package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

func TestJobsList(t *testing.T) {
	setupTestServices(t, nil)

	out, err := runCLI(t, "", "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs stored.")

	out, err = runCLI(t, "", "jobs", "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	ids := ingestSamples(t)

	out, err = runCLI(t, "", "jobs", "list")
	require.NoError(t, err)
	for _, id := range ids {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "Data Scientist")
	assert.Contains(t, out, "Globex, Remote")
	assert.Contains(t, out, "Total: 3 jobs")

	out, err = runCLI(t, "", "jobs", "list", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 3 jobs")

	out, err = runCLI(t, "", "jobs", "list", "--json")
	require.NoError(t, err)
	var records []domain.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 3)
}

func TestJobsGet(t *testing.T) {
	setupTestServices(t, nil)
	ids := ingestSamples(t)

	out, err := runCLI(t, "", "jobs", "get", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "ID:         "+ids[0])
	assert.Contains(t, out, "Company:    Acme")
	assert.Contains(t, out, "Location:   Berlin")
	assert.Contains(t, out, "Build Go services")
	assert.Contains(t, out, "    - Kubernetes")

	out, err = runCLI(t, "", "jobs", "get", ids[1], "--json")
	require.NoError(t, err)
	var job domain.Record
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, ids[1], job.ID)
	assert.Equal(t, []string{"Python", "Statistics"}, job.Skills)
}

func TestJobsGet_Missing(t *testing.T) {
	setupTestServices(t, nil)

	_, err := runCLI(t, "", "jobs", "get", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorContains(t, err, "failed to get job")
}

func TestJobsFind(t *testing.T) {
	setupTestServices(t, nil)
	ingestSamples(t)

	out, err := runCLI(t, "", "jobs", "find", "berlin")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "Frontend Developer")
	assert.NotContains(t, out, "Data Scientist")
	assert.Contains(t, out, "Total: 2 jobs")

	out, err = runCLI(t, "", "jobs", "find", "cobol")
	require.NoError(t, err)
	assert.Contains(t, out, `No jobs match "cobol".`)
}

func TestJobsCmd_NotConfigured(t *testing.T) {
	SetServices(&Services{})
	t.Cleanup(func() { SetServices(&Services{}) })

	_, err := runCLI(t, "", "jobs", "list")
	assert.ErrorContains(t, err, "record service")
}
