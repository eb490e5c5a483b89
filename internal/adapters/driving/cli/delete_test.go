package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

func TestDeleteCmd_RemovesJobAndVectors(t *testing.T) {
	setupTestServices(t, nil)
	ids := ingestSamples(t)

	out, err := runCLI(t, "", "delete", ids[0])
	require.NoError(t, err, out)
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, "job: deleted, vectors: removed")

	_, err = runCLI(t, "", "jobs", "get", ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err = runCLI(t, "", "index", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Vectors:    2")
}

func TestDeleteCmd_JSONMirrorsSelection(t *testing.T) {
	setupTestServices(t, nil)
	ids := ingestSamples(t)

	out, err := runCLI(t, "", "delete", ids[0], "--json")
	require.NoError(t, err, out)
	var single domain.DeleteResult
	require.NoError(t, json.Unmarshal([]byte(out), &single))
	assert.Equal(t, ids[0], single.RecordID)
	assert.True(t, single.Success)

	out, err = runCLI(t, "", "delete", ids[1], ids[2], "--json")
	require.NoError(t, err, out)
	var many []domain.DeleteResult
	require.NoError(t, json.Unmarshal([]byte(out), &many))
	require.Len(t, many, 2)
	assert.Equal(t, ids[1], many[0].RecordID)
	assert.Equal(t, ids[2], many[1].RecordID)
}

func TestDeleteCmd_UnknownID(t *testing.T) {
	setupTestServices(t, nil)
	ids := ingestSamples(t)

	out, err := runCLI(t, "", "delete", ids[0], "no-such-job")
	require.EqualError(t, err, "deletion failed for 1 of 2 job(s)")
	assert.Contains(t, out, "no-such-job  job: not found, vectors: kept")
	assert.Contains(t, out, ids[0]+"  job: deleted")
}

func TestDeleteCmd_RemovesOneVectorPerCall(t *testing.T) {
	env := setupTestServices(t, nil)
	ids := ingestSamples(t)

	duplicate := make([]float32, testDims)
	duplicate[0] = 1
	require.NoError(t, env.vectors.Upsert(t.Context(), []domain.IndexedPoint{{
		PointID: "duplicate-point",
		Vector:  duplicate,
		Payload: map[string]any{domain.PayloadRecordID: ids[0]},
	}}))

	out, err := runCLI(t, "", "delete", ids[0])
	require.NoError(t, err, out)

	left, err := env.vectors.Scroll(t.Context(), domain.PayloadFilter{domain.PayloadRecordID: ids[0]}, 0)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestDeleteCmd_HelpDescribesFailures(t *testing.T) {
	out, err := runCLI(t, "", "delete", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "removes one vector")
	assert.Contains(t, out, "exits with an error")
	assert.NotContains(t, out, "succeeds")
}

func TestDeleteCmd_Validation(t *testing.T) {
	setupTestServices(t, nil)

	_, err := runCLI(t, "", "delete")
	assert.ErrorContains(t, err, "requires at least 1 arg(s)")

	SetServices(&Services{})
	_, err = runCLI(t, "", "delete", "x")
	assert.ErrorContains(t, err, "deletion service")
}
