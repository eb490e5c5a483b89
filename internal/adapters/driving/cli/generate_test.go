package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedJobs = "```json\n" + `[
  {"job_title": "Site Reliability Engineer", "job_domain": "DevOps", "required_skills": ["Kubernetes", "Terraform"]},
  {"job_title": "Platform Engineer", "job_domain": "DevOps", "required_skills": ["Go", "AWS"]}
]` + "\n```"

func TestGenerateCmd_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"per-domain", "n", "2"},
		{"domain", "d", "[]"},
		{"dry-run", "", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := generateCmd.Flags().Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestGenerateCmd_RequiresLLM(t *testing.T) {
	setupTestServices(t, nil)

	_, err := runCLI(t, "", "generate")
	assert.EqualError(t, err, "LLM not configured")
}

func TestGenerateCmd_SingleDomain(t *testing.T) {
	llm := &scriptedLLM{response: generatedJobs}
	env := setupTestServices(t, llm)

	out, err := runCLI(t, "", "generate", "-n", "2", "-d", "DevOps")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Generated 2 of 2 posting(s)")
	assert.Contains(t, out, "Domains: DevOps")
	assert.Contains(t, out, "Stored:  2")

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Generate 2 realistic job postings")
	assert.Contains(t, llm.prompts[0], "DevOps")

	n, err := env.records.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGenerateCmd_BatchesDefaultDomains(t *testing.T) {
	llm := &scriptedLLM{response: generatedJobs}
	setupTestServices(t, llm)

	out, err := runCLI(t, "", "generate", "-n", "4", "--json")
	require.NoError(t, err, out)

	var got generateSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 12, got.Requested)
	assert.Equal(t, 12, got.Stored)
	assert.Equal(t, 12, got.Indexed)
	assert.Len(t, got.RecordIDs, 12)
	assert.Zero(t, got.Failed)

	// Three domains, each split into batches of 3 and 1.
	require.Len(t, llm.prompts, 6)
	assert.Contains(t, llm.prompts[0], "Generate 3 realistic")
	assert.Contains(t, llm.prompts[0], "Software Engineering")
	assert.Contains(t, llm.prompts[1], "Generate 1 realistic")
	assert.Contains(t, llm.prompts[5], "DevOps")
}

func TestGenerateCmd_DryRun(t *testing.T) {
	llm := &scriptedLLM{response: generatedJobs}
	env := setupTestServices(t, llm)

	out, err := runCLI(t, "", "generate", "-d", "DevOps", "--dry-run", "--json")
	require.NoError(t, err, out)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 2)

	n, err := env.records.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n, "dry run stores nothing")
}

func TestGenerateCmd_UnusableResponse(t *testing.T) {
	llm := &scriptedLLM{response: "Sorry, I can't help with that."}
	setupTestServices(t, llm)

	out, err := runCLI(t, "", "generate", "-n", "1", "-d", "DevOps")
	require.EqualError(t, err, "no postings were generated")
	assert.Contains(t, out, "Error:")
	assert.Len(t, llm.prompts, 2, "each batch is retried up to the attempt limit")
}

func TestGenerateCmd_Validation(t *testing.T) {
	setupTestServices(t, &scriptedLLM{response: generatedJobs})

	_, err := runCLI(t, "", "generate", "--per-domain", "0")
	assert.EqualError(t, err, "--per-domain must be at least 1")
}
