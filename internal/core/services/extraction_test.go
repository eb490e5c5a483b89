package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

const twoJobsResponse = "```json\n" + `[
  {"id": "llm-made-up", "job_title": "Site Reliability Engineer", "job_domain": "DevOps",
   "required_skills": ["Kubernetes", "Go"], "location": "Remote", "team_size": 6},
  {"job_title": "", "summary": ""},
  {"job_title": "ML Engineer", "job_domain": "Data Science", "required_skills": "PyTorch"}
]` + "\n```"

func TestExtractionService_Unavailable(t *testing.T) {
	svc := NewExtractionService(nil, nil, nil, 0)

	assert.False(t, svc.Available())
	_, err := svc.ExtractJobs(context.Background(), "some text")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	_, err = svc.ExtractResume(context.Background(), "some text")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestExtractionService_ExtractJobs(t *testing.T) {
	llm := &fakeLLM{responses: []string{twoJobsResponse}}
	svc := NewExtractionService(llm, nil, nil, 0)

	records, err := svc.ExtractJobs(context.Background(), "We are hiring an SRE and an ML engineer.")
	require.NoError(t, err)

	require.Len(t, records, 2, "blank items are dropped")
	assert.Empty(t, records[0].ID, "model-supplied ids are discarded")
	assert.Equal(t, "Site Reliability Engineer", records[0].Title)
	assert.Equal(t, []string{"Kubernetes", "Go"}, records[0].Skills)
	assert.Equal(t, 6.0, records[0].Metadata["team_size"])
	assert.Equal(t, []string{"PyTorch"}, records[1].Skills)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "We are hiring an SRE")
	assert.Contains(t, llm.opts[0].System, "JSON")
	assert.Equal(t, 4096, llm.opts[0].MaxTokens)
}

func TestExtractionService_ExtractJobs_Errors(t *testing.T) {
	svc := NewExtractionService(&fakeLLM{responses: []string{"no jobs here"}}, nil, nil, 0)

	_, err := svc.ExtractJobs(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ExtractJobs(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	failing := NewExtractionService(&fakeLLM{errs: []error{domain.ErrRateLimited}}, nil, nil, 0)
	_, err = failing.ExtractJobs(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestExtractionService_GenerateJobs_FormatsPrompt(t *testing.T) {
	llm := &fakeLLM{responses: []string{twoJobsResponse}}
	svc := NewExtractionService(llm, nil, nil, 0)

	records, err := svc.GenerateJobs(context.Background(), 3, []string{"DevOps", "Data Science"})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Generate 3 realistic job postings")
	assert.Contains(t, llm.prompts[0], "DevOps, Data Science")
	assert.NotContains(t, llm.prompts[0], "{{")
}

func TestExtractionService_GenerateJobs_Validation(t *testing.T) {
	svc := NewExtractionService(&fakeLLM{}, nil, nil, 0)

	_, err := svc.GenerateJobs(context.Background(), 0, []string{"DevOps"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.GenerateJobs(context.Background(), 2, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractionService_UsesPromptStore(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"name": "Ada"}`}}
	prompts := fakePrompts{driven.PromptResumeExtraction: "CUSTOM RESUME PROMPT"}
	svc := NewExtractionService(llm, prompts, nil, 0)

	resume, err := svc.ExtractResume(context.Background(), "Ada Lovelace, mathematician")
	require.NoError(t, err)
	assert.Equal(t, "Ada", resume.Name)

	// A template without a verb still receives the text.
	assert.Equal(t, "CUSTOM RESUME PROMPT\n\nAda Lovelace, mathematician", llm.prompts[0])
}

func TestExtractionService_PromptStoreFallsBack(t *testing.T) {
	llm := &fakeLLM{responses: []string{`[]`}}
	svc := NewExtractionService(llm, fakePrompts{}, nil, 0)

	_, err := svc.ExtractJobs(context.Background(), "text")
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "Extract every job posting")
}

func TestExtractionService_ExtractResume(t *testing.T) {
	llm := &fakeLLM{responses: []string{`Here is the profile:
{"name": "Grace Hopper", "email": "grace@example.com", "skills": ["COBOL", "Compilers"],
 "experience": [{"title": "Rear Admiral", "company": "US Navy", "description": "Led programming"}],
 "education": [{"degree": "PhD Mathematics", "institution": "Yale"}],
 "projects": ["FLOW-MATIC"]}`}}
	svc := NewExtractionService(llm, nil, nil, 0)

	resume, err := svc.ExtractResume(context.Background(), "resume text")
	require.NoError(t, err)

	assert.Equal(t, "Grace Hopper", resume.Name)
	assert.Equal(t, []string{"COBOL", "Compilers"}, resume.Skills)
	require.Len(t, resume.Experience, 1)
	assert.Equal(t, "US Navy", resume.Experience[0].Company)
	require.Len(t, resume.Projects, 1)
	assert.Equal(t, "FLOW-MATIC", resume.Projects[0].Name)
	assert.Contains(t, resume.QueryText(), "Skills: COBOL, Compilers")
}

func TestExtractionService_ExtractResume_EmptyResponse(t *testing.T) {
	svc := NewExtractionService(&fakeLLM{responses: []string{`{"items": []}`}}, nil, nil, 0)

	_, err := svc.ExtractResume(context.Background(), "resume text")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractionService_GenerateAndIngest_RetriesUntilUsable(t *testing.T) {
	p := newTestPipeline(t, 32)
	llm := &fakeLLM{
		errs:      []error{domain.ErrLLMUnavailable},
		responses: []string{"", "[]", twoJobsResponse},
	}
	svc := NewExtractionService(llm, nil, p.ingest, 3)

	result := svc.GenerateAndIngest(context.Background(), 2, []string{"DevOps"})

	require.True(t, result.Success, result.Error)
	assert.Len(t, llm.prompts, 3)
	assert.Equal(t, 2, result.JobsStored)
	assert.Equal(t, 2, result.VectorsStored)
}

func TestExtractionService_GenerateAndIngest_GivesUp(t *testing.T) {
	p := newTestPipeline(t, 32)
	llm := &fakeLLM{responses: []string{"I cannot do that."}}
	svc := NewExtractionService(llm, nil, p.ingest, 2)

	result := svc.GenerateAndIngest(context.Background(), 2, []string{"DevOps"})

	assert.False(t, result.Success)
	assert.Len(t, llm.prompts, 2)
	assert.Equal(t, domain.StageInput, domain.StageOf(result.Err))
	n, err := p.records.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExtractionService_GenerateAndIngest_RetriesFailedIngestion(t *testing.T) {
	p := newTestPipeline(t, 32)
	p.records.storeErr = errors.New("database locked")
	llm := &fakeLLM{responses: []string{twoJobsResponse}}
	svc := NewExtractionService(llm, nil, p.ingest, 2)

	result := svc.GenerateAndIngest(context.Background(), 1, []string{"DevOps"})

	assert.False(t, result.Success)
	assert.Equal(t, domain.StageStore, domain.StageOf(result.Err))
	assert.Len(t, llm.prompts, 2)
}

func TestExtractionService_GenerateAndIngest_NoIngestor(t *testing.T) {
	svc := NewExtractionService(&fakeLLM{}, nil, nil, 0)

	result := svc.GenerateAndIngest(context.Background(), 1, []string{"DevOps"})
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, domain.ErrInvalidInput)
}

func TestFormatPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "named placeholders",
			template: "Generate {{count}} jobs for {{domains}}",
			vars:     map[string]string{driven.PlaceholderCount: "2", driven.PlaceholderDomains: "Go"},
			want:     "Generate 2 jobs for Go",
		},
		{
			name:     "text appended without placeholder",
			template: "Header",
			vars:     map[string]string{driven.PlaceholderText: "body"},
			want:     "Header\n\nbody",
		},
		{
			name:     "literal percent kept",
			template: "100% remote roles only: {{text}}",
			vars:     map[string]string{driven.PlaceholderText: "50% travel"},
			want:     "100% remote roles only: 50% travel",
		},
		{
			name:     "unused count dropped",
			template: "Count",
			vars:     map[string]string{driven.PlaceholderCount: "3"},
			want:     "Count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPrompt(tt.template, tt.vars))
		})
	}
}
