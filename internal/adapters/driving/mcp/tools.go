package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// JobOutput is the wire form of a stored job posting.
type JobOutput struct {
	ID              string   `json:"id"`
	Title           string   `json:"job_title"`
	Domain          string   `json:"job_domain,omitempty"`
	Company         string   `json:"company,omitempty"`
	Location        string   `json:"location,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Skills          []string `json:"required_skills"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	EmploymentType  string   `json:"employment_type,omitempty"`
	SalaryRange     string   `json:"salary_range,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

// IngestInput is the input schema for the ingest_jobs tool.
type IngestInput struct {
	Jobs []map[string]any `json:"jobs" jsonschema:"job postings to store and index, e.g. {job_title, company, required_skills}"`
}

// IngestOutput is the output schema for the ingest_jobs tool.
type IngestOutput struct {
	Success             bool     `json:"success"`
	JobsProcessed       int      `json:"jobs_processed"`
	JobsStored          int      `json:"jobs_stored"`
	EmbeddingsGenerated int      `json:"embeddings_generated"`
	VectorsStored       int      `json:"vectors_stored"`
	JobIDs              []string `json:"job_ids"`
	SuccessfulJobIDs    []string `json:"successful_job_ids"`
	Error               string   `json:"error,omitempty"`
}

// SearchInput is the input schema for the search_jobs tool.
type SearchInput struct {
	Query   string            `json:"query" jsonschema:"free text describing the job or candidate profile to match"`
	Limit   int               `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"exact-match filters on location, company, domain, employment_type or experience_level"`
}

// SearchOutput is the output schema for the search_jobs tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is a single scored job.
type SearchResultOutput struct {
	Job   JobOutput `json:"job"`
	Score float64   `json:"score"`
}

// DeleteInput is the input schema for the delete_jobs tool.
type DeleteInput struct {
	JobIDs []string `json:"job_ids" jsonschema:"ids of the jobs to delete"`
}

// DeleteOutput is the output schema for the delete_jobs tool.
type DeleteOutput struct {
	Results []DeleteResultOutput `json:"results"`
	Deleted int                  `json:"deleted"`
}

// DeleteResultOutput reports the deletion of one job.
type DeleteResultOutput struct {
	JobID         string `json:"job_id"`
	Success       bool   `json:"success"`
	JobDeleted    bool   `json:"job_deleted"`
	VectorDeleted bool   `json:"vector_deleted"`
	Error         string `json:"error,omitempty"`
}

// ListInput is the input schema for the list_jobs tool.
type ListInput struct {
	Term  string `json:"term,omitempty" jsonschema:"case-insensitive term matched against title, company, location and skills"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of jobs to return (default all)"`
}

// ListOutput is the output schema for the list_jobs tool.
type ListOutput struct {
	Jobs  []JobOutput `json:"jobs"`
	Count int         `json:"count"`
	Total int         `json:"total"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_jobs",
		Description: "Store job postings and index their embeddings for similarity search",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_jobs",
		Description: "Find the job postings most similar to a free-text query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_jobs",
		Description: "Delete job postings and their vectors by id",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_jobs",
		Description: "List stored job postings, newest first",
	}, s.handleList)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if len(input.Jobs) == 0 {
		return nil, IngestOutput{}, errors.New("jobs must not be empty")
	}

	records := make([]domain.Record, len(input.Jobs))
	for i, fields := range input.Jobs {
		records[i] = domain.RecordFromFields(fields)
	}

	res := s.ports.Ingest.Ingest(ctx, domain.RecordList(records))
	logger.Debug("mcp: ingest_jobs stored=%d indexed=%d", res.JobsStored, res.VectorsStored)

	return nil, IngestOutput{
		Success:             res.Success,
		JobsProcessed:       res.JobsProcessed,
		JobsStored:          res.JobsStored,
		EmbeddingsGenerated: res.EmbeddingsGenerated,
		VectorsStored:       res.VectorsStored,
		JobIDs:              nonNil(res.RecordIDs),
		SuccessfulJobIDs:    nonNil(res.SuccessfulRecordIDs),
		Error:               res.Error,
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{Limit: input.Limit}
	if len(input.Filters) > 0 {
		opts.Filters = domain.PayloadFilter(input.Filters)
	}

	res := s.ports.Search.Search(ctx, input.Query, opts)
	if !res.Success {
		return nil, SearchOutput{}, fmt.Errorf("search failed: %s", res.Error)
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(res.Jobs)),
		Count:   res.Count,
	}
	for i := range res.Jobs {
		output.Results[i] = SearchResultOutput{
			Job:   toJobOutput(res.Jobs[i]),
			Score: res.Scores[i],
		}
	}

	return nil, output, nil
}

func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if len(input.JobIDs) == 0 {
		return nil, DeleteOutput{}, errors.New("job_ids must not be empty")
	}

	outcome := s.ports.Delete.Delete(ctx, domain.ManyIDs(input.JobIDs))

	results := outcome.Results()
	output := DeleteOutput{Results: make([]DeleteResultOutput, len(results))}
	for i, r := range results {
		output.Results[i] = DeleteResultOutput{
			JobID:         r.RecordID,
			Success:       r.Success,
			JobDeleted:    r.RecordDeleted,
			VectorDeleted: r.VectorDeleted,
			Error:         r.Error,
		}
		if r.RecordDeleted {
			output.Deleted++
		}
	}

	return nil, output, nil
}

func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	output := ListOutput{Jobs: []JobOutput{}}
	if s.ports.Records == nil {
		return nil, output, nil
	}

	var (
		records []domain.Record
		err     error
	)
	if strings.TrimSpace(input.Term) != "" {
		records, err = s.ports.Records.Find(ctx, input.Term)
	} else {
		records, err = s.ports.Records.List(ctx)
	}
	if err != nil {
		return nil, ListOutput{}, fmt.Errorf("listing jobs: %w", err)
	}

	output.Total = len(records)
	if input.Limit > 0 && len(records) > input.Limit {
		records = records[:input.Limit]
	}
	for i := range records {
		output.Jobs = append(output.Jobs, toJobOutput(records[i]))
	}
	output.Count = len(output.Jobs)

	return nil, output, nil
}

func toJobOutput(r domain.Record) JobOutput {
	out := JobOutput{
		ID:              r.ID,
		Title:           r.Title,
		Domain:          r.Domain,
		Company:         r.Company,
		Location:        r.Location,
		Summary:         r.Summary,
		Skills:          nonNil(r.Skills),
		ExperienceLevel: r.ExperienceLevel,
		EmploymentType:  r.EmploymentType,
		SalaryRange:     r.SalaryRange,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
