package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for jobmatch resources.
	uriScheme = "jobmatch://"

	indexInfoURI = uriScheme + "index/info"
)

// IndexInfo is the body of the index info resource.
type IndexInfo struct {
	Collection string `json:"collection"`
	Dimensions int    `json:"dimensions"`
	Distance   string `json:"distance"`
	Vectors    int    `json:"vectors"`
	Jobs       int    `json:"jobs"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         indexInfoURI,
		Name:        "index-info",
		Description: "Vector collection name, dimensions, distance and counts",
		MIMEType:    "application/json",
	}, s.handleIndexInfoResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "jobs/{jobId}",
		Name:        "job",
		Description: "A single stored job posting",
		MIMEType:    "application/json",
	}, s.handleJobResource)
}

func (s *Server) handleIndexInfoResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, err := s.ports.Records.IndexInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}
	count, err := s.ports.Records.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}

	return jsonResource(req.Params.URI, IndexInfo{
		Collection: info.Name,
		Dimensions: info.Dimensions,
		Distance:   info.Distance,
		Vectors:    info.Points,
		Jobs:       count,
	})
}

func (s *Server) handleJobResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// jobmatch://jobs/{jobId}
	id := extractJobID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Records.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}

	return jsonResource(req.Params.URI, record)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractJobID extracts the job ID from a URI like jobmatch://jobs/{jobId}.
func extractJobID(uri string) string {
	const prefix = uriScheme + "jobs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
