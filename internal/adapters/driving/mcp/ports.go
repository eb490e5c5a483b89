package mcp

import (
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Search runs similarity search over indexed jobs.
	Search driving.SearchService

	// Ingest stores and indexes job postings.
	Ingest driving.IngestionService

	// Delete removes jobs from both stores.
	Delete driving.DeletionService

	// Records provides read access for list_jobs and resources.
	// Optional: without it list_jobs returns nothing.
	Records driving.RecordService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Search == nil:
		return ErrMissingSearchService
	case p.Ingest == nil:
		return ErrMissingIngestionService
	case p.Delete == nil:
		return ErrMissingDeletionService
	}
	return nil
}
