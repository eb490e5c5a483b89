// Package mcp provides an MCP (Model Context Protocol) server adapter for jobmatch.
// It lets AI assistants ingest, search, list and delete job postings.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingIngestionService is returned when the ingestion service is not provided.
	ErrMissingIngestionService = errors.New("mcp: ingestion service is required")

	// ErrMissingDeletionService is returned when the deletion service is not provided.
	ErrMissingDeletionService = errors.New("mcp: deletion service is required")
)
