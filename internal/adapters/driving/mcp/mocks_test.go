package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	result    domain.SearchResult
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) domain.SearchResult {
	m.lastQuery = query
	m.lastOpts = opts
	return m.result
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result    domain.IngestResult
	lastBatch domain.RecordBatch
}

func (m *mockIngestionService) Ingest(_ context.Context, batch domain.RecordBatch) domain.IngestResult {
	m.lastBatch = batch
	return m.result
}

// mockDeletionService is a mock implementation of driving.DeletionService.
// Ids listed in missing report a record that was not found.
type mockDeletionService struct {
	missing map[string]bool
	lastIDs domain.IDSelection
}

func (m *mockDeletionService) Delete(_ context.Context, ids domain.IDSelection) domain.DeleteOutcome {
	m.lastIDs = ids
	var out domain.DeleteOutcome
	for _, id := range ids.IDs() {
		out.Many = append(out.Many, domain.DeleteResult{
			Success:       true,
			RecordID:      id,
			RecordDeleted: !m.missing[id],
			VectorDeleted: true,
		})
	}
	return out
}

// mockRecordService is a mock implementation of driving.RecordService.
type mockRecordService struct {
	records  []domain.Record
	info     *domain.CollectionInfo
	err      error
	lastTerm string
}

func (m *mockRecordService) Get(_ context.Context, id string) (*domain.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRecordService) List(_ context.Context) ([]domain.Record, error) {
	return m.records, m.err
}

func (m *mockRecordService) Find(_ context.Context, term string) ([]domain.Record, error) {
	m.lastTerm = term
	var out []domain.Record
	for _, r := range m.records {
		if r.Matches(term) {
			out = append(out, r)
		}
	}
	return out, m.err
}

func (m *mockRecordService) Count(_ context.Context) (int, error) {
	return len(m.records), m.err
}

func (m *mockRecordService) IndexInfo(_ context.Context) (*domain.CollectionInfo, error) {
	if m.info == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	return m.info, m.err
}

func sampleJobs() []domain.Record {
	return []domain.Record{
		{ID: "job-1", Title: "Backend Engineer", Company: "Acme", Location: "Berlin", Skills: []string{"Go", "SQL"}},
		{ID: "job-2", Title: "Data Scientist", Company: "Globex", Location: "Remote", Skills: []string{"Python"}},
	}
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Search == nil {
		ports.Search = &mockSearchService{}
	}
	if ports.Ingest == nil {
		ports.Ingest = &mockIngestionService{}
	}
	if ports.Delete == nil {
		ports.Delete = &mockDeletionService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}
