package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// Ensure SearchOrchestrator implements the interface.
var _ driving.SearchService = (*SearchOrchestrator)(nil)

// SearchOrchestrator embeds a query, searches the vector index and
// hydrates hits from the record store.
type SearchOrchestrator struct {
	store        driven.RecordStore
	embedder     *EmbeddingClient
	index        *CorrelatedIndex
	defaultLimit int
}

// NewSearchOrchestrator creates a search orchestrator.
// defaultLimit applies when a search passes no limit.
func NewSearchOrchestrator(
	store driven.RecordStore,
	embedder *EmbeddingClient,
	index *CorrelatedIndex,
	defaultLimit int,
) *SearchOrchestrator {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultSearchLimit
	}
	return &SearchOrchestrator{
		store:        store,
		embedder:     embedder,
		index:        index,
		defaultLimit: defaultLimit,
	}
}

// Search returns records ranked by similarity to the query text.
func (s *SearchOrchestrator) Search(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchResult {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", truncateRunes(query, 120))

	if strings.TrimSpace(query) == "" {
		return failSearch(domain.StageInput, fmt.Errorf("%w: empty query", domain.ErrInvalidInput))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if len(opts.Filters) > 0 {
		logger.Debug("Filters: %v", opts.Filters)
	}

	vector, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return failSearch(domain.StageEmbedding, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	hits, err := s.index.Search(ctx, vector, limit, opts.Filters)
	if err != nil {
		logger.Warn("Vector index search failed: %v", err)
		return failSearch(domain.StageIndex, err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	if len(hits) == 0 {
		return domain.NewSearchResult(nil)
	}

	matches, err := s.hydrate(ctx, hits)
	if err != nil {
		return failSearch(domain.StageStore, err)
	}

	logger.Info("Final results: %d", len(matches))
	return domain.NewSearchResult(matches)
}

// hydrate loads each hit's record in rank order. Records missing from
// the store (deleted or never committed) are skipped.
func (s *SearchOrchestrator) hydrate(ctx context.Context, hits []domain.VectorHit) ([]domain.Match, error) {
	matches := make([]domain.Match, 0, len(hits))
	for _, hit := range hits {
		record, err := s.store.Get(ctx, hit.RecordID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Record %s not found in store, skipping", hit.RecordID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get record %s: %w", hit.RecordID, err)
		}
		matches = append(matches, domain.Match{Record: *record, Score: hit.Score})
	}
	return matches, nil
}

func failSearch(stage string, cause error) domain.SearchResult {
	err := domain.NewStageError(domain.OpSearch, stage, cause)
	return domain.SearchResult{
		Success: false,
		Jobs:    []domain.Record{},
		Scores:  []float64{},
		Error:   err.Error(),
		Err:     err,
	}
}
