package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
)

// Ensure RecordService implements the interface.
var _ driving.RecordService = (*RecordService)(nil)

// RecordService provides read access to stored records.
type RecordService struct {
	store driven.RecordStore
	index *CorrelatedIndex
}

// NewRecordService creates a record service. index may be nil, in which
// case IndexInfo reports the index as unavailable.
func NewRecordService(store driven.RecordStore, index *CorrelatedIndex) *RecordService {
	return &RecordService{store: store, index: index}
}

// Get retrieves a record by id.
func (s *RecordService) Get(ctx context.Context, id string) (*domain.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty record id", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// List returns all records, newest first.
func (s *RecordService) List(ctx context.Context) ([]domain.Record, error) {
	return s.store.List(ctx)
}

// Find returns records matching a case-insensitive term.
func (s *RecordService) Find(ctx context.Context, term string) ([]domain.Record, error) {
	return s.store.Search(ctx, term)
}

// Count returns the number of stored records.
func (s *RecordService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// IndexInfo describes the vector collection.
func (s *RecordService) IndexInfo(ctx context.Context) (*domain.CollectionInfo, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	return s.index.Info(ctx)
}
