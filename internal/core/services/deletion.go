package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// Ensure DeletionOrchestrator implements the interface.
var _ driving.DeletionService = (*DeletionOrchestrator)(nil)

// DeletionOrchestrator removes records from the record store and then
// their points from the vector index. The record store decides success;
// a missing or undeletable point is logged and reported, not fatal.
type DeletionOrchestrator struct {
	store driven.RecordStore
	index *CorrelatedIndex
}

// NewDeletionOrchestrator creates a deletion orchestrator.
func NewDeletionOrchestrator(store driven.RecordStore, index *CorrelatedIndex) *DeletionOrchestrator {
	return &DeletionOrchestrator{store: store, index: index}
}

// Delete removes each selected record independently.
func (d *DeletionOrchestrator) Delete(ctx context.Context, ids domain.IDSelection) domain.DeleteOutcome {
	logger.Section("Deletion")

	if ids.IsSingle() {
		r := d.deleteOne(ctx, ids.IDs()[0])
		return domain.DeleteOutcome{Single: &r}
	}

	results := make([]domain.DeleteResult, 0, len(ids.IDs()))
	for _, id := range ids.IDs() {
		results = append(results, d.deleteOne(ctx, id))
	}
	return domain.DeleteOutcome{Many: results}
}

func (d *DeletionOrchestrator) deleteOne(ctx context.Context, id string) domain.DeleteResult {
	result := domain.DeleteResult{RecordID: id}

	deleted, err := d.store.Delete(ctx, id)
	if err != nil {
		logger.Warn("Deleting record %s failed: %v", id, err)
		return failDelete(result, err)
	}
	if !deleted {
		logger.Debug("Record %s not found", id)
		return failDelete(result, fmt.Errorf("record %s: %w", id, domain.ErrNotFound))
	}
	result.RecordDeleted = true

	vectorDeleted, err := d.index.DeleteByRecordID(ctx, id)
	switch {
	case err != nil:
		logger.Warn("Record %s deleted but its vector could not be removed: %v", id, err)
	case !vectorDeleted:
		logger.Warn("Record %s deleted but had no vector", id)
	}
	result.VectorDeleted = err == nil && vectorDeleted
	result.Success = true
	return result
}

func failDelete(result domain.DeleteResult, cause error) domain.DeleteResult {
	err := domain.NewStageError(domain.OpDelete, domain.StageStore, cause)
	result.Success = false
	result.Err = err
	result.Error = err.Error()
	return result
}
