package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// IngestionOptions configures the ingestion orchestrator.
type IngestionOptions struct {
	// Replace deletes a record's existing points before indexing it.
	Replace bool
}

// IngestionOrchestrator stores records, embeds them one by one and
// indexes the vectors. The record store is written first and is never
// rolled back: a record whose embedding or indexing fails stays stored.
type IngestionOrchestrator struct {
	store    driven.RecordStore
	embedder *EmbeddingClient
	index    *CorrelatedIndex
	opts     IngestionOptions
}

// NewIngestionOrchestrator creates an ingestion orchestrator.
func NewIngestionOrchestrator(
	store driven.RecordStore,
	embedder *EmbeddingClient,
	index *CorrelatedIndex,
	opts IngestionOptions,
) *IngestionOrchestrator {
	return &IngestionOrchestrator{
		store:    store,
		embedder: embedder,
		index:    index,
		opts:     opts,
	}
}

// Ingest runs store, embed and index for the batch.
func (o *IngestionOrchestrator) Ingest(ctx context.Context, batch domain.RecordBatch) domain.IngestResult {
	logger.Section("Ingestion")

	records := batch.Records()
	result := domain.IngestResult{
		JobsProcessed:       len(records),
		RecordIDs:           []string{},
		SuccessfulRecordIDs: []string{},
	}
	if len(records) == 0 {
		return failIngest(result, domain.StageInput, fmt.Errorf("%w: no records to ingest", domain.ErrInvalidInput))
	}

	// Stage 1: record store.
	ids, err := o.store.Store(ctx, records)
	if err != nil {
		logger.Warn("Storing %d records failed: %v", len(records), err)
		return failIngest(result, domain.StageStore, err)
	}
	if len(ids) == 0 {
		logger.Warn("Record store returned no ids for %d records", len(records))
		return failIngest(result, domain.StageStore, errors.New("record store returned no ids"))
	}
	result.JobsStored = len(ids)
	result.RecordIDs = ids
	logger.Info("Stored %d records", len(ids))

	n := len(records)
	if len(ids) != n {
		logger.Warn("Record store returned %d ids for %d records, aligning on the shorter list", len(ids), n)
		n = min(n, len(ids))
	}

	// Stage 2: embeddings, one record at a time.
	vectors := make([][]float32, n)
	var embedErr error
	for i := range n {
		vec, err := o.embedder.EmbedOne(ctx, records[i].EmbeddableText())
		if err != nil {
			logger.Warn("Embedding record %s failed: %v", ids[i], err)
			embedErr = err
			continue
		}
		vectors[i] = vec
		result.EmbeddingsGenerated++
	}
	logger.Debug("Generated %d/%d embeddings", result.EmbeddingsGenerated, n)

	if result.EmbeddingsGenerated == 0 {
		if embedErr == nil {
			embedErr = domain.ErrEmbeddingProvider
		}
		return failIngest(result, domain.StageEmbedding, embedErr)
	}

	// Stage 3: vector index, only for aligned (record, vector, id) triples.
	var indexErr error
	for i := range n {
		if vectors[i] == nil {
			continue
		}
		if err := o.indexRecord(ctx, ids[i], vectors[i], records[i]); err != nil {
			logger.Warn("Indexing record %s failed: %v", ids[i], err)
			indexErr = err
			continue
		}
		result.VectorsStored++
		result.SuccessfulRecordIDs = append(result.SuccessfulRecordIDs, ids[i])
	}

	if result.VectorsStored == 0 {
		return failIngest(result, domain.StageIndex, indexErr)
	}

	result.Success = true
	if result.VectorsStored < result.JobsProcessed {
		result.Partial = true
		result.Err = fmt.Errorf("%w: %d of %d records indexed",
			domain.ErrPartialFailure, result.VectorsStored, result.JobsProcessed)
	}
	logger.Info("Ingested %d records (%d stored, %d embedded, %d indexed)",
		result.JobsProcessed, result.JobsStored, result.EmbeddingsGenerated, result.VectorsStored)
	return result
}

func (o *IngestionOrchestrator) indexRecord(ctx context.Context, id string, vector []float32, record domain.Record) error {
	record.ID = id
	var err error
	if o.opts.Replace {
		_, err = o.index.Replace(ctx, id, vector, record)
	} else {
		_, err = o.index.Upsert(ctx, id, vector, record)
	}
	return err
}

func failIngest(result domain.IngestResult, stage string, cause error) domain.IngestResult {
	if cause == nil {
		cause = errors.New("no items succeeded")
	}
	err := domain.NewStageError(domain.OpIngest, stage, cause)
	result.Success = false
	result.Err = err
	result.Error = err.Error()
	return result
}
