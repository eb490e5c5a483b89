package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// failEmbeddingsContaining makes the provider reject any chunk holding marker.
func failEmbeddingsContaining(p *fakeProvider, marker string) {
	p.respond = func(_ int, texts []string) (json.RawMessage, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if strings.Contains(text, marker) {
				return nil, driven.NewStatusError(500, "model crashed", 0)
			}
			vectors[i] = bowVector(text, p.dims)
		}
		return json.Marshal(vectors)
	}
}

func TestIngestionOrchestrator_Ingest_SingleRecord(t *testing.T) {
	p := newTestPipeline(t, 32)
	ctx := context.Background()

	result := p.ingest.Ingest(ctx, domain.SingleRecord(sampleRecords()[0]))

	require.True(t, result.Success, result.Error)
	assert.False(t, result.Partial)
	assert.Equal(t, 1, result.JobsProcessed)
	assert.Equal(t, 1, result.JobsStored)
	assert.Equal(t, 1, result.EmbeddingsGenerated)
	assert.Equal(t, 1, result.VectorsStored)
	require.Len(t, result.RecordIDs, 1)
	assert.Equal(t, result.RecordIDs, result.SuccessfulRecordIDs)
	assert.NoError(t, result.Err)

	stored, err := p.records.Get(ctx, result.RecordIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", stored.Title)

	points, err := p.vectors.Scroll(ctx, domain.PayloadFilter{domain.PayloadRecordID: result.RecordIDs[0]}, 0)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, bowVector(sampleRecords()[0].EmbeddableText(), 32), points[0].Vector)
}

func TestIngestionOrchestrator_Ingest_EmbedsEachRecordSeparately(t *testing.T) {
	p := newTestPipeline(t, 32)

	result := p.ingest.Ingest(context.Background(), domain.RecordList(sampleRecords()))
	require.True(t, result.Success)

	calls := p.provider.Calls()
	require.Len(t, calls, 3)
	for i, r := range sampleRecords() {
		assert.Equal(t, []string{r.EmbeddableText()}, calls[i])
	}
}

func TestIngestionOrchestrator_Ingest_PartialFailure(t *testing.T) {
	p := newTestPipeline(t, 32)
	failEmbeddingsContaining(p.provider, "Data Scientist")
	ctx := context.Background()

	result := p.ingest.Ingest(ctx, domain.RecordList(sampleRecords()))

	assert.True(t, result.Success)
	assert.True(t, result.Partial)
	assert.Equal(t, 3, result.JobsProcessed)
	assert.Equal(t, 3, result.JobsStored)
	assert.Equal(t, 2, result.EmbeddingsGenerated)
	assert.Equal(t, 2, result.VectorsStored)
	require.Len(t, result.RecordIDs, 3)
	assert.Equal(t, []string{result.RecordIDs[0], result.RecordIDs[2]}, result.SuccessfulRecordIDs)
	assert.ErrorIs(t, result.Err, domain.ErrPartialFailure)

	// The record whose embedding failed stays stored.
	n, err := p.records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = p.records.Get(ctx, result.RecordIDs[1])
	assert.NoError(t, err)

	points, err := p.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, points)
}

func TestIngestionOrchestrator_Ingest_EmptyBatch(t *testing.T) {
	p := newTestPipeline(t, 8)

	result := p.ingest.Ingest(context.Background(), domain.RecordList(nil))

	assert.False(t, result.Success)
	assert.Equal(t, domain.StageInput, domain.StageOf(result.Err))
	assert.ErrorIs(t, result.Err, domain.ErrInvalidInput)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, p.provider.Calls())
}

func TestIngestionOrchestrator_Ingest_StoreFailure(t *testing.T) {
	p := newTestPipeline(t, 8)
	p.records.storeErr = domain.ErrStoreUnavailable

	result := p.ingest.Ingest(context.Background(), domain.RecordList(sampleRecords()))

	assert.False(t, result.Success)
	assert.Equal(t, domain.StageStore, domain.StageOf(result.Err))
	assert.ErrorIs(t, result.Err, domain.ErrStoreUnavailable)
	assert.Contains(t, result.Error, domain.OpIngest)
	assert.Zero(t, result.JobsStored)
	assert.Empty(t, result.RecordIDs)
	assert.Empty(t, p.provider.Calls(), "nothing is embedded when storing fails")
}

func TestIngestionOrchestrator_Ingest_AllEmbeddingsFail(t *testing.T) {
	p := newTestPipeline(t, 8)
	failEmbeddingsContaining(p.provider, "Job Title")
	ctx := context.Background()

	result := p.ingest.Ingest(ctx, domain.RecordList(sampleRecords()[:2]))

	assert.False(t, result.Success)
	assert.Equal(t, domain.StageEmbedding, domain.StageOf(result.Err))
	assert.ErrorIs(t, result.Err, domain.ErrEmbeddingProvider)
	assert.Equal(t, 2, result.JobsStored)
	assert.Zero(t, result.EmbeddingsGenerated)
	assert.Len(t, result.RecordIDs, 2)
	assert.Empty(t, result.SuccessfulRecordIDs)

	n, err := p.records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "records are not rolled back")
}

func TestIngestionOrchestrator_Ingest_IndexFailure(t *testing.T) {
	p := newTestPipeline(t, 8)
	p.vectors.upsertErr = errors.New("qdrant down")

	result := p.ingest.Ingest(context.Background(), domain.SingleRecord(sampleRecords()[0]))

	assert.False(t, result.Success)
	assert.Equal(t, domain.StageIndex, domain.StageOf(result.Err))
	assert.Contains(t, result.Error, "qdrant down")
	assert.Equal(t, 1, result.EmbeddingsGenerated)
	assert.Zero(t, result.VectorsStored)
}

func TestIngestionOrchestrator_Ingest_AlignsOnShortIDList(t *testing.T) {
	p := newTestPipeline(t, 8)
	p.records.dropIDs = 1

	result := p.ingest.Ingest(context.Background(), domain.RecordList(sampleRecords()))

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.JobsProcessed)
	assert.Equal(t, 2, result.JobsStored)
	assert.Equal(t, 2, result.EmbeddingsGenerated)
	assert.Equal(t, 2, result.VectorsStored)
	assert.True(t, result.Partial)
	assert.Len(t, p.provider.Calls(), 2)
}

func TestIngestionOrchestrator_Ingest_NoIDsIsStoreFailure(t *testing.T) {
	p := newTestPipeline(t, 8)
	p.records.dropIDs = len(sampleRecords())

	result := p.ingest.Ingest(context.Background(), domain.RecordList(sampleRecords()))

	assert.False(t, result.Success)
	assert.Equal(t, domain.StageStore, domain.StageOf(result.Err))
	assert.Zero(t, result.EmbeddingsGenerated)
	assert.Empty(t, p.provider.Calls())
}

func TestIngestionOrchestrator_Ingest_Replace(t *testing.T) {
	p := newTestPipeline(t, 8)
	ctx := context.Background()
	orchestrator := NewIngestionOrchestrator(p.records, newTestClient(p.provider), p.index, IngestionOptions{Replace: true})

	result := orchestrator.Ingest(ctx, domain.SingleRecord(sampleRecords()[0]))
	require.True(t, result.Success)
	id := result.RecordIDs[0]

	// A stale point for the same record is removed on the next index write.
	_, err := p.index.Upsert(ctx, id, make([]float32, 8), domain.Record{})
	require.NoError(t, err)
	require.NoError(t, orchestrator.indexRecord(ctx, id, bowVector("fresh", 8), sampleRecords()[0]))

	points, err := p.vectors.Scroll(ctx, domain.PayloadFilter{domain.PayloadRecordID: id}, 0)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, bowVector("fresh", 8), points[0].Vector)
}
