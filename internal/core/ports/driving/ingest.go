package driving

import (
	"context"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// IngestionService stores records and indexes their embeddings.
type IngestionService interface {
	// Ingest stores the batch, embeds each record and indexes the vectors.
	// Failures are reported on the result, never returned.
	Ingest(ctx context.Context, batch domain.RecordBatch) domain.IngestResult
}

// DeletionService removes records from both stores.
type DeletionService interface {
	// Delete removes the selected records. The outcome mirrors the
	// selection's shape.
	Delete(ctx context.Context, ids domain.IDSelection) domain.DeleteOutcome
}
