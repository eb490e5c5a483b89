package driving

import (
	"context"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// RecordService provides read access to stored records.
type RecordService interface {
	// Get retrieves a record by id.
	Get(ctx context.Context, id string) (*domain.Record, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]domain.Record, error)

	// Find returns records matching a case-insensitive term.
	Find(ctx context.Context, term string) ([]domain.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// IndexInfo describes the vector collection.
	IndexInfo(ctx context.Context) (*domain.CollectionInfo, error)
}
