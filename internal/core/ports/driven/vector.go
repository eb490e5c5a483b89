package driven

import (
	"context"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// VectorIndex is a named point collection with cosine similarity search.
// It knows nothing about records; correlation through the record_id
// payload field is done in core.
type VectorIndex interface {
	// Collection returns the collection description, or domain.ErrNotFound
	// if the collection does not exist yet.
	Collection(ctx context.Context) (*domain.CollectionInfo, error)

	// CreateCollection creates the collection with the given dimension
	// and cosine distance.
	CreateCollection(ctx context.Context, dimensions int) error

	// Upsert writes points, replacing any with the same PointID.
	Upsert(ctx context.Context, points []domain.IndexedPoint) error

	// Search returns up to limit points ordered by descending similarity.
	Search(ctx context.Context, query []float32, limit int, filter domain.PayloadFilter) ([]domain.ScoredPoint, error)

	// Scroll returns up to limit points matching the filter, in storage order.
	Scroll(ctx context.Context, filter domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error)

	// Delete removes points by id. Unknown ids are ignored.
	Delete(ctx context.Context, pointIDs []string) error

	// Count returns the number of points.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
