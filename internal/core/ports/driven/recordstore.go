package driven

import (
	"context"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// RecordStore persists job records. It is the source of truth for
// record content; the vector index only holds denormalised copies.
type RecordStore interface {
	// Store inserts records and returns their ids in input order.
	// CreatedAt and UpdatedAt are stamped on write. The insert is all-or-nothing.
	Store(ctx context.Context, records []domain.Record) ([]string, error)

	// Get retrieves a record by id. Returns domain.ErrNotFound if absent
	// or if the id is malformed.
	Get(ctx context.Context, id string) (*domain.Record, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]domain.Record, error)

	// Search returns records whose text fields or skills contain term
	// (case-insensitive), newest first. A blank term lists everything.
	Search(ctx context.Context, term string) ([]domain.Record, error)

	// Delete removes a record. Returns true iff a record was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
