package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// replaceScrollLimit bounds how many duplicate points Replace removes per pass.
const replaceScrollLimit = 64

// CorrelatedIndex keeps vector points correlated with records through
// the record_id payload field. It owns the dimension invariant: every
// stored or queried vector must have exactly Dimensions() components.
type CorrelatedIndex struct {
	backend    driven.VectorIndex
	dimensions int
	newPointID func() string

	mu    sync.Mutex
	ready bool
}

// NewCorrelatedIndex wraps a backend for a deployment of the given dimension.
func NewCorrelatedIndex(backend driven.VectorIndex, dimensions int) *CorrelatedIndex {
	return &CorrelatedIndex{
		backend:    backend,
		dimensions: dimensions,
		newPointID: uuid.NewString,
	}
}

// Dimensions returns the configured vector length.
func (x *CorrelatedIndex) Dimensions() int {
	return x.dimensions
}

// EnsureReady creates the collection if it is missing and checks the
// dimension of an existing one. It is safe to call repeatedly.
func (x *CorrelatedIndex) EnsureReady(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.ready {
		return nil
	}
	if x.dimensions <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, x.dimensions)
	}

	info, err := x.backend.Collection(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("Creating vector collection (dimension %d)", x.dimensions)
		if err := x.backend.CreateCollection(ctx, x.dimensions); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	case err != nil:
		return fmt.Errorf("inspect collection: %w", err)
	case info.Dimensions != x.dimensions:
		return fmt.Errorf("%w: collection %q has dimension %d, embedding model produces %d",
			domain.ErrDimensionMismatch, info.Name, info.Dimensions, x.dimensions)
	default:
		logger.Debug("Vector collection %q ready (%d points)", info.Name, info.Points)
	}

	x.ready = true
	return nil
}

// Upsert indexes a record's vector under a fresh point id and returns it.
// Upserting the same record twice creates two points; use Replace to
// keep one point per record.
func (x *CorrelatedIndex) Upsert(ctx context.Context, recordID string, vector []float32, record domain.Record) (string, error) {
	if err := x.checkDimension(vector); err != nil {
		return "", err
	}
	if recordID == "" {
		return "", fmt.Errorf("%w: empty record id", domain.ErrInvalidInput)
	}

	point := domain.IndexedPoint{
		PointID: x.newPointID(),
		Vector:  vector,
		Payload: record.Payload(recordID),
	}
	if err := x.backend.Upsert(ctx, []domain.IndexedPoint{point}); err != nil {
		return "", fmt.Errorf("upsert point for record %s: %w", recordID, err)
	}
	return point.PointID, nil
}

// Replace removes every point of the record before indexing the new vector.
func (x *CorrelatedIndex) Replace(ctx context.Context, recordID string, vector []float32, record domain.Record) (string, error) {
	if err := x.checkDimension(vector); err != nil {
		return "", err
	}
	if _, err := x.deleteAll(ctx, recordID); err != nil {
		return "", err
	}
	return x.Upsert(ctx, recordID, vector, record)
}

// Search returns hits ordered by descending cosine similarity.
// Points without a record_id are skipped.
func (x *CorrelatedIndex) Search(ctx context.Context, query []float32, limit int, filter domain.PayloadFilter) ([]domain.VectorHit, error) {
	if err := x.checkDimension(query); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	points, err := x.backend.Search(ctx, query, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(points))
	for _, p := range points {
		id, _ := p.Payload[domain.PayloadRecordID].(string)
		if id == "" {
			logger.Warn("Point %s has no record_id, skipping", p.PointID)
			continue
		}
		hits = append(hits, domain.VectorHit{RecordID: id, Score: p.Score})
	}
	return hits, nil
}

// DeleteByRecordID removes the first point found for the record.
// Returns false if the record has no point.
func (x *CorrelatedIndex) DeleteByRecordID(ctx context.Context, recordID string) (bool, error) {
	points, err := x.backend.Scroll(ctx, domain.PayloadFilter{domain.PayloadRecordID: recordID}, 1)
	if err != nil {
		return false, fmt.Errorf("find point for record %s: %w", recordID, err)
	}
	if len(points) == 0 {
		return false, nil
	}
	if err := x.backend.Delete(ctx, []string{points[0].PointID}); err != nil {
		return false, fmt.Errorf("delete point %s: %w", points[0].PointID, err)
	}
	return true, nil
}

// Info describes the collection.
func (x *CorrelatedIndex) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	info, err := x.backend.Collection(ctx)
	if err != nil {
		return nil, fmt.Errorf("collection info: %w", err)
	}
	return info, nil
}

// Close releases the backend.
func (x *CorrelatedIndex) Close() error {
	return x.backend.Close()
}

func (x *CorrelatedIndex) deleteAll(ctx context.Context, recordID string) (int, error) {
	filter := domain.PayloadFilter{domain.PayloadRecordID: recordID}
	removed := 0
	for {
		points, err := x.backend.Scroll(ctx, filter, replaceScrollLimit)
		if err != nil {
			return removed, fmt.Errorf("find points for record %s: %w", recordID, err)
		}
		if len(points) == 0 {
			return removed, nil
		}
		ids := make([]string, len(points))
		for i, p := range points {
			ids[i] = p.PointID
		}
		if err := x.backend.Delete(ctx, ids); err != nil {
			return removed, fmt.Errorf("delete points for record %s: %w", recordID, err)
		}
		removed += len(ids)
	}
}

func (x *CorrelatedIndex) checkDimension(vector []float32) error {
	if len(vector) != x.dimensions {
		return fmt.Errorf("%w: vector has %d components, index expects %d",
			domain.ErrDimensionMismatch, len(vector), x.dimensions)
	}
	return nil
}
