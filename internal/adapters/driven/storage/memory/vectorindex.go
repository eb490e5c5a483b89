package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory brute-force cosine index.
type VectorIndex struct {
	mu         sync.RWMutex
	name       string
	dimensions int
	created    bool
	order      []string
	points     map[string]domain.IndexedPoint
}

// NewVectorIndex creates an empty index for the named collection.
// The collection does not exist until CreateCollection is called.
func NewVectorIndex(name string) *VectorIndex {
	if name == "" {
		name = domain.DefaultCollection
	}
	return &VectorIndex{
		name:   name,
		points: make(map[string]domain.IndexedPoint),
	}
}

// Collection describes the collection.
func (x *VectorIndex) Collection(_ context.Context) (*domain.CollectionInfo, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.created {
		return nil, domain.ErrNotFound
	}
	return &domain.CollectionInfo{
		Name:       x.name,
		Dimensions: x.dimensions,
		Distance:   "cosine",
		Points:     len(x.points),
	}, nil
}

// CreateCollection creates the collection.
func (x *VectorIndex) CreateCollection(_ context.Context, dimensions int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.created {
		return fmt.Errorf("collection %q already exists", x.name)
	}
	x.dimensions = dimensions
	x.created = true
	return nil
}

// Upsert writes points.
func (x *VectorIndex) Upsert(_ context.Context, points []domain.IndexedPoint) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.created {
		return fmt.Errorf("collection %q: %w", x.name, domain.ErrNotFound)
	}
	for _, p := range points {
		if len(p.Vector) != x.dimensions {
			return fmt.Errorf("%w: point %s has %d components, collection has %d",
				domain.ErrDimensionMismatch, p.PointID, len(p.Vector), x.dimensions)
		}
	}
	for _, p := range points {
		if _, exists := x.points[p.PointID]; !exists {
			x.order = append(x.order, p.PointID)
		}
		x.points[p.PointID] = clonePoint(p)
	}
	return nil
}

// Search returns the closest points by cosine similarity.
func (x *VectorIndex) Search(
	_ context.Context, query []float32, limit int, filter domain.PayloadFilter,
) ([]domain.ScoredPoint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.created {
		return nil, fmt.Errorf("collection %q: %w", x.name, domain.ErrNotFound)
	}

	hits := make([]domain.ScoredPoint, 0, len(x.points))
	for _, id := range x.order {
		p := x.points[id]
		if !filter.Matches(p.Payload) {
			continue
		}
		hits = append(hits, domain.ScoredPoint{
			PointID: p.PointID,
			Score:   vectors.Cosine(query, p.Vector),
			Payload: p.Payload,
		})
	}
	return vectors.TopK(hits, limit), nil
}

// Scroll returns points matching the filter in insertion order.
func (x *VectorIndex) Scroll(_ context.Context, filter domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []domain.IndexedPoint
	for _, id := range x.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		p := x.points[id]
		if filter.Matches(p.Payload) {
			out = append(out, clonePoint(p))
		}
	}
	return out, nil
}

// Delete removes points by id.
func (x *VectorIndex) Delete(_ context.Context, pointIDs []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	remove := make(map[string]bool, len(pointIDs))
	for _, id := range pointIDs {
		if _, ok := x.points[id]; ok {
			remove[id] = true
			delete(x.points, id)
		}
	}
	if len(remove) == 0 {
		return nil
	}
	kept := x.order[:0]
	for _, id := range x.order {
		if !remove[id] {
			kept = append(kept, id)
		}
	}
	x.order = kept
	return nil
}

// Count returns the number of points.
func (x *VectorIndex) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.points), nil
}

// Close is a no-op.
func (x *VectorIndex) Close() error {
	return nil
}

func clonePoint(p domain.IndexedPoint) domain.IndexedPoint {
	vec := make([]float32, len(p.Vector))
	copy(vec, p.Vector)
	payload := make(map[string]any, len(p.Payload))
	for k, v := range p.Payload {
		payload[k] = v
	}
	return domain.IndexedPoint{PointID: p.PointID, Vector: vec, Payload: payload}
}
