package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	seq     int64
	now     func() time.Time
}

type storedRecord struct {
	record domain.Record
	seq    int64
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]storedRecord),
		now:     time.Now,
	}
}

// Store inserts records and returns their ids in input order.
func (s *RecordStore) Store(ctx context.Context, records []domain.Record) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	ids := make([]string, len(records))
	for i, r := range records {
		r.ID = uuid.NewString()
		r.CreatedAt = now
		r.UpdatedAt = now
		r.Normalise()
		s.seq++
		s.records[r.ID] = storedRecord{record: r, seq: s.seq}
		ids[i] = r.ID
	}
	return ids, nil
}

// Get retrieves a record by id.
func (s *RecordStore) Get(_ context.Context, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := stored.record
	return &r, nil
}

// List returns all records, newest first.
func (s *RecordStore) List(ctx context.Context) ([]domain.Record, error) {
	return s.Search(ctx, "")
}

// Search returns records matching term, newest first.
func (s *RecordStore) Search(_ context.Context, term string) ([]domain.Record, error) {
	s.mu.RLock()
	matched := make([]storedRecord, 0, len(s.records))
	for _, stored := range s.records {
		if stored.record.Matches(term) {
			matched = append(matched, stored)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.After(b.record.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]domain.Record, len(matched))
	for i, m := range matched {
		out[i] = m.record
	}
	return out, nil
}

// Delete removes a record.
func (s *RecordStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

// Count returns the number of records.
func (s *RecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Ping always succeeds.
func (s *RecordStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *RecordStore) Close() error {
	return nil
}
