// Package storage opens the configured record store and vector index
// backends. SQLite and PostgreSQL connections are shared when both
// sides point at the same database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Backends holds the opened stores.
type Backends struct {
	Records driven.RecordStore
	Vectors driven.VectorIndex

	sqliteStores   map[string]*sqlite.Store
	postgresStores map[string]*postgres.Store
	closers        []io.Closer
}

// Open creates both backends from settings.
func Open(ctx context.Context, settings domain.AppSettings) (*Backends, error) {
	b := &Backends{
		sqliteStores:   make(map[string]*sqlite.Store),
		postgresStores: make(map[string]*postgres.Store),
	}

	records, err := b.openRecordStore(ctx, settings.RecordStore)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("record store: %w", err)
	}
	b.Records = records

	vs := settings.VectorIndex
	if vs.Backend == domain.StoreBackendPostgres && vs.DSN == "" {
		vs.DSN = settings.RecordStore.DSN
	}
	vectors, err := b.openVectorIndex(ctx, vs)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("vector index: %w", err)
	}
	b.Vectors = vectors

	return b, nil
}

// Close releases every opened connection.
func (b *Backends) Close() error {
	var errs []error
	if b.Records != nil {
		errs = append(errs, b.Records.Close())
	}
	if b.Vectors != nil {
		errs = append(errs, b.Vectors.Close())
	}
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	b.closers = nil
	return errors.Join(errs...)
}

func (b *Backends) openRecordStore(ctx context.Context, s domain.RecordStoreSettings) (driven.RecordStore, error) {
	switch s.Backend {
	case domain.StoreBackendMemory:
		return memory.NewRecordStore(), nil
	case domain.StoreBackendSQLite, "":
		store, err := b.sqlite(s.Path)
		if err != nil {
			return nil, err
		}
		return store.RecordStore(), nil
	case domain.StoreBackendPostgres:
		store, err := b.postgres(ctx, s.DSN)
		if err != nil {
			return nil, err
		}
		return store.RecordStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q cannot hold records", domain.ErrUnsupportedType, s.Backend)
	}
}

func (b *Backends) openVectorIndex(ctx context.Context, s domain.VectorIndexSettings) (driven.VectorIndex, error) {
	switch s.Backend {
	case domain.StoreBackendMemory:
		return memory.NewVectorIndex(s.Collection), nil
	case domain.StoreBackendSQLite, "":
		store, err := b.sqlite(s.Path)
		if err != nil {
			return nil, err
		}
		return store.VectorIndex(s.Collection), nil
	case domain.StoreBackendPostgres:
		store, err := b.postgres(ctx, s.DSN)
		if err != nil {
			return nil, err
		}
		return store.NewVectorIndex(ctx, s.Collection)
	case domain.StoreBackendQdrant:
		return qdrant.NewIndex(qdrant.Config{
			URL:        s.URL,
			APIKey:     s.APIKey,
			Collection: s.Collection,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q cannot hold vectors", domain.ErrUnsupportedType, s.Backend)
	}
}

func (b *Backends) sqlite(dataDir string) (*sqlite.Store, error) {
	if store, ok := b.sqliteStores[dataDir]; ok {
		return store, nil
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	b.sqliteStores[dataDir] = store
	b.closers = append(b.closers, store)
	return store, nil
}

func (b *Backends) postgres(ctx context.Context, dsn string) (*postgres.Store, error) {
	if store, ok := b.postgresStores[dsn]; ok {
		return store, nil
	}
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	b.postgresStores[dsn] = store
	b.closers = append(b.closers, store)
	return store, nil
}
