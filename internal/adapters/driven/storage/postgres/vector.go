package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

const vectorSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS vector_collections (
	name       TEXT PRIMARY KEY,
	dimensions INTEGER NOT NULL,
	distance   TEXT NOT NULL DEFAULT 'cosine',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS vector_points (
	point_id   TEXT PRIMARY KEY,
	collection TEXT NOT NULL REFERENCES vector_collections(name) ON DELETE CASCADE,
	record_id  TEXT NOT NULL DEFAULT '',
	embedding  vector NOT NULL,
	payload    JSONB NOT NULL DEFAULT '{}',
	seq        BIGSERIAL
);
CREATE INDEX IF NOT EXISTS idx_vector_points_record ON vector_points(collection, record_id);
`

// VectorIndex is a pgvector-backed driven.VectorIndex for one collection.
type VectorIndex struct {
	store      *Store
	collection string
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates the pgvector schema and returns an index for
// the named collection.
func (s *Store) NewVectorIndex(ctx context.Context, collection string) (*VectorIndex, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	if _, err := s.db.ExecContext(ctx, vectorSchema); err != nil {
		return nil, fmt.Errorf("%w: creating vector schema: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return &VectorIndex{store: s, collection: collection}, nil
}

func (v *VectorIndex) Collection(ctx context.Context) (*domain.CollectionInfo, error) {
	info := domain.CollectionInfo{Name: v.collection}
	err := v.store.db.QueryRowContext(ctx,
		`SELECT c.dimensions, c.distance,
		        (SELECT COUNT(*) FROM vector_points p WHERE p.collection = c.name)
		 FROM vector_collections c WHERE c.name = $1`, v.collection,
	).Scan(&info.Dimensions, &info.Distance, &info.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &info, nil
}

func (v *VectorIndex) CreateCollection(ctx context.Context, dimensions int) error {
	_, err := v.store.db.ExecContext(ctx,
		`INSERT INTO vector_collections (name, dimensions, distance) VALUES ($1, $2, 'cosine')`,
		v.collection, dimensions)
	if err != nil {
		return fmt.Errorf("create collection %q: %w", v.collection, err)
	}
	return nil
}

func (v *VectorIndex) Upsert(ctx context.Context, points []domain.IndexedPoint) error {
	info, err := v.Collection(ctx)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != info.Dimensions {
			return fmt.Errorf("%w: point %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, p.PointID, len(p.Vector), info.Dimensions)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vector_points (point_id, collection, record_id, embedding, payload)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (point_id) DO UPDATE SET
			record_id = EXCLUDED.record_id,
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.PointID, v.collection, p.RecordID(), pgvector.NewVector(p.Vector), string(payload),
		); err != nil {
			return fmt.Errorf("upsert point %s: %w", p.PointID, err)
		}
	}

	return tx.Commit()
}

func (v *VectorIndex) Search(
	ctx context.Context, query []float32, limit int, filter domain.PayloadFilter,
) ([]domain.ScoredPoint, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	where, args := buildFilter(v.collection, filter, 2)
	args = append([]any{pgvector.NewVector(query)}, args...)
	args = append(args, limit)

	q := `SELECT point_id, payload, 1 - (embedding <=> $1::vector) AS similarity
	      FROM vector_points WHERE ` + where + `
	      ORDER BY embedding <=> $1::vector
	      LIMIT $` + strconv.Itoa(len(args))

	rows, err := v.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var results []domain.ScoredPoint
	for rows.Next() {
		var (
			sp      domain.ScoredPoint
			payload []byte
		)
		if err := rows.Scan(&sp.PointID, &payload, &sp.Score); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		if err := json.Unmarshal(payload, &sp.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		results = append(results, sp)
	}
	return results, rows.Err()
}

func (v *VectorIndex) Scroll(ctx context.Context, filter domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error) {
	where, args := buildFilter(v.collection, filter, 1)
	q := `SELECT point_id, embedding, payload FROM vector_points WHERE ` + where + ` ORDER BY seq`
	if limit > 0 {
		args = append(args, limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := v.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("scroll points: %w", err)
	}
	defer rows.Close()

	var points []domain.IndexedPoint
	for rows.Next() {
		var (
			p       domain.IndexedPoint
			vec     pgvector.Vector
			payload []byte
		)
		if err := rows.Scan(&p.PointID, &vec, &payload); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p.Vector = vec.Slice()
		if err := json.Unmarshal(payload, &p.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (v *VectorIndex) Delete(ctx context.Context, pointIDs []string) error {
	if len(pointIDs) == 0 {
		return nil
	}
	_, err := v.store.db.ExecContext(ctx,
		`DELETE FROM vector_points WHERE collection = $1 AND point_id = ANY($2)`,
		v.collection, pq.Array(pointIDs))
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_points WHERE collection = $1`, v.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the pool.
func (v *VectorIndex) Close() error {
	return nil
}

// buildFilter renders the collection constraint plus one equality
// predicate per payload key. Placeholders start at $first.
func buildFilter(collection string, filter domain.PayloadFilter, first int) (string, []any) {
	clauses := []string{"collection = $" + strconv.Itoa(first)}
	args := []any{collection}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		n := first + len(args)
		if k == domain.PayloadRecordID {
			clauses = append(clauses, "record_id = $"+strconv.Itoa(n))
			args = append(args, filter[k])
			continue
		}
		clauses = append(clauses, fmt.Sprintf("payload ->> $%d = $%d", n, n+1))
		args = append(args, k, filter[k])
	}
	return strings.Join(clauses, " AND "), args
}
