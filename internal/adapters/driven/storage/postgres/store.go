package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	domain           TEXT NOT NULL DEFAULT '',
	company          TEXT NOT NULL DEFAULT '',
	department       TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	summary          TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	responsibilities TEXT[] NOT NULL DEFAULT '{}',
	skills           TEXT[] NOT NULL DEFAULT '{}',
	qualifications   TEXT[] NOT NULL DEFAULT '{}',
	experience_level TEXT NOT NULL DEFAULT '',
	employment_type  TEXT NOT NULL DEFAULT '',
	salary_range     TEXT NOT NULL DEFAULT '',
	metadata         JSONB NOT NULL DEFAULT '{}',
	seq              BIGSERIAL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at DESC, seq DESC);
`

// Store holds a PostgreSQL connection pool shared by the record store
// and vector index wrappers.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens a connection pool and creates the records schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", domain.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating records schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStore returns a RecordStore backed by this pool.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// --- Records ---

type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

const recordColumns = `id, title, domain, company, department, location, summary, description,
	responsibilities, skills, qualifications, experience_level, employment_type, salary_range,
	metadata, created_at, updated_at`

func (s *recordStore) Store(ctx context.Context, records []domain.Record) ([]string, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := s.store.now().UTC()
	ids := make([]string, 0, len(records))
	for i, r := range records {
		r.Normalise()
		metadata := []byte("{}")
		if len(r.Metadata) > 0 {
			if metadata, err = json.Marshal(r.Metadata); err != nil {
				return nil, fmt.Errorf("marshal metadata: %w", err)
			}
		}

		var id string
		if err := stmt.QueryRowContext(ctx,
			uuid.NewString(), r.Title, r.Domain, r.Company, r.Department, r.Location,
			r.Summary, r.Description, pq.Array(r.Responsibilities), pq.Array(r.Skills),
			pq.Array(r.Qualifications), r.ExperienceLevel, r.EmploymentType, r.SalaryRange,
			string(metadata), now, now,
		).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert record %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit records: %w", err)
	}
	return ids, nil
}

func (s *recordStore) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

func (s *recordStore) List(ctx context.Context) ([]domain.Record, error) {
	return s.Search(ctx, "")
}

func (s *recordStore) Search(ctx context.Context, term string) ([]domain.Record, error) {
	query, args := buildRecordSearch(term)
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *recordStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return n > 0, nil
}

func (s *recordStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *recordStore) Ping(ctx context.Context) error {
	if err := s.store.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *recordStore) Close() error {
	return nil
}

// buildRecordSearch returns the listing query, filtered by a
// case-insensitive substring match when term is non-blank.
func buildRecordSearch(term string) (string, []any) {
	query := `SELECT ` + recordColumns + ` FROM records`
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		query += ` WHERE title ILIKE $1 OR company ILIKE $1 OR summary ILIKE $1
			OR location ILIKE $1 OR employment_type ILIKE $1 OR experience_level ILIKE $1
			OR EXISTS (SELECT 1 FROM unnest(skills) AS skill WHERE skill ILIKE $1)`
		args = append(args, "%"+escapeLike(term)+"%")
	}
	query += ` ORDER BY created_at DESC, seq DESC`
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		r        domain.Record
		metadata []byte
	)
	if err := row.Scan(&r.ID, &r.Title, &r.Domain, &r.Company, &r.Department, &r.Location,
		&r.Summary, &r.Description, pq.Array(&r.Responsibilities), pq.Array(&r.Skills),
		pq.Array(&r.Qualifications), &r.ExperienceLevel, &r.EmploymentType, &r.SalaryRange,
		&metadata, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 && string(metadata) != "{}" {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	r.Normalise()
	return &r, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
