package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "jobmatch.db"

// Store is a unified SQLite-based storage that provides access to
// the record store and vector index through wrapper types.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.jobmatch/data/jobmatch.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".jobmatch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// VectorIndex returns a VectorIndex for the named collection backed by this store.
func (s *Store) VectorIndex(collection string) driven.VectorIndex {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &vectorIndex{store: s, collection: collection}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_records.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

const recordColumns = `id, title, domain, company, department, location, summary, description,
	responsibilities, skills, qualifications, experience_level, employment_type, salary_range,
	metadata, created_at, updated_at`

// Store inserts all records in one transaction.
func (s *recordStore) Store(ctx context.Context, records []domain.Record) ([]string, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := s.store.now().UTC()
	ids := make([]string, len(records))
	for i, r := range records {
		id := uuid.NewString()
		responsibilities, skills, qualifications, metadata, err := encodeRecordJSON(r)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, id, r.Title, r.Domain, r.Company, r.Department, r.Location,
			r.Summary, r.Description, responsibilities, skills, qualifications, r.ExperienceLevel,
			r.EmploymentType, r.SalaryRange, metadata, now, now); err != nil {
			return nil, fmt.Errorf("inserting record %d: %w", i, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing records: %w", err)
	}
	return ids, nil
}

// Get retrieves a record by id.
func (s *recordStore) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return r, nil
}

// List returns all records, newest first.
func (s *recordStore) List(ctx context.Context) ([]domain.Record, error) {
	return s.Search(ctx, "")
}

// Search returns records matching term, newest first. SQLite LIKE only
// folds ASCII case, so rows are filtered with domain.Record.Matches.
func (s *recordStore) Search(ctx context.Context, term string) ([]domain.Record, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if r.Matches(term) {
			records = append(records, *r)
		}
	}
	return records, rows.Err()
}

// Delete removes a record.
func (s *recordStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of records.
func (s *recordStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *recordStore) Ping(ctx context.Context) error {
	if err := s.store.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *recordStore) Close() error {
	return nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex.
type vectorIndex struct {
	store      *Store
	collection string
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Collection describes the collection.
func (v *vectorIndex) Collection(ctx context.Context) (*domain.CollectionInfo, error) {
	info := domain.CollectionInfo{Name: v.collection}
	err := v.store.db.QueryRowContext(ctx,
		`SELECT dimensions, distance, (SELECT COUNT(*) FROM vector_points WHERE collection = ?)
		 FROM vector_collections WHERE name = ?`, v.collection, v.collection,
	).Scan(&info.Dimensions, &info.Distance, &info.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	return &info, nil
}

// CreateCollection creates the collection.
func (v *vectorIndex) CreateCollection(ctx context.Context, dimensions int) error {
	_, err := v.store.db.ExecContext(ctx,
		`INSERT INTO vector_collections (name, dimensions, distance) VALUES (?, ?, 'cosine')`,
		v.collection, dimensions)
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", v.collection, err)
	}
	return nil
}

// Upsert writes points.
func (v *vectorIndex) Upsert(ctx context.Context, points []domain.IndexedPoint) error {
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
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshalling payload: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vector_points (point_id, collection, record_id, vector, payload)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(point_id) DO UPDATE SET
				record_id = excluded.record_id,
				vector = excluded.vector,
				payload = excluded.payload`,
			p.PointID, v.collection, p.RecordID(), vectors.Encode(p.Vector), string(payload),
		); err != nil {
			return fmt.Errorf("upserting point %s: %w", p.PointID, err)
		}
	}

	return tx.Commit()
}

// Search scores every point in the collection.
func (v *vectorIndex) Search(
	ctx context.Context, query []float32, limit int, filter domain.PayloadFilter,
) ([]domain.ScoredPoint, error) {
	points, err := v.load(ctx, filter, 0)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.ScoredPoint, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != len(query) {
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
func (v *vectorIndex) Scroll(ctx context.Context, filter domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error) {
	return v.load(ctx, filter, limit)
}

// Delete removes points by id.
func (v *vectorIndex) Delete(ctx context.Context, pointIDs []string) error {
	if len(pointIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(pointIDs)), ",")
	args := make([]any, 0, len(pointIDs)+1)
	args = append(args, v.collection)
	for _, id := range pointIDs {
		args = append(args, id)
	}
	_, err := v.store.db.ExecContext(ctx,
		`DELETE FROM vector_points WHERE collection = ? AND point_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}

// Count returns the number of points.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_points WHERE collection = ?`, v.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// load reads points in insertion order. The record_id constraint is
// pushed into SQL; other constraints are checked on the decoded payload.
func (v *vectorIndex) load(ctx context.Context, filter domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error) {
	query := `SELECT point_id, vector, payload FROM vector_points WHERE collection = ?`
	args := []any{v.collection}
	if id, ok := filter[domain.PayloadRecordID]; ok {
		query += ` AND record_id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY rowid`

	rows, err := v.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var points []domain.IndexedPoint
	for rows.Next() {
		var (
			p           domain.IndexedPoint
			blob        []byte
			payloadJSON string
		)
		if err := rows.Scan(&p.PointID, &blob, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		if err := json.Unmarshal([]byte(payloadJSON), &p.Payload); err != nil {
			return nil, fmt.Errorf("unmarshalling payload of %s: %w", p.PointID, err)
		}
		if !filter.Matches(p.Payload) {
			continue
		}
		p.Vector = vectors.Decode(blob)
		points = append(points, p)
		if limit > 0 && len(points) >= limit {
			break
		}
	}
	return points, rows.Err()
}

// ==================== Helper Functions ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		r                                                         domain.Record
		responsibilities, skills, qualifications, metadataJSONStr string
	)
	if err := row.Scan(&r.ID, &r.Title, &r.Domain, &r.Company, &r.Department, &r.Location,
		&r.Summary, &r.Description, &responsibilities, &skills, &qualifications,
		&r.ExperienceLevel, &r.EmploymentType, &r.SalaryRange, &metadataJSONStr,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		raw  string
		dest *[]string
	}{
		{responsibilities, &r.Responsibilities},
		{skills, &r.Skills},
		{qualifications, &r.Qualifications},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("unmarshalling list column: %w", err)
		}
	}
	if metadataJSONStr != "" && metadataJSONStr != "{}" && metadataJSONStr != "null" {
		if err := json.Unmarshal([]byte(metadataJSONStr), &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	r.Normalise()
	return &r, nil
}

func encodeRecordJSON(r domain.Record) (responsibilities, skills, qualifications, metadata string, err error) {
	r.Normalise()
	parts := make([]string, 4)
	for i, v := range []any{r.Responsibilities, r.Skills, r.Qualifications, r.Metadata} {
		data, mErr := json.Marshal(v)
		if mErr != nil {
			return "", "", "", "", fmt.Errorf("marshalling record fields: %w", mErr)
		}
		parts[i] = string(data)
	}
	if r.Metadata == nil {
		parts[3] = "{}"
	}
	return parts[0], parts[1], parts[2], parts[3], nil
}
