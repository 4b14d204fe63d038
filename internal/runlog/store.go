package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes. There is no migration
// path; the ledger is advisory and can be deleted.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by a different
// docsmith version.
var ErrSchemaMismatch = errors.New("run ledger schema version mismatch")

// CategoryTotals is one category's outcome counts within a run.
type CategoryTotals struct {
	Category  string
	Attempted int
	Succeeded int
	Failed    int
}

// Record is one completed run.
type Record struct {
	ID         string
	Mode       string
	InputDir   string
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []CategoryTotals
}

// Totals sums the per-category counters.
func (r Record) Totals() (attempted, succeeded, failed int) {
	for _, c := range r.Categories {
		attempted += c.Attempted
		succeeded += c.Succeeded
		failed += c.Failed
	}
	return attempted, succeeded, failed
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Append records one completed run and its per-category totals in a single
// transaction.
func (s *Store) Append(ctx context.Context, record Record) error {
	if record.ID == "" {
		return errors.New("run id required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	attempted, succeeded, failed := record.Totals()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, input_dir, started_at, finished_at, attempted, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Mode, record.InputDir,
		record.StartedAt.UTC().Format(time.RFC3339),
		record.FinishedAt.UTC().Format(time.RFC3339),
		attempted, succeeded, failed)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, c := range record.Categories {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_categories (run_id, category, attempted, succeeded, failed)
			 VALUES (?, ?, ?, ?, ?)`,
			record.ID, c.Category, c.Attempted, c.Succeeded, c.Failed)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", c.Category, err)
		}
	}
	return tx.Commit()
}

// Recent returns the most recent runs, newest first, with their category
// breakdowns attached.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, input_dir, started_at, finished_at FROM runs
		 ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	index := make(map[string]int)
	for rows.Next() {
		var rec Record
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.Mode, &rec.InputDir, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if err := s.attachCategories(ctx, records, index); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) attachCategories(ctx context.Context, records []Record, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, category, attempted, succeeded, failed FROM run_categories")
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var runID string
		var c CategoryTotals
		if err := rows.Scan(&runID, &c.Category, &c.Attempted, &c.Succeeded, &c.Failed); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		if i, ok := index[runID]; ok {
			records[i].Categories = append(records[i].Categories, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate categories: %w", err)
	}

	for i := range records {
		sort.Slice(records[i].Categories, func(a, b int) bool {
			return records[i].Categories[a].Category < records[i].Categories[b].Category
		})
	}
	return nil
}
