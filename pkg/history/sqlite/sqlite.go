// Package sqlite provides a SQLite-backed history store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docstackco/lectern/pkg/history"
)

// Store implements history.Store using SQLite as the storage backend.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite-backed history store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		uploaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents(filename);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save inserts a record, replacing any existing record with the same ID.
func (s *Store) Save(ctx context.Context, rec history.Record) error {
	query := `INSERT OR REPLACE INTO documents (id, filename, size, chunks, uploaded_at) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.Size, rec.Chunks, rec.UploadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// FindAll returns all records ordered by upload time, newest first.
func (s *Store) FindAll(ctx context.Context) ([]history.Record, error) {
	query := `SELECT id, filename, size, chunks, uploaded_at FROM documents ORDER BY uploaded_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// FindByID returns the record with the given ID.
func (s *Store) FindByID(ctx context.Context, id string) (history.Record, error) {
	query := `SELECT id, filename, size, chunks, uploaded_at FROM documents WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Record{}, history.ErrNotFound
	}
	if err != nil {
		return history.Record{}, err
	}

	return rec, nil
}

// Exists reports whether any record has the given filename.
func (s *Store) Exists(ctx context.Context, filename string) (bool, error) {
	query := `SELECT 1 FROM documents WHERE filename = ? LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, filename)

	var exists int
	err := row.Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return true, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if affected == 0 {
		return history.ErrNotFound
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (history.Record, error) {
	var rec history.Record
	var uploadedAt string
	if err := row.Scan(&rec.ID, &rec.Filename, &rec.Size, &rec.Chunks, &uploadedAt); err != nil {
		return history.Record{}, fmt.Errorf("failed to scan record: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return history.Record{}, fmt.Errorf("failed to parse upload time: %w", err)
	}
	rec.UploadedAt = parsed

	return rec, nil
}
