// Package history tracks uploaded documents so the API can list and manage
// them independently of the vector store.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("document record not found")

// Record describes one uploaded document.
type Record struct {
	// ID is a unique identifier assigned at upload time.
	ID string `json:"id"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename"`

	// Size is the uploaded file size in bytes.
	Size int64 `json:"size"`

	// Chunks is how many chunks the document was split into.
	Chunks int `json:"chunks"`

	// UploadedAt is when the document was ingested.
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store persists upload records.
type Store interface {
	// Save inserts a record. Saving an existing ID overwrites it.
	Save(ctx context.Context, rec Record) error

	// FindAll returns all records ordered by upload time, newest first.
	FindAll(ctx context.Context) ([]Record, error)

	// FindByID returns the record with the given ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (Record, error)

	// Exists reports whether any record has the given filename.
	Exists(ctx context.Context, filename string) (bool, error)

	// Delete removes the record with the given ID or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
