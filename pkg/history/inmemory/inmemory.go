// Package inmemory provides an in-memory history store for tests and
// ephemeral deployments.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/docstackco/lectern/pkg/history"
)

// Store implements history.Store with a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	records map[string]history.Record
}

// NewStore creates an empty in-memory history store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]history.Record),
	}
}

// Save inserts a record, replacing any existing record with the same ID.
func (s *Store) Save(_ context.Context, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// FindAll returns all records ordered by upload time, newest first.
func (s *Store) FindAll(_ context.Context) ([]history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]history.Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})

	return records, nil
}

// FindByID returns the record with the given ID.
func (s *Store) FindByID(_ context.Context, id string) (history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return history.Record{}, history.ErrNotFound
	}
	return rec, nil
}

// Exists reports whether any record has the given filename.
func (s *Store) Exists(_ context.Context, filename string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Filename == filename {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return history.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
