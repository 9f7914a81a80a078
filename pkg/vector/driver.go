// Package vector provides interfaces and implementations for vector storage
// of document chunks.
package vector

import "context"

// Document represents a stored chunk with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the chunk, generated at ingest time.
	ID string

	// Text is the chunk text as emitted by the chunker.
	Text string

	// Source is the filename the chunk was derived from.
	Source string

	// ChunkIndex is the zero-based position of the chunk within its source.
	ChunkIndex int

	// TotalLength is the character length of the full source text.
	TotalLength int

	// Embedding is the vector representation of the chunk text.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score is the similarity score normalized to [0,1] (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of embedded chunks.
//
// Implementations must return query results in descending score order and
// preserve the Source, ChunkIndex, and TotalLength metadata verbatim.
type Driver interface {
	// Add stores documents with their embeddings. If a document with the
	// same ID already exists, implementers should update the document.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
