package rag

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/chunker"
	"github.com/docstackco/lectern/pkg/embeddings"
	"github.com/docstackco/lectern/pkg/vector"
)

// ErrEmptyDocument is returned when extracted text is empty, which the
// upload path reports as invalid input rather than retrying.
var ErrEmptyDocument = errors.New("document text is empty")

// Ingestor chunks extracted document text, embeds each chunk, and persists
// the result in the vector store.
type Ingestor struct {
	chunker  *chunker.Chunker
	embedder embeddings.Embedder
	store    vector.Driver
	logger   *zap.Logger
}

// NewIngestor creates an ingestor over the given chunker, embedder, and store.
func NewIngestor(ch *chunker.Chunker, embedder embeddings.Embedder, store vector.Driver, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Ingest splits text into chunks attributed to source, embeds them, and adds
// them to the vector store in a single batch. It returns the number of
// chunks stored.
func (i *Ingestor) Ingest(ctx context.Context, source, text string) (int, error) {
	docs := i.chunker.Chunk(text, source)
	if len(docs) == 0 {
		return 0, ErrEmptyDocument
	}

	for idx := range docs {
		embedding, err := i.embedder.Embed(ctx, docs[idx].Text)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %d of %s: %w", idx, source, err)
		}
		docs[idx].Embedding = embedding
	}

	if err := i.store.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("storing chunks for %s: %w", source, err)
	}

	i.logger.Info("document ingested",
		zap.String("source", source),
		zap.Int("chunks", len(docs)),
		zap.Int("text_length", len(text)),
	)

	return len(docs), nil
}
