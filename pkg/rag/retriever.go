// Package rag provides the retrieval-and-generation orchestration layer:
// similarity search policy, context assembly, prompt construction, ingestion,
// and best-effort deletion. The vector store, embedder, and generation
// endpoint are external collaborators behind interfaces.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/embeddings"
	"github.com/docstackco/lectern/pkg/vector"
)

const (
	// DefaultTopK is the retrieval depth for interactive question answering.
	DefaultTopK = 10

	// StrictThreshold drops near-irrelevant matches in the production ask
	// flow. Zero disables threshold filtering entirely.
	StrictThreshold = 0.1
)

// Retriever issues similarity queries against the vector store and applies
// the threshold policy downstream of it.
type Retriever struct {
	embedder embeddings.Embedder
	store    vector.Driver
	logger   *zap.Logger
}

// NewRetriever creates a retriever over the given embedder and store.
func NewRetriever(embedder embeddings.Embedder, store vector.Driver, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Search embeds the query text and returns up to topK results in the exact
// order the store ranked them. A positive threshold filters out results
// scoring below it; threshold <= 0 means no filtering. Duplicate chunk ids
// are dropped, keeping the first (highest ranked) occurrence. An empty
// result set is a valid outcome, not an error.
func (r *Retriever) Search(ctx context.Context, query string, topK int, threshold float32) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	seen := make(map[string]bool, len(results))
	filtered := make([]vector.QueryResult, 0, len(results))
	for _, res := range results {
		if threshold > 0 && res.Score < threshold {
			continue
		}
		if seen[res.ID] {
			continue
		}
		seen[res.ID] = true
		filtered = append(filtered, res)
	}

	r.logger.Debug("similarity search",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Float32("threshold", threshold),
		zap.Int("results", len(filtered)),
	)

	return filtered, nil
}
