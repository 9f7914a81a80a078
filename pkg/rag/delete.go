package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/vector"
)

const (
	// deleteProbeTopK is the retrieval depth for the two discovery probes.
	deleteProbeTopK = 100

	// DefaultBroadProbeTerms is the generic term set used by the second
	// discovery probe.
	DefaultBroadProbeTerms = "policy leave work"
)

// Deleter removes a document's chunks from the vector store. The store has
// no metadata-filtered delete, so discovery is heuristic: one probe search
// using the filename itself as query text and one broad probe with a generic
// term set, both unfiltered, with the union restricted to chunks whose
// source matches exactly. Chunks whose content is dissimilar to both probes
// can be missed; this is a known false-negative risk, not a bug to fix here.
type Deleter struct {
	retriever  *Retriever
	store      vector.Driver
	broadTerms string
	logger     *zap.Logger
}

// NewDeleter creates a deleter. broadTerms overrides the generic probe term
// set; empty means DefaultBroadProbeTerms.
func NewDeleter(retriever *Retriever, store vector.Driver, broadTerms string, logger *zap.Logger) *Deleter {
	if broadTerms == "" {
		broadTerms = DefaultBroadProbeTerms
	}

	return &Deleter{
		retriever:  retriever,
		store:      store,
		broadTerms: broadTerms,
		logger:     logger,
	}
}

// DeleteByFilename deletes every discovered chunk whose metadata source
// equals filename and returns how many were deleted. Zero is a normal
// outcome when nothing matched.
func (d *Deleter) DeleteByFilename(ctx context.Context, filename string) (int, error) {
	named, err := d.retriever.Search(ctx, filename, deleteProbeTopK, 0)
	if err != nil {
		return 0, fmt.Errorf("filename probe: %w", err)
	}

	broad, err := d.retriever.Search(ctx, d.broadTerms, deleteProbeTopK, 0)
	if err != nil {
		return 0, fmt.Errorf("broad probe: %w", err)
	}

	seen := make(map[string]bool, len(named)+len(broad))
	var ids []string
	for _, res := range append(named, broad...) {
		if seen[res.ID] {
			continue
		}
		seen[res.ID] = true
		if res.Source == filename {
			ids = append(ids, res.ID)
		}
	}

	if len(ids) == 0 {
		d.logger.Info("no chunks discovered for deletion",
			zap.String("filename", filename),
		)
		return 0, nil
	}

	if err := d.store.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting chunks for %s: %w", filename, err)
	}

	d.logger.Info("document chunks deleted",
		zap.String("filename", filename),
		zap.Int("count", len(ids)),
	)

	return len(ids), nil
}
