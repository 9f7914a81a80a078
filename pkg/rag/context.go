package rag

import (
	"strings"

	"github.com/docstackco/lectern/pkg/utils"
	"github.com/docstackco/lectern/pkg/vector"
)

const (
	// DefaultMaxChunks bounds how many retrieved chunks enter the context
	// in per-chunk mode.
	DefaultMaxChunks = 5

	// DefaultPerChunkCap is the character cap applied to each chunk in
	// per-chunk mode.
	DefaultPerChunkCap = 1500

	// DefaultTotalCap is the character cap applied to the joined context
	// in total-cap mode.
	DefaultTotalCap = 2000

	// chunkSeparator joins chunks in per-chunk mode. It is distinct enough
	// that consumers can split the context back into its constituents.
	chunkSeparator = "\n\n---\n\n"

	// joinSeparator joins chunks in total-cap mode.
	joinSeparator = "\n---\n"
)

// AssembleChunks builds a context window in per-chunk mode: at most
// maxChunks results, kept in ranked order, each truncated to perChunkCap
// characters with a marker where cut. Ranking order is trusted as-is; the
// results are never re-sorted here.
func AssembleChunks(results []vector.QueryResult, maxChunks, perChunkCap int) string {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if perChunkCap <= 0 {
		perChunkCap = DefaultPerChunkCap
	}

	if len(results) > maxChunks {
		results = results[:maxChunks]
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, utils.Truncate(res.Text, perChunkCap))
	}

	return strings.Join(parts, chunkSeparator)
}

// AssembleCapped builds a context window in total-cap mode: all results are
// joined in ranked order and the joined string is truncated to totalCap
// characters with a marker when cut.
func AssembleCapped(results []vector.QueryResult, totalCap int) string {
	if totalCap <= 0 {
		totalCap = DefaultTotalCap
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, res.Text)
	}

	return utils.Truncate(strings.Join(parts, joinSeparator), totalCap)
}
