// Package chunker splits raw document text into overlapping fixed-size
// windows suitable for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/docstackco/lectern/pkg/vector"
)

const (
	// DefaultChunkSize is the window size in characters.
	DefaultChunkSize = 1000

	// DefaultOverlap is the number of characters shared between
	// consecutive windows.
	DefaultOverlap = 200
)

// Chunker emits overlapping windows over document text.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker with the given window size and overlap.
// Zero values fall back to the defaults.
func New(size, overlap int) (*Chunker, error) {
	if size == 0 {
		size = DefaultChunkSize
	}
	if overlap == 0 {
		overlap = DefaultOverlap
	}

	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, size), got %d", overlap)
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into windows of the configured size, advancing by
// size-overlap each step. Size and overlap are measured in runes so
// multi-byte text never splits mid-character. Each emitted document carries
// a fresh random ID, the source filename, its zero-based chunk index, and
// the total rune length of the original text. The final window ends exactly
// at the end of text; no empty trailing chunk is emitted, and windows that
// are empty after whitespace trimming are skipped.
//
// Callers must reject empty input before chunking; Chunk returns nil for
// empty text.
func (c *Chunker) Chunk(text, source string) []vector.Document {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.size - c.overlap

	var docs []vector.Document
	for offset := 0; offset < len(runes); offset += stride {
		end := offset + c.size
		if end > len(runes) {
			end = len(runes)
		}

		trimmed := strings.TrimSpace(string(runes[offset:end]))
		if trimmed != "" {
			docs = append(docs, vector.Document{
				ID:          uuid.NewString(),
				Text:        trimmed,
				Source:      source,
				ChunkIndex:  len(docs),
				TotalLength: len(runes),
			})
		}

		if end >= len(runes) {
			break
		}
	}

	return docs
}
