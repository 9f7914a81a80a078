package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after a document is chunked,
	// embedded, and stored.
	EventTypeDocumentIngested = "lectern.document.ingested"

	// EventTypeDocumentDeleted is emitted after a document's chunks are
	// removed from the vector store.
	EventTypeDocumentDeleted = "lectern.document.deleted"
)

// DocumentEvent is a transport-neutral event payload for a document
// lifecycle change.
type DocumentEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Document      DocumentMeta `json:"document"`
}

// DocumentMeta identifies the document the event refers to.
type DocumentMeta struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Size     int64  `json:"size,omitempty"`
}
