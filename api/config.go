// Package api provides the HTTP API server for uploading documents and
// asking questions over them.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// MaxUploadBytes bounds the accepted upload size. Zero means
	// DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// Collection is the vector store collection name, echoed by the
	// status endpoint.
	Collection string
}

// DefaultMaxUploadBytes is the default upload size limit (10 MB).
const DefaultMaxUploadBytes = 10 << 20

// ErrorResponse is the JSON error envelope returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}
