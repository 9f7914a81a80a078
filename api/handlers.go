package api

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/eventstream"
	"github.com/docstackco/lectern/pkg/extract"
	"github.com/docstackco/lectern/pkg/history"
	"github.com/docstackco/lectern/pkg/rag"
)

// UploadResponse is returned after a successful document upload.
type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Message  string `json:"message"`
}

// AskRequest is the JSON body for POST /api/rag/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the generated answer.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DeleteResponse is returned after a document deletion.
type DeleteResponse struct {
	Filename      string `json:"filename"`
	DeletedChunks int    `json:"deleted_chunks"`
}

// StatusResponse summarizes what the system currently holds and whether
// its backing services are reachable.
type StatusResponse struct {
	Status      string `json:"status"`
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
	VectorStore bool   `json:"vectorStoreConnected"`
	Generation  bool   `json:"llmServiceConnected"`
	Collection  string `json:"collection,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleUpload accepts a multipart document, extracts its text, and runs it
// through the ingestion pipeline.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "file field is required"})
	}

	if fileHeader.Size > s.config.MaxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{Error: "file exceeds upload size limit"})
	}

	exists, err := s.history.Exists(c.Context(), fileHeader.Filename)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to check upload history"})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: "document already uploaded, delete it first"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "failed to open uploaded file"})
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "failed to read uploaded file"})
	}

	text, err := extract.Text(fileHeader.Filename, raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "could not extract text from document"})
	}

	chunks, err := s.ingestor.Ingest(c.Context(), fileHeader.Filename, text)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyDocument) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "document contains no text"})
		}
		s.logger.Error("ingestion failed",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to ingest document"})
	}

	rec := history.Record{
		ID:         uuid.NewString(),
		Filename:   fileHeader.Filename,
		Size:       fileHeader.Size,
		Chunks:     chunks,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.history.Save(c.Context(), rec); err != nil {
		s.logger.Warn("failed to record upload history",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err),
		)
	}

	s.publishEvent(c, eventstream.EventTypeDocumentIngested, rec.Filename, chunks, rec.Size)

	return c.JSON(UploadResponse{
		ID:       rec.ID,
		Filename: rec.Filename,
		Chunks:   chunks,
		Message:  "document ingested",
	})
}

// handleAsk answers a question with the production flow: threshold-filtered
// retrieval, capped context, and deadline-bounded generation. The question
// comes from the JSON body on POST or the question (or q) query parameter
// on GET.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	question := c.Query("question")
	if question == "" {
		question = c.Query("q")
	}
	if question == "" && c.Method() == fiber.MethodPost {
		var req AskRequest
		if err := c.BodyParser(&req); err == nil {
			question = req.Question
		}
	}
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	answer, err := s.asker.AnswerWithDeadline(c.Context(), question)
	if err != nil {
		s.logger.Error("ask failed",
			zap.String("question", question),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to answer question"})
	}

	return c.JSON(AskResponse{Question: question, Answer: answer})
}

// handleDebugAsk answers a question with the debug flow: unfiltered
// retrieval and unbounded generation.
func (s *Server) handleDebugAsk(c *fiber.Ctx) error {
	question := c.Query("question")
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question parameter is required"})
	}

	answer, err := s.asker.Answer(c.Context(), question)
	if err != nil {
		s.logger.Error("debug ask failed",
			zap.String("question", question),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to answer question"})
	}

	return c.JSON(AskResponse{Question: question, Answer: answer})
}

// handleDelete removes all chunks attributed to the given filename.
func (s *Server) handleDelete(c *fiber.Ctx) error {
	filename := c.Query("filename")
	if filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "filename parameter is required"})
	}

	deleted, err := s.deleter.DeleteByFilename(c.Context(), filename)
	if err != nil {
		s.logger.Error("deletion failed",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete document"})
	}

	s.dropHistoryByFilename(c, filename)
	s.publishEvent(c, eventstream.EventTypeDocumentDeleted, filename, deleted, 0)

	return c.JSON(DeleteResponse{Filename: filename, DeletedChunks: deleted})
}

// handleDeleteByID removes a document identified by its upload history ID.
func (s *Server) handleDeleteByID(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := s.history.FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "document not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to look up document"})
	}

	deleted, err := s.deleter.DeleteByFilename(c.Context(), rec.Filename)
	if err != nil {
		s.logger.Error("deletion failed",
			zap.String("filename", rec.Filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete document"})
	}

	if err := s.history.Delete(c.Context(), id); err != nil && !errors.Is(err, history.ErrNotFound) {
		s.logger.Warn("failed to delete history record",
			zap.String("id", id),
			zap.Error(err),
		)
	}

	s.publishEvent(c, eventstream.EventTypeDocumentDeleted, rec.Filename, deleted, rec.Size)

	return c.JSON(DeleteResponse{Filename: rec.Filename, DeletedChunks: deleted})
}

// handleStatus summarizes the upload history and probes the store and
// generation service for connectivity.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	records, err := s.history.FindAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read upload history"})
	}

	chunks := 0
	for _, rec := range records {
		chunks += rec.Chunks
	}

	health := s.asker.Health(c.Context())
	status := "ready"
	if !health.VectorStore {
		status = "degraded"
	}

	return c.JSON(StatusResponse{
		Status:      status,
		Documents:   len(records),
		Chunks:      chunks,
		VectorStore: health.VectorStore,
		Generation:  health.Generation,
		Collection:  s.config.Collection,
	})
}

// handleHealth reports liveness of the store and generation service.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	health := s.asker.Health(c.Context())

	status := "UP"
	if !health.VectorStore || !health.Generation {
		status = "DOWN"
	}

	return c.JSON(map[string]any{
		"status":               status,
		"vectorStoreConnected": health.VectorStore,
		"llmServiceConnected":  health.Generation,
	})
}

// handleListHistory returns all upload records, newest first.
func (s *Server) handleListHistory(c *fiber.Ctx) error {
	records, err := s.history.FindAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read upload history"})
	}

	if records == nil {
		records = []history.Record{}
	}

	return c.JSON(map[string]any{
		"count":     len(records),
		"documents": records,
	})
}

// dropHistoryByFilename removes every history record for a filename.
// History is advisory, so failures are logged rather than surfaced.
func (s *Server) dropHistoryByFilename(c *fiber.Ctx, filename string) {
	records, err := s.history.FindAll(c.Context())
	if err != nil {
		s.logger.Warn("failed to read upload history",
			zap.Error(err),
		)
		return
	}

	for _, rec := range records {
		if rec.Filename != filename {
			continue
		}
		if err := s.history.Delete(c.Context(), rec.ID); err != nil && !errors.Is(err, history.ErrNotFound) {
			s.logger.Warn("failed to delete history record",
				zap.String("id", rec.ID),
				zap.Error(err),
			)
		}
	}
}

// publishEvent emits a document lifecycle event. Event delivery is
// best-effort and never fails the request.
func (s *Server) publishEvent(c *fiber.Ctx, eventType, filename string, chunks int, size int64) {
	event := &eventstream.DocumentEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Document: eventstream.DocumentMeta{
			Filename: filename,
			Chunks:   chunks,
			Size:     size,
		},
	}

	if err := s.publisher.PublishDocument(c.Context(), event); err != nil {
		s.logger.Warn("failed to publish document event",
			zap.String("event_type", eventType),
			zap.String("filename", filename),
			zap.Error(err),
		)
	}
}
