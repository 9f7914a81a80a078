package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/eventstream"
	"github.com/docstackco/lectern/pkg/history"
	"github.com/docstackco/lectern/pkg/rag"
)

// Server is the HTTP API server for the document question answering system.
type Server struct {
	config    Config
	ingestor  *rag.Ingestor
	asker     *rag.Service
	deleter   *rag.Deleter
	history   history.Store
	publisher eventstream.Publisher
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The collaborators are injected so the
// same pipeline components can be shared with CLI commands.
func NewServer(
	config Config,
	ingestor *rag.Ingestor,
	asker *rag.Service,
	deleter *rag.Deleter,
	historyStore history.Store,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             int(config.MaxUploadBytes) + 1<<20,
	})

	s := &Server{
		config:    config,
		ingestor:  ingestor,
		asker:     asker,
		deleter:   deleter,
		history:   historyStore,
		publisher: publisher,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/api/rag/upload", s.handleUpload)
	app.Post("/api/rag/ask", s.handleAsk)
	app.Get("/api/rag/ask", s.handleAsk)
	app.Delete("/api/rag/delete", s.handleDelete)
	app.Get("/api/rag/status", s.handleStatus)

	app.Get("/api/query/ask", s.handleDebugAsk)
	app.Get("/api/query/health", s.handleHealth)

	app.Get("/api/docs/history", s.handleListHistory)
	app.Delete("/api/docs/:id", s.handleDeleteByID)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
