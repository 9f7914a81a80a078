package rag

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/generate"
)

const (
	// NoDocumentsMessage is returned by the debug flow when retrieval
	// finds nothing at all.
	NoDocumentsMessage = "No documents found in the database. Please upload documents first."

	// NoRelevantMessage is returned by the strict flow when nothing
	// clears the similarity threshold.
	NoRelevantMessage = "❌ No relevant documents found"

	// DefaultAnswerDeadline bounds a single strict-flow generation.
	DefaultAnswerDeadline = 30 * time.Second
)

// Generator produces a completion for a prompt. Failures surface as
// sentinel answer strings rather than errors.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
	GenerateWithDeadline(ctx context.Context, prompt string, deadline time.Duration) string
}

// Service answers questions over the ingested corpus. Two flows exist: the
// strict flow filters retrieval by similarity and bounds generation with a
// deadline, the debug flow takes whatever retrieval returns and waits for
// the model.
type Service struct {
	retriever *Retriever
	generator Generator
	deadline  time.Duration
	logger    *zap.Logger
}

// NewService creates an ask service. deadline bounds strict-flow
// generation; zero means DefaultAnswerDeadline.
func NewService(retriever *Retriever, generator Generator, deadline time.Duration, logger *zap.Logger) *Service {
	if deadline <= 0 {
		deadline = DefaultAnswerDeadline
	}

	return &Service{
		retriever: retriever,
		generator: generator,
		deadline:  deadline,
		logger:    logger,
	}
}

// Answer runs the debug flow: retrieve unfiltered, assemble the top chunks
// with per-chunk caps, and generate synchronously.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	results, err := s.retriever.Search(ctx, question, DefaultTopK, 0)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoDocumentsMessage, nil
	}

	contextText := AssembleChunks(results, DefaultMaxChunks, DefaultPerChunkCap)
	prompt := BuildPrompt(contextText, question)

	s.logger.Debug("answering question",
		zap.Int("chunks", len(results)),
		zap.Int("prompt_len", len(prompt)),
	)

	return s.generator.Generate(ctx, prompt), nil
}

// AnswerWithDeadline runs the strict flow: retrieve with the similarity
// threshold, assemble under the total context cap, and generate with the
// service deadline.
func (s *Service) AnswerWithDeadline(ctx context.Context, question string) (string, error) {
	results, err := s.retriever.Search(ctx, question, DefaultTopK, StrictThreshold)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoRelevantMessage, nil
	}

	contextText := AssembleCapped(results, DefaultTotalCap)
	prompt := BuildPrompt(contextText, question)

	s.logger.Debug("answering question with deadline",
		zap.Int("chunks", len(results)),
		zap.Duration("deadline", s.deadline),
	)

	return s.generator.GenerateWithDeadline(ctx, prompt, s.deadline), nil
}

// HealthStatus reports connectivity of the services behind the pipeline.
type HealthStatus struct {
	VectorStore bool
	Generation  bool
}

// Health probes the vector store with a throwaway search and the
// generation service with a trivial prompt.
func (s *Service) Health(ctx context.Context) HealthStatus {
	var hs HealthStatus

	if _, err := s.retriever.Search(ctx, "test", 1, 0); err == nil {
		hs.VectorStore = true
	}

	answer := s.generator.GenerateWithDeadline(ctx, "Say 'Hello' only.", s.deadline)
	hs.Generation = !generate.IsFailure(answer)

	return hs
}
