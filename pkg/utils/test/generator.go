package testutils

import (
	"context"
	"time"
)

// MockGenerator is a test generator that records prompts and returns a
// fixed answer.
type MockGenerator struct {
	// Answer is returned for every prompt.
	Answer string

	// Prompts accumulates every prompt passed in.
	Prompts []string

	// Deadlines accumulates the deadlines passed to GenerateWithDeadline.
	Deadlines []time.Duration
}

func NewMockGenerator(answer string) *MockGenerator {
	return &MockGenerator{Answer: answer}
}

func (m *MockGenerator) Generate(_ context.Context, prompt string) string {
	m.Prompts = append(m.Prompts, prompt)
	return m.Answer
}

func (m *MockGenerator) GenerateWithDeadline(_ context.Context, prompt string, deadline time.Duration) string {
	m.Prompts = append(m.Prompts, prompt)
	m.Deadlines = append(m.Deadlines, deadline)
	return m.Answer
}
