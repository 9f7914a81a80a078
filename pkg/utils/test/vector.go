package testutils

import (
	"context"
	"fmt"

	"github.com/docstackco/lectern/pkg/vector"
)

// MockVectorDriver is a test vector driver that records calls and returns
// configurable results.
type MockVectorDriver struct {
	// Added accumulates all documents passed to Add.
	Added []vector.Document

	// Results is returned by Query, truncated to topK. When ResultsByCall
	// is non-empty it takes precedence, one entry per successive call.
	Results []vector.QueryResult

	// ResultsByCall returns a different result set per Query call.
	ResultsByCall [][]vector.QueryResult

	// Deleted accumulates all IDs passed to Delete.
	Deleted []string

	// FailAdd causes Add to return an error.
	FailAdd bool

	// FailQuery causes Query to return an error.
	FailQuery bool

	// FailDelete causes Delete to return an error.
	FailDelete bool

	queryCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	if m.FailAdd {
		return fmt.Errorf("mock add failure")
	}
	m.Added = append(m.Added, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query failure")
	}

	results := m.Results
	if len(m.ResultsByCall) > 0 {
		idx := m.queryCalls
		if idx >= len(m.ResultsByCall) {
			idx = len(m.ResultsByCall) - 1
		}
		results = m.ResultsByCall[idx]
	}
	m.queryCalls++

	if len(results) < topK {
		return results, nil
	}
	return results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	var docs []vector.Document
	for _, doc := range m.Added {
		for _, id := range ids {
			if doc.ID == id {
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	if m.FailDelete {
		return fmt.Errorf("mock delete failure")
	}
	m.Deleted = append(m.Deleted, ids...)
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
