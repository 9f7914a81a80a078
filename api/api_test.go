package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/chunker"
	"github.com/docstackco/lectern/pkg/eventstream/nop"
	"github.com/docstackco/lectern/pkg/history"
	"github.com/docstackco/lectern/pkg/history/inmemory"
	"github.com/docstackco/lectern/pkg/rag"
	testutils "github.com/docstackco/lectern/pkg/utils/test"
	"github.com/docstackco/lectern/pkg/vector"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

type testHarness struct {
	server    *Server
	driver    *testutils.MockVectorDriver
	generator *testutils.MockGenerator
	store     history.Store
}

func newTestHarness() *testHarness {
	logger := zap.NewNop()
	driver := testutils.NewMockVectorDriver()
	embedder := testutils.NewMockEmbedder()
	generator := testutils.NewMockGenerator("mock answer")
	store := inmemory.NewStore()

	ch, err := chunker.New(0, 0)
	Expect(err).NotTo(HaveOccurred())

	retriever := rag.NewRetriever(embedder, driver, logger)
	ingestor := rag.NewIngestor(ch, embedder, driver, logger)
	asker := rag.NewService(retriever, generator, 0, logger)
	deleter := rag.NewDeleter(retriever, driver, "", logger)

	server := NewServer(
		Config{ListenAddr: ":0", Collection: "documents"},
		ingestor,
		asker,
		deleter,
		store,
		nop.NewPublisher(),
		logger,
	)

	return &testHarness{
		server:    server,
		driver:    driver,
		generator: generator,
		store:     store,
	}
}

func uploadRequest(filename, content string) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write([]byte(content))
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/api/rag/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(resp *http.Response, out any) {
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(raw, out)).To(Succeed())
}

var _ = Describe("Server", func() {
	var h *testHarness

	BeforeEach(func() {
		h = newTestHarness()
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			raw, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal(`"pong"`))
		})
	})

	Describe("POST /api/rag/upload", func() {
		It("ingests the document and records it in history", func() {
			resp, err := h.server.app.Test(uploadRequest("notes.txt", strings.Repeat("a", 1200)))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body UploadResponse
			decodeBody(resp, &body)
			Expect(body.Filename).To(Equal("notes.txt"))
			Expect(body.Chunks).To(Equal(2))
			Expect(body.ID).NotTo(BeEmpty())

			Expect(h.driver.Added).To(HaveLen(2))

			records, err := h.store.FindAll(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Filename).To(Equal("notes.txt"))
			Expect(records[0].Chunks).To(Equal(2))
		})

		It("rejects a second upload of the same filename", func() {
			resp, err := h.server.app.Test(uploadRequest("notes.txt", "some document text"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = h.server.app.Test(uploadRequest("notes.txt", "some document text"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("rejects requests without a file field", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/rag/upload", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects documents with no text", func() {
			resp, err := h.server.app.Test(uploadRequest("empty.txt", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			Expect(h.driver.Added).To(BeEmpty())
		})
	})

	Describe("POST /api/rag/ask", func() {
		BeforeEach(func() {
			h.driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "c1", Text: "relevant chunk", Source: "notes.txt"}, Score: 0.9},
			}
		})

		It("answers using the generator", func() {
			payload := bytes.NewBufferString(`{"question": "what is this?"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/rag/ask", payload)
			req.Header.Set("Content-Type", "application/json")

			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body AskResponse
			decodeBody(resp, &body)
			Expect(body.Question).To(Equal("what is this?"))
			Expect(body.Answer).To(Equal("mock answer"))
			Expect(h.generator.Deadlines).To(ConsistOf(30 * time.Second))
		})

		It("accepts the question as a query parameter", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/rag/ask?question=hello", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("accepts q as a shorthand query parameter", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/rag/ask?q=hello", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body AskResponse
			decodeBody(resp, &body)
			Expect(body.Question).To(Equal("hello"))
		})

		It("rejects requests without a question", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/rag/ask", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports when nothing relevant is found", func() {
			h.driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "c1", Text: "noise", Source: "notes.txt"}, Score: 0.01},
			}

			req := httptest.NewRequest(http.MethodGet, "/api/rag/ask?question=hello", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body AskResponse
			decodeBody(resp, &body)
			Expect(body.Answer).To(Equal(rag.NoRelevantMessage))
			Expect(h.generator.Prompts).To(BeEmpty())
		})

		It("surfaces retrieval failures as server errors", func() {
			h.driver.FailQuery = true

			req := httptest.NewRequest(http.MethodGet, "/api/rag/ask?question=hello", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GET /api/query/ask", func() {
		It("answers without score filtering", func() {
			h.driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "c1", Text: "weak match", Source: "notes.txt"}, Score: 0.01},
			}

			req := httptest.NewRequest(http.MethodGet, "/api/query/ask?question=hello", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body AskResponse
			decodeBody(resp, &body)
			Expect(body.Answer).To(Equal("mock answer"))
		})

		It("reports when the store is empty", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/query/ask?question=hello", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body AskResponse
			decodeBody(resp, &body)
			Expect(body.Answer).To(Equal(rag.NoDocumentsMessage))
		})
	})

	Describe("DELETE /api/rag/delete", func() {
		BeforeEach(func() {
			h.driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "c1", Text: "chunk one", Source: "notes.txt"}, Score: 0.8},
				{Document: vector.Document{ID: "c2", Text: "chunk two", Source: "notes.txt"}, Score: 0.7},
				{Document: vector.Document{ID: "c3", Text: "other doc", Source: "other.txt"}, Score: 0.6},
			}
			Expect(h.store.Save(context.Background(), history.Record{
				ID:         "rec-1",
				Filename:   "notes.txt",
				Size:       42,
				Chunks:     2,
				UploadedAt: time.Now(),
			})).To(Succeed())
		})

		It("deletes matching chunks and the history record", func() {
			req := httptest.NewRequest(http.MethodDelete, "/api/rag/delete?filename=notes.txt", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body DeleteResponse
			decodeBody(resp, &body)
			Expect(body.Filename).To(Equal("notes.txt"))
			Expect(body.DeletedChunks).To(Equal(2))
			Expect(h.driver.Deleted).To(ConsistOf("c1", "c2"))

			records, err := h.store.FindAll(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		It("rejects requests without a filename", func() {
			req := httptest.NewRequest(http.MethodDelete, "/api/rag/delete", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("succeeds with zero deletions for an unknown filename", func() {
			req := httptest.NewRequest(http.MethodDelete, "/api/rag/delete?filename=missing.txt", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body DeleteResponse
			decodeBody(resp, &body)
			Expect(body.DeletedChunks).To(Equal(0))
		})
	})

	Describe("DELETE /api/docs/:id", func() {
		BeforeEach(func() {
			h.driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "c1", Text: "chunk one", Source: "notes.txt"}, Score: 0.8},
			}
			Expect(h.store.Save(context.Background(), history.Record{
				ID:         "rec-1",
				Filename:   "notes.txt",
				Size:       42,
				Chunks:     1,
				UploadedAt: time.Now(),
			})).To(Succeed())
		})

		It("deletes the document behind the record", func() {
			req := httptest.NewRequest(http.MethodDelete, "/api/docs/rec-1", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body DeleteResponse
			decodeBody(resp, &body)
			Expect(body.Filename).To(Equal("notes.txt"))
			Expect(body.DeletedChunks).To(Equal(1))

			_, err = h.store.FindByID(context.Background(), "rec-1")
			Expect(err).To(MatchError(history.ErrNotFound))
		})

		It("returns 404 for an unknown record", func() {
			req := httptest.NewRequest(http.MethodDelete, "/api/docs/nope", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /api/rag/status", func() {
		It("summarizes the upload history", func() {
			Expect(h.store.Save(context.Background(), history.Record{
				ID: "rec-1", Filename: "a.txt", Chunks: 3, UploadedAt: time.Now(),
			})).To(Succeed())
			Expect(h.store.Save(context.Background(), history.Record{
				ID: "rec-2", Filename: "b.txt", Chunks: 2, UploadedAt: time.Now(),
			})).To(Succeed())

			req := httptest.NewRequest(http.MethodGet, "/api/rag/status", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body StatusResponse
			decodeBody(resp, &body)
			Expect(body.Status).To(Equal("ready"))
			Expect(body.Documents).To(Equal(2))
			Expect(body.Chunks).To(Equal(5))
			Expect(body.VectorStore).To(BeTrue())
			Expect(body.Generation).To(BeTrue())
			Expect(body.Collection).To(Equal("documents"))
		})

		It("reports degraded when the vector store is unreachable", func() {
			h.driver.FailQuery = true

			req := httptest.NewRequest(http.MethodGet, "/api/rag/status", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body StatusResponse
			decodeBody(resp, &body)
			Expect(body.Status).To(Equal("degraded"))
			Expect(body.VectorStore).To(BeFalse())
		})
	})

	Describe("GET /api/query/health", func() {
		It("reports UP when both probes succeed", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/query/health", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]any
			decodeBody(resp, &body)
			Expect(body["status"]).To(Equal("UP"))
			Expect(body["vectorStoreConnected"]).To(Equal(true))
			Expect(body["llmServiceConnected"]).To(Equal(true))
		})

		It("reports DOWN when the vector store probe fails", func() {
			h.driver.FailQuery = true

			req := httptest.NewRequest(http.MethodGet, "/api/query/health", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]any
			decodeBody(resp, &body)
			Expect(body["status"]).To(Equal("DOWN"))
			Expect(body["vectorStoreConnected"]).To(Equal(false))
		})
	})

	Describe("GET /api/docs/history", func() {
		It("returns an empty list when nothing was uploaded", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/docs/history", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count     int              `json:"count"`
				Documents []history.Record `json:"documents"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(Equal(0))
			Expect(body.Documents).To(BeEmpty())
		})

		It("lists uploaded documents", func() {
			Expect(h.store.Save(context.Background(), history.Record{
				ID: "rec-1", Filename: "a.txt", Chunks: 3, UploadedAt: time.Now(),
			})).To(Succeed())

			req := httptest.NewRequest(http.MethodGet, "/api/docs/history", nil)
			resp, err := h.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count     int              `json:"count"`
				Documents []history.Record `json:"documents"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(Equal(1))
			Expect(body.Documents[0].Filename).To(Equal("a.txt"))
		})
	})
})
