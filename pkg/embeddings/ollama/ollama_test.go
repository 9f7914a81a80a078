package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docstackco/lectern/pkg/vector"
)

func TestOllama(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Embedder Suite")
}

var _ = Describe("Embedder", func() {
	It("applies defaults for base URL and model", func() {
		e, err := NewEmbedder(EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.baseURL).To(Equal(DefaultBaseURL))
		Expect(e.model).To(Equal(DefaultEmbeddingModel))
	})

	Describe("Embed", func() {
		It("sends the model and input and returns the first embedding", func() {
			var captured embedRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/embed"))
				Expect(json.NewDecoder(r.Body).Decode(&captured)).To(Succeed())

				json.NewEncoder(w).Encode(embedResponse{
					Embeddings: [][]float32{{0.1, 0.2, 0.3}},
				})
			}))
			defer server.Close()

			e, err := NewEmbedder(EmbedderConfig{BaseURL: server.URL, Model: "nomic-embed-text"})
			Expect(err).NotTo(HaveOccurred())

			embedding, err := e.Embed(context.Background(), "some chunk text")
			Expect(err).NotTo(HaveOccurred())
			Expect(embedding).To(Equal([]float32{0.1, 0.2, 0.3}))
			Expect(captured.Model).To(Equal("nomic-embed-text"))
			Expect(captured.Input).To(Equal("some chunk text"))
		})

		It("wraps server errors with the embedding error", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			}))
			defer server.Close()

			e, err := NewEmbedder(EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(context.Background(), "text")
			Expect(err).To(MatchError(vector.ErrEmbedding))
		})

		It("rejects an empty embeddings response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(embedResponse{})
			}))
			defer server.Close()

			e, err := NewEmbedder(EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(context.Background(), "text")
			Expect(err).To(MatchError(vector.ErrEmbedding))
		})

		It("fails when the server is unreachable", func() {
			e, err := NewEmbedder(EmbedderConfig{BaseURL: "http://127.0.0.1:1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(context.Background(), "text")
			Expect(err).To(MatchError(vector.ErrEmbedding))
		})
	})
})
