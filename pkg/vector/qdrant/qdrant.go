// Package qdrant provides a Qdrant vector driver over its gRPC API.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing
	// document chunk embeddings.
	DefaultCollectionName = "lectern"

	// DefaultPort is the Qdrant gRPC port.
	DefaultPort = 6334

	// DefaultDimensions matches the output width of the default embedding
	// model (nomic-embed-text).
	DefaultDimensions = 768
)

// QdrantDriver implements vector.Driver using the Qdrant gRPC client.
type QdrantDriver struct {
	client         *qdrant.Client
	collectionName string
	logger         *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host.
	Host string

	// Port is the Qdrant gRPC port. Defaults to DefaultPort if zero.
	Port int

	// APIKey authenticates against Qdrant Cloud. Optional.
	APIKey string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the number of dimensions for the embedding vectors.
	// Defaults to DefaultDimensions if zero.
	Dimensions uint64
}

// NewQdrantDriver creates a new Qdrant vector driver and ensures the
// collection exists with cosine distance.
func NewQdrantDriver(c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	dimensions := c.Dimensions
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	ctx := context.Background()

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("checking collection %q: %w", collectionName, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collectionName, err)
		}
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", collectionName),
		zap.Uint64("dimensions", dimensions),
	)

	return &QdrantDriver{
		client:         client,
		collectionName: collectionName,
		logger:         logger,
	}, nil
}

// Add stores document chunks with their embeddings.
func (d *QdrantDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":         doc.Text,
				"source":       doc.Source,
				"chunk_index":  int64(doc.ChunkIndex),
				"total_length": int64(doc.TotalLength),
			}),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added chunks to qdrant",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar chunks to the given embedding. Qdrant
// cosine scores are already similarity in [0,1] for normalized vectors, so
// they are passed through unchanged.
func (d *QdrantDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		doc := vector.Document{
			ID: point.GetId().GetUuid(),
		}
		applyPayload(&doc, point.GetPayload())

		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    point.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Get retrieves chunks by their IDs.
func (d *QdrantDriver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collectionName,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, point := range points {
		doc := vector.Document{
			ID: point.GetId().GetUuid(),
		}
		applyPayload(&doc, point.GetPayload())

		if vectors := point.GetVectors().GetVector(); vectors != nil {
			doc.Embedding = vectors.GetData()
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes chunks by their IDs.
func (d *QdrantDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collectionName,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted chunks from qdrant",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases the underlying gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}

// applyPayload copies known payload fields onto a document.
func applyPayload(doc *vector.Document, payload map[string]*qdrant.Value) {
	if payload == nil {
		return
	}
	if v, ok := payload["text"]; ok {
		doc.Text = v.GetStringValue()
	}
	if v, ok := payload["source"]; ok {
		doc.Source = v.GetStringValue()
	}
	if v, ok := payload["chunk_index"]; ok {
		doc.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload["total_length"]; ok {
		doc.TotalLength = int(v.GetIntegerValue())
	}
}
