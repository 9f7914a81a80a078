package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/vector"
	"github.com/docstackco/lectern/pkg/vector/chroma"
	"github.com/docstackco/lectern/pkg/vector/qdrant"
	"github.com/docstackco/lectern/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	TargetURL    string

	// Host and Port configure gRPC providers (qdrant).
	Host string
	Port int

	// DBPath configures file-backed providers (sqlitevec).
	DBPath string

	// CollectionName overrides the provider default collection.
	CollectionName string

	// Dimensions is the embedding width. Providers fall back to their
	// own defaults when zero.
	Dimensions uint

	Logger *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "chroma":
		return chroma.NewChromaDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewQdrantDriver(qdrant.Config{
			Host:           o.Host,
			Port:           o.Port,
			CollectionName: o.CollectionName,
			Dimensions:     uint64(o.Dimensions),
		}, o.Logger)
	case "sqlitevec":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
