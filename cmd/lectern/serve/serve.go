// Package servecmder provides the serve command for running the lectern API
// server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/docstackco/lectern/api"
	"github.com/docstackco/lectern/pkg/chunker"
	"github.com/docstackco/lectern/pkg/config"
	embeddingutils "github.com/docstackco/lectern/pkg/embeddings/utils"
	"github.com/docstackco/lectern/pkg/eventstream"
	"github.com/docstackco/lectern/pkg/eventstream/kafka"
	"github.com/docstackco/lectern/pkg/eventstream/nop"
	"github.com/docstackco/lectern/pkg/generate"
	"github.com/docstackco/lectern/pkg/history"
	"github.com/docstackco/lectern/pkg/history/inmemory"
	"github.com/docstackco/lectern/pkg/history/sqlite"
	"github.com/docstackco/lectern/pkg/logger"
	"github.com/docstackco/lectern/pkg/rag"
	vectorutils "github.com/docstackco/lectern/pkg/vector/utils"
)

type ServeCommander struct {
	listen      string
	historyPath string

	vectorProvider string
	vectorTarget   string
	vectorHost     string
	vectorPort     int
	vectorDBPath   string
	collection     string

	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint

	generationTarget   string
	generationModel    string
	generationAttempts int

	eventProvider string
	eventBrokers  []string
	eventTopic    string

	maxUploadMB int
	debug       bool
	logger      *zap.Logger
}

// serveFlags is the flag registry for the serve command, mapping each flag
// to its viper config key.
var serveFlags = config.FlagSet{
	config.FlagListen: {
		Name: "listen", Shorthand: "l", ViperKey: "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagHistoryPath: {
		Name: "history-path", ViperKey: "storage.history_path",
		Description: "Path to the upload history SQLite database (default: in-memory)",
	},
	config.FlagVectorStoreProv: {
		Name: "vector-store-provider", ViperKey: "vector_store.provider",
		Description: "Vector store provider (chroma, qdrant, sqlitevec)",
	},
	config.FlagVectorStoreTgt: {
		Name: "vector-store-target", ViperKey: "vector_store.target",
		Description: "Vector store REST URL (chroma)",
	},
	config.FlagVectorStoreHost: {
		Name: "vector-store-host", ViperKey: "vector_store.host",
		Description: "Vector store gRPC host (qdrant)",
	},
	config.FlagVectorStorePort: {
		Name: "vector-store-port", ViperKey: "vector_store.port",
		Description: "Vector store gRPC port (qdrant)",
	},
	config.FlagVectorStorePath: {
		Name: "vector-store-path", ViperKey: "vector_store.db_path",
		Description: "Vector store database file (sqlitevec)",
	},
	config.FlagCollection: {
		Name: "collection", ViperKey: "vector_store.collection",
		Description: "Vector store collection name",
	},
	config.FlagEmbeddingProv: {
		Name: "embedding-provider", ViperKey: "embedding.provider",
		Description: "Embedding provider (ollama)",
	},
	config.FlagEmbeddingTgt: {
		Name: "embedding-target", ViperKey: "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name: "embedding-model", ViperKey: "embedding.model",
		Description: "Embedding model name",
	},
	config.FlagEmbeddingDims: {
		Name: "embedding-dimensions", ViperKey: "embedding.dimensions",
		Description: "Embedding vector width",
	},
	config.FlagGenerationTgt: {
		Name: "generation-target", ViperKey: "generation.target",
		Description: "Generation provider URL",
	},
	config.FlagGenerationModel: {
		Name: "generation-model", ViperKey: "generation.model",
		Description: "Generation model name",
	},
	config.FlagEventStreamProv: {
		Name: "event-stream-provider", ViperKey: "event_stream.provider",
		Description: "Document event publisher (nop, kafka)",
	},
	config.FlagEventStreamTop: {
		Name: "event-stream-topic", ViperKey: "event_stream.topic",
		Description: "Topic for document events",
	},
}

// serveFlagKeys lists the registry keys bound on the serve command.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagHistoryPath,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreHost,
	config.FlagVectorStorePort,
	config.FlagVectorStorePath,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagGenerationTgt,
	config.FlagGenerationModel,
	config.FlagEventStreamProv,
	config.FlagEventStreamTop,
}

const serveLongDesc string = `Run the lectern API server.

The server exposes document upload, question answering, deletion, and
status endpoints. Configuration is resolved with the usual precedence:
CLI flags, then LECTERN_ environment variables, then config.toml in the
.lectern/ directory, then built-in defaults.

Examples:
  lectern serve
  lectern serve --listen :9090 --vector-store-provider chroma --vector-store-target http://localhost:8000
  LECTERN_GENERATION_MODEL=llama3.2:3b lectern serve`

const serveShortDesc string = "Run the lectern API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			return cmder.resolve(v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagHistoryPath, &cmder.historyPath)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreHost, &cmder.vectorHost)
	config.AddIntFlag(cmd, serveFlags, config.FlagVectorStorePort, &cmder.vectorPort)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStorePath, &cmder.vectorDBPath)
	config.AddStringFlag(cmd, serveFlags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, serveFlags, config.FlagGenerationTgt, &cmder.generationTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagGenerationModel, &cmder.generationModel)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventStreamProv, &cmder.eventProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventStreamTop, &cmder.eventTopic)

	return cmd
}

// resolve reads the final configuration values out of viper after flag
// binding, so the flag > env > file > default chain applies uniformly.
func (c *ServeCommander) resolve(v *viper.Viper) error {
	c.listen = v.GetString("api.listen")
	c.historyPath = v.GetString("storage.history_path")

	c.vectorProvider = v.GetString("vector_store.provider")
	c.vectorTarget = v.GetString("vector_store.target")
	c.vectorHost = v.GetString("vector_store.host")
	c.vectorPort = v.GetInt("vector_store.port")
	c.vectorDBPath = v.GetString("vector_store.db_path")
	c.collection = v.GetString("vector_store.collection")

	c.embeddingProvider = v.GetString("embedding.provider")
	c.embeddingTarget = v.GetString("embedding.target")
	c.embeddingModel = v.GetString("embedding.model")
	c.embeddingDims = v.GetUint("embedding.dimensions")

	c.generationTarget = v.GetString("generation.target")
	c.generationModel = v.GetString("generation.model")
	c.generationAttempts = v.GetInt("generation.max_attempts")

	c.eventProvider = v.GetString("event_stream.provider")
	c.eventBrokers = v.GetStringSlice("event_stream.brokers")
	c.eventTopic = v.GetString("event_stream.topic")

	c.maxUploadMB = v.GetInt("api.max_upload_mb")

	return nil
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType:   c.vectorProvider,
		TargetURL:      c.vectorTarget,
		Host:           c.vectorHost,
		Port:           c.vectorPort,
		DBPath:         c.vectorDBPath,
		CollectionName: c.collection,
		Dimensions:     c.embeddingDims,
		Logger:         c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer driver.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	generator := generate.NewClient(generate.Config{
		BaseURL:     c.generationTarget,
		Model:       c.generationModel,
		MaxAttempts: c.generationAttempts,
	}, c.logger)

	ch, err := chunker.New(0, 0)
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	retriever := rag.NewRetriever(embedder, driver, c.logger)
	ingestor := rag.NewIngestor(ch, embedder, driver, c.logger)
	asker := rag.NewService(retriever, generator, 0, c.logger)
	deleter := rag.NewDeleter(retriever, driver, "", c.logger)

	store, err := c.newHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	server := api.NewServer(api.Config{
		ListenAddr:     c.listen,
		MaxUploadBytes: int64(c.maxUploadMB) << 20,
		Collection:     c.collection,
	}, ingestor, asker, deleter, store, publisher, c.logger)

	c.logger.Info("starting lectern",
		zap.String("listen", c.listen),
		zap.String("vector_store", c.vectorProvider),
		zap.String("embedding_model", c.embeddingModel),
		zap.String("generation_model", c.generationModel),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) newHistoryStore() (history.Store, error) {
	if c.historyPath != "" {
		store, err := sqlite.NewStore(c.historyPath)
		if err != nil {
			return nil, fmt.Errorf("creating history store: %w", err)
		}
		c.logger.Info("using SQLite upload history", zap.String("path", c.historyPath))
		return store, nil
	}

	c.logger.Info("using in-memory upload history")
	return inmemory.NewStore(), nil
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventProvider {
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: c.eventBrokers,
			Topic:   c.eventTopic,
		}, c.logger)
	case "", "nop":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", c.eventProvider)
	}
}
