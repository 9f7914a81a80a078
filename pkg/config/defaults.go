package config

const (
	defaultAPIListen   = ":8080"
	defaultMaxUploadMB = 10

	defaultAPITarget = "http://localhost:8080"

	defaultVectorProvider = "sqlitevec"
	defaultQdrantPort     = 6334
	defaultCollection     = "lectern"

	defaultOllamaTarget = "http://localhost:11434"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultGenerationModel    = "llama3.2:1b"
	defaultGenerationAttempts = 3

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "lectern.documents"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:      defaultAPIListen,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Client: ClientConfig{
			APITarget: defaultAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Port:       defaultQdrantPort,
			Collection: defaultCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Generation: GenerationConfig{
			Target:      defaultOllamaTarget,
			Model:       defaultGenerationModel,
			MaxAttempts: defaultGenerationAttempts,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
