package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent lectern configuration stored as
// config.toml in the .lectern/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Generation  GenerationConfig  `toml:"generation"`
	EventStream EventStreamConfig `toml:"event_stream"`
}

// StorageConfig holds upload history storage settings.
type StorageConfig struct {
	HistoryPath string `toml:"history_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// MaxUploadMB bounds the accepted upload size in megabytes.
	MaxUploadMB int `toml:"max_upload_mb,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// lectern API server.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings. Target is the REST URL for
// chroma, Host/Port address the qdrant gRPC endpoint, and DBPath locates the
// sqlitevec database file.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Host       string `toml:"host,omitempty"`
	Port       int    `toml:"port,omitempty"`
	DBPath     string `toml:"db_path,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// GenerationConfig holds answer generation settings.
type GenerationConfig struct {
	Target      string `toml:"target,omitempty"`
	Model       string `toml:"model,omitempty"`
	MaxAttempts int    `toml:"max_attempts,omitempty"`
}

// EventStreamConfig holds document event publishing settings.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.history_path": {
		get: func(c *Config) string { return c.Storage.HistoryPath },
		set: func(c *Config, v string) error { c.Storage.HistoryPath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.max_upload_mb": {
		get: func(c *Config) string {
			if c.API.MaxUploadMB == 0 {
				return ""
			}
			return strconv.Itoa(c.API.MaxUploadMB)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for api.max_upload_mb: %w", err)
			}
			c.API.MaxUploadMB = n
			return nil
		},
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.host": {
		get: func(c *Config) string { return c.VectorStore.Host },
		set: func(c *Config, v string) error { c.VectorStore.Host = v; return nil },
	},
	"vector_store.port": {
		get: func(c *Config) string {
			if c.VectorStore.Port == 0 {
				return ""
			}
			return strconv.Itoa(c.VectorStore.Port)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for vector_store.port: %w", err)
			}
			c.VectorStore.Port = n
			return nil
		},
	},
	"vector_store.db_path": {
		get: func(c *Config) string { return c.VectorStore.DBPath },
		set: func(c *Config, v string) error { c.VectorStore.DBPath = v; return nil },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"generation.target": {
		get: func(c *Config) string { return c.Generation.Target },
		set: func(c *Config, v string) error { c.Generation.Target = v; return nil },
	},
	"generation.model": {
		get: func(c *Config) string { return c.Generation.Model },
		set: func(c *Config, v string) error { c.Generation.Model = v; return nil },
	},
	"generation.max_attempts": {
		get: func(c *Config) string {
			if c.Generation.MaxAttempts == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.MaxAttempts)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.max_attempts: %w", err)
			}
			c.Generation.MaxAttempts = n
			return nil
		},
	},
	"event_stream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error { c.EventStream.Provider = v; return nil },
	},
	"event_stream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			if v == "" {
				c.EventStream.Brokers = nil
				return nil
			}
			c.EventStream.Brokers = strings.Split(v, ",")
			return nil
		},
	},
	"event_stream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}
