package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/docstackco/lectern/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Version).To(Equal(defaults.Version))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
			Expect(cfg.API.MaxUploadMB).To(Equal(defaults.API.MaxUploadMB))
			Expect(cfg.VectorStore.Provider).To(Equal(defaults.VectorStore.Provider))
			Expect(cfg.VectorStore.Collection).To(Equal(defaults.VectorStore.Collection))
			Expect(cfg.Embedding.Provider).To(Equal(defaults.Embedding.Provider))
			Expect(cfg.Embedding.Target).To(Equal(defaults.Embedding.Target))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Embedding.Dimensions).To(Equal(defaults.Embedding.Dimensions))
			Expect(cfg.Generation.Model).To(Equal(defaults.Generation.Model))
			Expect(cfg.Generation.MaxAttempts).To(Equal(defaults.Generation.MaxAttempts))
			Expect(cfg.EventStream.Provider).To(Equal(defaults.EventStream.Provider))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[vector_store]
provider = "chroma"
target = "http://localhost:8000"

[embedding]
dimensions = 768
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		})

		It("loads all config fields", func() {
			data := `version = 0

[storage]
history_path = "/tmp/lectern-history.sqlite"

[api]
listen = ":9090"
max_upload_mb = 25

[vector_store]
provider = "qdrant"
host = "qdrant.internal"
port = 6334
collection = "docs"

[embedding]
provider = "ollama"
target = "http://ollama:11434"
model = "nomic-embed-text"
dimensions = 768

[generation]
target = "http://ollama:11434"
model = "llama3.2:1b"
max_attempts = 5

[event_stream]
provider = "kafka"
brokers = ["kafka-1:9092", "kafka-2:9092"]
topic = "docs.events"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.HistoryPath).To(Equal("/tmp/lectern-history.sqlite"))
			Expect(cfg.API.Listen).To(Equal(":9090"))
			Expect(cfg.API.MaxUploadMB).To(Equal(25))
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Host).To(Equal("qdrant.internal"))
			Expect(cfg.VectorStore.Port).To(Equal(6334))
			Expect(cfg.VectorStore.Collection).To(Equal("docs"))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
			Expect(cfg.Generation.MaxAttempts).To(Equal(5))
			Expect(cfg.EventStream.Provider).To(Equal("kafka"))
			Expect(cfg.EventStream.Brokers).To(Equal([]string{"kafka-1:9092", "kafka-2:9092"}))
			Expect(cfg.EventStream.Topic).To(Equal("docs.events"))
		})

		It("fills zero-value fields with defaults", func() {
			data := `[api]
listen = ":9191"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.API.Listen).To(Equal(":9191"))
			Expect(cfg.VectorStore.Provider).To(Equal(defaults.VectorStore.Provider))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Generation.Model).To(Equal(defaults.Generation.Model))
		})

		It("errors on malformed TOML", func() {
			data := `[api
listen = `
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SaveConfig", func() {
		It("round-trips a config through save and load", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.API.Listen = ":7070"
			cfg.VectorStore.Provider = "chroma"
			cfg.VectorStore.Target = "http://localhost:8000"

			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.API.Listen).To(Equal(":7070"))
			Expect(loaded.VectorStore.Provider).To(Equal("chroma"))
			Expect(loaded.VectorStore.Target).To(Equal("http://localhost:8000"))
		})

		It("rejects a nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("config key registry", func() {
		It("gets and sets values through dotted keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("embedding.model", "mxbai-embed-large")).To(Succeed())

			got, err := c.GetConfigValue("embedding.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("mxbai-embed-large"))
		})

		It("parses numeric keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("embedding.dimensions", "1024")).To(Succeed())

			got, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("1024"))
		})

		It("splits broker lists on commas", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("event_stream.brokers", "a:9092,b:9092")).To(Succeed())

			got, err := c.GetConfigValue("event_stream.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("a:9092,b:9092"))
		})

		It("rejects unknown keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("bogus.key", "x")).To(HaveOccurred())
			_, err = c.GetConfigValue("bogus.key")
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid numeric values", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("embedding.dimensions", "not-a-number")).To(HaveOccurred())
		})

		It("lists every registered key", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"storage.history_path",
				"api.listen",
				"client.api_target",
				"vector_store.provider",
				"embedding.model",
				"generation.max_attempts",
				"event_stream.brokers",
			))

			for _, k := range keys {
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
		})
	})
})

var _ = Describe("Viper integration", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("applies defaults with no config file", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetString("embedding.model")).To(Equal(defaults.Embedding.Model))
		Expect(v.GetUint("embedding.dimensions")).To(Equal(defaults.Embedding.Dimensions))
	})

	It("prefers config file values over defaults", func() {
		data := `[api]
listen = ":6060"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":6060"))
	})

	It("prefers environment variables over config file values", func() {
		data := `[api]
listen = ":6060"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		os.Setenv("LECTERN_API_LISTEN", ":5050")
		DeferCleanup(func() { os.Unsetenv("LECTERN_API_LISTEN") })

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":5050"))
	})

	It("prefers bound flags over everything else", func() {
		cmd := &cobra.Command{Use: "test"}
		fs := config.FlagSet{
			config.FlagListen: {
				Name:        "listen",
				ViperKey:    "api.listen",
				Description: "listen address",
			},
		}

		var listen string
		config.AddStringFlag(cmd, fs, config.FlagListen, &listen)
		Expect(cmd.Flags().Set("listen", ":4040")).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagListen})
		Expect(v.GetString("api.listen")).To(Equal(":4040"))
	})
})
