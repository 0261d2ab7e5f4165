// Package file provides TOML-backed configuration for the process.
// Configuration is an explicitly constructed value passed to every
// component at startup; there is no ambient global.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the process configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	// DataDir is the database directory. Empty selects ~/.tenantrag/data.
	DataDir string `toml:"data_dir"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the adapter: "ollama" or "mistral".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// APIKey authenticates hosted providers. Unused by ollama.
	APIKey string `toml:"api_key"`

	// Dimensions is the embedding vector size. Zero selects the
	// provider default.
	Dimensions int `toml:"dimensions"`

	// TimeoutSeconds is the per-request timeout. Zero selects the
	// provider default.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// RequestsPerSecond caps the request rate to hosted providers.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// RetrievalConfig configures the retriever.
type RetrievalConfig struct {
	// TopK is the default number of chunks returned. Zero selects 3.
	TopK int `toml:"top_k"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{Provider: "ollama"},
	}
}

// DefaultPath returns the default config file location,
// ~/.tenantrag/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".tenantrag", "config.toml"), nil
}

// Load reads configuration from path. A missing file yields the
// defaults, not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes configuration to path, creating parent directories as
// needed. The file is written with restricted permissions because it
// may hold an API key.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
