// Command tenantrag wires the storage, embedding and service layers and
// hands control to the CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/tenantrag/tenantrag/internal/adapters/driven/config/file"
	"github.com/tenantrag/tenantrag/internal/adapters/driven/embedding/mistral"
	"github.com/tenantrag/tenantrag/internal/adapters/driven/embedding/ollama"
	"github.com/tenantrag/tenantrag/internal/adapters/driven/storage/sqlite"
	"github.com/tenantrag/tenantrag/internal/adapters/driving/cli"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
	"github.com/tenantrag/tenantrag/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("TENANTRAG_CONFIG")
	if configPath == "" {
		var err error
		configPath, err = file.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := file.Load(configPath)
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	defer embedder.Close()

	store, err := sqlite.NewStore(cfg.Storage.DataDir, embedder.Dimensions())
	if err != nil {
		return err
	}
	defer store.Close()

	entities := store.EntityStore()
	cli.Setup(cli.Services{
		Registry:  services.NewRegistryService(entities),
		Ingest:    services.NewIngestService(entities, embedder),
		Retriever: services.NewRetrieverService(entities, store.VectorIndex(), embedder, cfg.Retrieval.TopK),
		Ledger:    services.NewLedgerService(entities),
	})

	return cli.Execute()
}

// buildEmbedder constructs the configured embedding adapter.
func buildEmbedder(cfg file.EmbeddingConfig) (driven.Embedder, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case "", "ollama":
		return ollama.NewEmbedder(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    timeout,
			Dimensions: cfg.Dimensions,
		}), nil
	case "mistral":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider mistral requires embedding.api_key")
		}
		return mistral.NewEmbedder(mistral.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           timeout,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
