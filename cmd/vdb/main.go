// Command vdb ingests documents into vector databases and queries them.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/vdb/internal/adapters/driven/ai"
	"github.com/custodia-labs/vdb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/local"
	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vdb/internal/adapters/driving/cli"
	"github.com/custodia-labs/vdb/internal/chunkers"
	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/core/services"
	"github.com/custodia-labs/vdb/internal/extractors"
	"github.com/custodia-labs/vdb/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	fileConfig, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	config := newEnvConfigStore(fileConfig)

	settingsService := services.NewSettingsService(config, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	dataDir, err := resolveDataDir(settings.DataDir)
	if err != nil {
		return err
	}

	metadata, err := jsonfile.NewMetadataStore(filepath.Join(dataDir, "vector_dbs"))
	if err != nil {
		return err
	}
	vectors, err := sqlite.NewVectorStore(filepath.Join(dataDir, "collections"))
	if err != nil {
		return err
	}
	defer vectors.Close()

	files, err := local.NewFileStore(filepath.Join(dataDir, "uploads"), filepath.Join(dataDir, "intermediate"))
	if err != nil {
		return err
	}
	ledger, err := bolt.Open(filepath.Join(dataDir, "ledger.db"))
	if err != nil {
		return err
	}
	defer ledger.Close()

	registry := chunkers.NewRegistry()
	chunkers.RegisterDefaults(registry)
	chunkerFactory, err := chunkers.NewFactory(registry, settings.Chunking)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	embedder := newEmbedder(&settings.Embedding)
	if embedder != nil {
		defer embedder.Close()
	}

	databases := services.NewDatabaseService(metadata, vectors, files,
		extractors.NewDefaultRegistry(), chunkerFactory, embedder, ledger)
	keys := services.NewAPIKeyService(ledger, metadata)
	usage := services.NewUsageService(ledger)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Database: databases,
		Query:    services.NewQueryService(vectors, embedder, databases, keys, usage, settings.Query.NResults),
		APIKeys:  keys,
		Usage:    usage,
		Settings: settingsService,
	})
	return cli.Execute()
}

// newEmbedder returns nil when no provider is usable. Ingestion and
// queries then fail with ErrEmbeddingUnavailable while the rest of the
// CLI keeps working.
func newEmbedder(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	svc, err := ai.CreateEmbeddingService(settings)
	if err != nil {
		logger.Debug("Embedding service unavailable: %v", err)
		return nil
	}
	return svc
}

func resolveDataDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	base, err := file.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}
