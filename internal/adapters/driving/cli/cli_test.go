package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vdb/internal/chunkers"
	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/services"
	"github.com/custodia-labs/vdb/internal/extractors"
)

// lengthEmbedder embeds a text as [len(text), 1].
type lengthEmbedder struct{}

func (lengthEmbedder) Embed(_ context.Context, texts []string, _ string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (lengthEmbedder) DefaultModel() string        { return "length" }
func (lengthEmbedder) Ping(context.Context) error { return nil }
func (lengthEmbedder) Close() error               { return nil }

// testServices wires real services over in-memory stores.
type testServices struct {
	config *memory.ConfigStore
}

func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	registry := chunkers.NewRegistry()
	chunkers.RegisterDefaults(registry)
	settings := domain.DefaultAppSettings()
	factory, err := chunkers.NewFactory(registry, settings.Chunking)
	require.NoError(t, err)

	metadata := memory.NewMetadataStore()
	vectors := memory.NewVectorStore()
	keyStore := memory.NewAPIKeyStore()
	config := memory.NewConfigStore()

	db := services.NewDatabaseService(metadata, vectors, memory.NewFileStore(),
		extractors.NewDefaultRegistry(), factory, lengthEmbedder{}, keyStore)
	keys := services.NewAPIKeyService(keyStore, metadata)
	usage := services.NewUsageService(memory.NewUsageStore())

	SetServices(Services{
		Database: db,
		Query:    services.NewQueryService(vectors, lengthEmbedder{}, db, keys, usage, settings.Query.NResults),
		APIKeys:  keys,
		Usage:    usage,
		Settings: services.NewSettingsService(config, nil),
	})
	t.Cleanup(func() { SetServices(Services{}) })

	return &testServices{config: config}
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil) //nolint:errcheck // Test helper
		} else {
			f.Value.Set(f.DefValue) //nolint:errcheck // Test helper
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
