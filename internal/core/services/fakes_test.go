package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// fakeExtractors handles .txt files and returns their bytes as text.
type fakeExtractors struct {
	failOn string
}

func (f *fakeExtractors) Register(driven.Extractor) {}

func (f *fakeExtractors) Resolve(filename, contentType string) (string, error) {
	if contentType == "text/plain" || strings.EqualFold(filepath.Ext(filename), ".txt") {
		return "text/plain", nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filename)
}

func (f *fakeExtractors) Extract(_ context.Context, file *domain.RawFile) (string, error) {
	if f.failOn != "" && file.Filename == f.failOn {
		return "", errors.New("corrupt file")
	}
	return string(file.Content), nil
}

func (f *fakeExtractors) SupportedMIMETypes() []string { return []string{"text/plain"} }

// paragraphChunker splits on blank lines.
type paragraphChunker struct{}

func (paragraphChunker) Name() string { return "paragraph" }

func (paragraphChunker) Chunk(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type fakeChunkers struct {
	sizes []int
}

func (f *fakeChunkers) ForSize(size int) (driven.Chunker, error) {
	f.sizes = append(f.sizes, size)
	return paragraphChunker{}, nil
}

// fakeEmbedder maps a text to [len(text), 1] so nearest neighbours are predictable.
type fakeEmbedder struct {
	mu     sync.Mutex
	err    error
	models []string
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, model string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.models = append(f.models, model)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) DefaultModel() string        { return "fake-model" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// failingVectors wraps a store and fails Add.
type failingVectors struct {
	driven.VectorStore
	addErr error
}

func (f *failingVectors) Add(context.Context, string, []domain.VectorRecord) error {
	return f.addErr
}

// halfCreatedVectors creates the collection and then reports failure.
type halfCreatedVectors struct {
	driven.VectorStore
}

func (f *halfCreatedVectors) CreateCollection(ctx context.Context, name string) error {
	if err := f.VectorStore.CreateCollection(ctx, name); err != nil {
		return err
	}
	return errors.New("lost connection after create")
}

// halfWrittenSidecar writes the sidecar and then reports failure.
type halfWrittenSidecar struct {
	driven.FileStore
}

func (f *halfWrittenSidecar) WriteSidecar(ctx context.Context, databaseID string, chunks []domain.Chunk) error {
	if err := f.FileStore.WriteSidecar(ctx, databaseID, chunks); err != nil {
		return err
	}
	return errors.New("short write")
}
