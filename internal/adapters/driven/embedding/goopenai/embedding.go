// Package goopenai provides an embedding service adapter backed by the
// go-openai client library.
package goopenai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/vdb/internal/adapters/driven/embedding"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel   = string(openai.AdaEmbeddingV2)
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the go-openai embedding service.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	BatchSize         int
	RequestsPerSecond float64
}

// EmbeddingService generates embeddings through go-openai.
type EmbeddingService struct {
	client  *openai.Client
	model   string
	batcher *embedding.Batcher
}

// NewEmbeddingService creates a new go-openai embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("goopenai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		batcher: embedding.NewBatcher(cfg.BatchSize, cfg.RequestsPerSecond),
	}, nil
}

// Embed generates embeddings for texts in batches.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if model == "" {
		model = s.model
	}
	return s.batcher.Run(ctx, texts, model, s.embedBatch)
}

func (s *EmbeddingService) embedBatch(ctx context.Context, batch []string, model string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: batch,
	})
	if err != nil {
		return nil, fmt.Errorf("goopenai: create embeddings: %w", err)
	}

	vectors := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("goopenai: embedding index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		vectors[d.Index] = v
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("goopenai: missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

// DefaultModel returns the model used when none is requested.
func (s *EmbeddingService) DefaultModel() string {
	return s.model
}

// Ping lists models to validate credentials.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("goopenai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
