package chunkers

import (
	"fmt"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ChunkerFactory = (*Factory)(nil)

// Factory builds the configured strategy for a requested chunk size.
type Factory struct {
	registry *Registry
	settings domain.ChunkingSettings
}

// NewFactory creates a factory for the given settings.
// The strategy must be registered.
func NewFactory(registry *Registry, settings domain.ChunkingSettings) (*Factory, error) {
	if settings.Strategy == "" {
		settings.Strategy = domain.ChunkingSentenceAccumulate
	}
	if !registry.Has(settings.Strategy.String()) {
		return nil, fmt.Errorf("%w: chunking strategy %q", domain.ErrInvalidInput, settings.Strategy)
	}
	return &Factory{registry: registry, settings: settings}, nil
}

// ForSize builds a chunker. chunkSize overrides the configured size when positive.
// Sentence groups are sized in sentences, so they reject a word count.
func (f *Factory) ForSize(chunkSize int) (driven.Chunker, error) {
	if chunkSize > 0 && f.settings.Strategy == domain.ChunkingSentenceGroup {
		return nil, fmt.Errorf("%w: chunk size does not apply to %s (set chunking.max_sentences)",
			domain.ErrInvalidInput, f.settings.Strategy)
	}
	size := f.settings.ChunkSize
	if chunkSize > 0 {
		size = chunkSize
	}

	cfg := map[string]any{
		"overlap":           f.settings.Overlap,
		"max_sentences":     f.settings.MaxSentences,
		"overlap_sentences": f.settings.OverlapSentences,
	}
	if size > 0 {
		cfg["chunk_size"] = size
	}

	chunker, err := f.registry.Build(f.settings.Strategy.String(), cfg)
	if err != nil {
		return nil, err
	}
	if f.settings.Preprocess {
		chunker = WithPreprocessor(chunker, NewPreprocessor(f.settings.RemoveStopwords))
	}
	return chunker, nil
}
