package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding service backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOpenAI calls the OpenAI embeddings endpoint over plain HTTP.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderGoOpenAI calls OpenAI through the go-openai client.
	EmbeddingProviderGoOpenAI EmbeddingProvider = "goopenai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOpenAI, EmbeddingProviderGoOpenAI, EmbeddingProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI || p == EmbeddingProviderGoOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOpenAI:
		return "OpenAI (HTTP)"
	case EmbeddingProviderGoOpenAI:
		return "OpenAI (go-openai client)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// ChunkingStrategy selects one of the chunker variants.
type ChunkingStrategy string

// Available chunking strategies.
const (
	// ChunkingTokenWindow emits fixed windows of whitespace tokens with overlap.
	ChunkingTokenWindow ChunkingStrategy = "token_window"

	// ChunkingSentenceGroup groups a fixed number of sentences with overlap.
	ChunkingSentenceGroup ChunkingStrategy = "sentence_group"

	// ChunkingSentenceAccumulate packs whole sentences up to a word budget.
	ChunkingSentenceAccumulate ChunkingStrategy = "sentence_accumulate"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkingStrategy) IsValid() bool {
	switch s {
	case ChunkingTokenWindow, ChunkingSentenceGroup, ChunkingSentenceAccumulate:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkingStrategy) String() string {
	return string(s)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the default embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of texts per upstream request.
	BatchSize int

	// RequestsPerSecond throttles upstream calls. Zero disables throttling.
	RequestsPerSecond float64

	// Timeout bounds a single upstream request.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Strategy selects the chunker variant.
	Strategy ChunkingStrategy

	// ChunkSize is the word budget (token_window, sentence_accumulate).
	ChunkSize int

	// Overlap is the number of shared tokens between windows (token_window).
	Overlap int

	// MaxSentences is the group size (sentence_group).
	MaxSentences int

	// OverlapSentences is the number of shared sentences (sentence_group).
	OverlapSentences int

	// Preprocess lowercases and strips punctuation from every chunk.
	Preprocess bool

	// RemoveStopwords drops English stopwords when Preprocess is set.
	RemoveStopwords bool
}

// QuerySettings holds query defaults.
type QuerySettings struct {
	// NResults is the default number of results.
	NResults int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DataDir is the root for metadata, collections, uploads and ledgers.
	DataDir string

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Query holds query defaults.
	Query QuerySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// DataDir is left empty; callers resolve it against the home directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  EmbeddingProviderOpenAI,
			Model:     DefaultEmbeddingModels()[EmbeddingProviderOpenAI],
			BatchSize: 100,
			Timeout:   60 * time.Second,
		},
		Chunking: ChunkingSettings{
			Strategy:         ChunkingSentenceAccumulate,
			ChunkSize:        DefaultChunkSize,
			Overlap:          50,
			MaxSentences:     5,
			OverlapSentences: 1,
		},
		Query: QuerySettings{
			NResults: DefaultNResults,
		},
	}
}

// AllEmbeddingProviders returns every supported provider.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderOpenAI,
		EmbeddingProviderGoOpenAI,
		EmbeddingProviderOllama,
	}
}

// AllChunkingStrategies returns every supported strategy.
func AllChunkingStrategies() []ChunkingStrategy {
	return []ChunkingStrategy{
		ChunkingSentenceAccumulate,
		ChunkingTokenWindow,
		ChunkingSentenceGroup,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOpenAI:   "text-embedding-ada-002",
		EmbeddingProviderGoOpenAI: "text-embedding-ada-002",
		EmbeddingProviderOllama:   "nomic-embed-text",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
