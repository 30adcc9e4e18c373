package driven

import "github.com/custodia-labs/vdb/internal/core/domain"

// EmbeddingValidator validates embedding provider configurations.
// Implementations verify the configuration by testing connectivity to the
// underlying service.
type EmbeddingValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
