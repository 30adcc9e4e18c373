package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI over HTTP (text-embedding-ada-002, text-embedding-3-small)
//   - OpenAI through the go-openai client
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed returns one vector per input text, in input order.
	// Requests are split into provider-sized batches; a failure in any
	// batch fails the whole call and no partial result is returned.
	// An empty model uses DefaultModel.
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)

	// DefaultModel returns the model used when none is requested.
	DefaultModel() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
