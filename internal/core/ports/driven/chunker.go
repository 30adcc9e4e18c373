package driven

// Chunker splits extracted text into bounded segments.
// Implementations are pure: the same input always yields the same chunks.
type Chunker interface {
	// Name returns the strategy name.
	Name() string

	// Chunk splits text. Empty or whitespace-only text yields no chunks.
	Chunk(text string) []string
}

// ChunkerFactory builds a chunker for a requested chunk size.
// A size of zero or less uses the configured default.
type ChunkerFactory interface {
	ForSize(chunkSize int) (Chunker, error)
}
