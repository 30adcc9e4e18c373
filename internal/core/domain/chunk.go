package domain

// Chunk metadata keys stored alongside every vector.
const (
	MetadataSource     = "source"
	MetadataDatabaseID = "database_id"
)

// Chunk is a bounded span of extracted text ready for embedding.
// Chunks are never persisted on their own; they live inside a collection.
type Chunk struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// Metadata carries at least source and database_id.
	Metadata map[string]string `json:"metadata"`
}

// NewChunk creates a chunk tagged with its source file and database.
func NewChunk(text, source, databaseID string) Chunk {
	return Chunk{
		Text: text,
		Metadata: map[string]string{
			MetadataSource:     source,
			MetadataDatabaseID: databaseID,
		},
	}
}

// VectorRecord is one (id, embedding, document, metadata) row of a collection.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Document  string
	Metadata  map[string]string
}

// VectorMatch is a nearest-neighbour hit. Smaller Distance means more similar.
type VectorMatch struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// Collection describes a named vector collection.
type Collection struct {
	Name       string
	Count      int
	Dimensions int
}

// QueryResult is one formatted answer to a query.
type QueryResult struct {
	Text   string  `json:"text" yaml:"text"`
	Source string  `json:"source" yaml:"source"`
	Score  float64 `json:"score" yaml:"score"`
}
