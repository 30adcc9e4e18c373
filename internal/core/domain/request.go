package domain

// Defaults applied when a request leaves a field unset.
const (
	DefaultChunkSize = 512
	DefaultNResults  = 5
)

// IngestStage names a step of database creation for progress reporting.
type IngestStage string

// Ingestion stages in execution order.
const (
	StageUpload  IngestStage = "upload"
	StageExtract IngestStage = "extract"
	StageEmbed   IngestStage = "embed"
	StageIndex   IngestStage = "index"
	StageDone    IngestStage = "done"
)

// ProgressFunc receives progress updates during ingestion.
// done counts completed units out of total for the stage.
type ProgressFunc func(stage IngestStage, done, total int)

// CreateDatabaseRequest describes a new database to ingest.
type CreateDatabaseRequest struct {
	Name        string
	Description string
	Sector      string
	Files       []Upload

	// Model overrides the configured embedding model.
	Model string

	// ChunkSize overrides the configured chunk size.
	ChunkSize int

	// Owner is the creating user. Empty for anonymous databases.
	Owner string

	// Progress is optional.
	Progress ProgressFunc
}

// QueryRequest is a nearest-neighbour query against one database.
type QueryRequest struct {
	DatabaseID string
	Text       string
	NResults   int
	Model      string
}
