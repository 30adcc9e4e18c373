package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// FileStore keeps raw uploads and the pre-embedding inspection sidecar.
type FileStore interface {
	// SaveUpload copies r into the database's upload area and returns the stored path.
	SaveUpload(ctx context.Context, databaseID, filename string, r io.Reader) (string, error)

	// DeleteUploads removes every upload for the database. Missing uploads are not an error.
	DeleteUploads(ctx context.Context, databaseID string) error

	// WriteSidecar writes the chunks as the database's inspection file.
	WriteSidecar(ctx context.Context, databaseID string, chunks []domain.Chunk) error

	// DeleteSidecar removes the inspection file. A missing file is not an error.
	DeleteSidecar(ctx context.Context, databaseID string) error
}
