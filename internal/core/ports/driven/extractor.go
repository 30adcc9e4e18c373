package driven

import (
	"context"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// Extractor converts a raw file into plain text.
// Each extractor handles specific MIME types (e.g., PDF, CSV).
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns file extensions (with dot) used when
	// no usable MIME type was declared.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract returns the text content of the file.
	Extract(ctx context.Context, file *domain.RawFile) (string, error)
}

// ExtractorRegistry selects the appropriate extractor for a file.
type ExtractorRegistry interface {
	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// Resolve returns the MIME type that will be used for the file,
	// or ErrUnsupportedType if no extractor can handle it.
	Resolve(filename, contentType string) (string, error)

	// Extract converts the file using the best matching extractor.
	Extract(ctx context.Context, file *domain.RawFile) (string, error)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}
