package domain

import "io"

// Upload is a file handed to ingestion.
// Content is seekable so every consumer can rewind before reading.
type Upload struct {
	// Filename is the original file name, recorded as the chunk source.
	Filename string

	// ContentType is the declared MIME type. Empty means detect from Filename.
	ContentType string

	// Content is the file body.
	Content io.ReadSeeker
}

// RawFile is an upload buffered in memory for text extraction.
type RawFile struct {
	// Filename is the original file name.
	Filename string

	// MIMEType is the resolved content type.
	MIMEType string

	// Content is the full file body.
	Content []byte
}
