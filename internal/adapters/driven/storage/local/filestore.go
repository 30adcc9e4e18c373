// Package local stores raw uploads and inspection sidecars on the local
// filesystem.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore lays files out as:
//
//	<uploads>/<database id>/<filename>
//	<intermediate>/<database id>_chunks.json
type FileStore struct {
	uploadsDir      string
	intermediateDir string
}

// NewFileStore creates the upload and intermediate directories.
func NewFileStore(uploadsDir, intermediateDir string) (*FileStore, error) {
	for _, dir := range []string{uploadsDir, intermediateDir} {
		if dir == "" {
			return nil, fmt.Errorf("%w: file store directories are required", domain.ErrInvalidInput)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &FileStore{uploadsDir: uploadsDir, intermediateDir: intermediateDir}, nil
}

// SaveUpload copies r to the database's upload directory.
func (s *FileStore) SaveUpload(ctx context.Context, databaseID, filename string, r io.Reader) (string, error) {
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.uploadsDir, databaseID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("creating upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("writing upload %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing upload %s: %w", name, err)
	}
	return path, nil
}

// DeleteUploads removes the database's upload directory.
func (s *FileStore) DeleteUploads(_ context.Context, databaseID string) error {
	if databaseID == "" || strings.ContainsAny(databaseID, `/\`) {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(s.uploadsDir, databaseID)); err != nil {
		return fmt.Errorf("removing uploads: %w", err)
	}
	return nil
}

// WriteSidecar writes the chunks as an indented JSON array of {text, metadata}.
func (s *FileStore) WriteSidecar(_ context.Context, databaseID string, chunks []domain.Chunk) error {
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling chunks: %w", err)
	}
	if err := os.WriteFile(s.SidecarPath(databaseID), data, 0600); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// DeleteSidecar removes the sidecar file.
func (s *FileStore) DeleteSidecar(_ context.Context, databaseID string) error {
	if err := os.Remove(s.SidecarPath(databaseID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing sidecar: %w", err)
	}
	return nil
}

// SidecarPath returns the sidecar location for a database.
func (s *FileStore) SidecarPath(databaseID string) string {
	return filepath.Join(s.intermediateDir, databaseID+"_chunks.json")
}

// cleanName keeps only the final path element of an uploaded filename.
func cleanName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: invalid filename %q", domain.ErrInvalidInput, filename)
	}
	return name, nil
}
