package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu       sync.RWMutex
	uploads  map[string]map[string][]byte
	sidecars map[string][]domain.Chunk
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{
		uploads:  make(map[string]map[string][]byte),
		sidecars: make(map[string][]domain.Chunk),
	}
}

// SaveUpload reads r fully and keeps the bytes.
func (s *FileStore) SaveUpload(_ context.Context, databaseID, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads[databaseID] == nil {
		s.uploads[databaseID] = make(map[string][]byte)
	}
	s.uploads[databaseID][filename] = data
	return "memory://" + databaseID + "/" + filename, nil
}

// DeleteUploads drops every upload for a database.
func (s *FileStore) DeleteUploads(_ context.Context, databaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, databaseID)
	return nil
}

// WriteSidecar keeps a copy of the chunks.
func (s *FileStore) WriteSidecar(_ context.Context, databaseID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidecars[databaseID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// DeleteSidecar drops the chunks.
func (s *FileStore) DeleteSidecar(_ context.Context, databaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sidecars, databaseID)
	return nil
}

// Uploads returns the stored uploads for a database.
func (s *FileStore) Uploads(databaseID string) map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.uploads[databaseID]))
	for name, data := range s.uploads[databaseID] {
		out[name] = data
	}
	return out
}

// Sidecar returns the stored chunks and whether a sidecar exists.
func (s *FileStore) Sidecar(databaseID string) ([]domain.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.sidecars[databaseID]
	return chunks, ok
}
