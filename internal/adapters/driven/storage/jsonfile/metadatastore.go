// Package jsonfile persists database metadata as one JSON document per
// database:
//
//	<root>/<id>/metadata.json
//
// Writes go through a temp file and a rename, so a reader sees either the old
// or the new document. Unreadable documents are logged and treated as absent.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/logger"
)

// MetadataFile is the per-database metadata file name.
const MetadataFile = "metadata.json"

// createTemp is swapped in tests to simulate write failures.
var createTemp = os.CreateTemp

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore implements driven.MetadataStore on the local filesystem.
type MetadataStore struct {
	root string

	// mu serialises read-modify-write cycles.
	mu sync.Mutex
}

// NewMetadataStore creates a store rooted at root.
func NewMetadataStore(root string) (*MetadataStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: metadata directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}
	return &MetadataStore{root: root}, nil
}

// Root returns the directory holding one subdirectory per database.
func (s *MetadataStore) Root() string {
	return s.root
}

// Create writes a new metadata document.
func (s *MetadataStore) Create(_ context.Context, db *domain.Database) error {
	if err := validateID(db.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(db.ID)); err == nil {
		return fmt.Errorf("%w: database %s", domain.ErrAlreadyExists, db.ID)
	}
	_, statErr := os.Stat(s.dir(db.ID))
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(s.dir(db.ID), 0700); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	if err := s.write(db); err != nil {
		if created {
			_ = os.RemoveAll(s.dir(db.ID))
		}
		return err
	}
	return nil
}

// Get reads a metadata document.
func (s *MetadataStore) Get(_ context.Context, id string) (*domain.Database, error) {
	if err := validateID(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.read(id)
}

// List returns every readable document ordered by creation time.
func (s *MetadataStore) List(_ context.Context) ([]domain.Database, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading metadata directory: %w", err)
	}

	result := make([]domain.Database, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		db, err := s.read(entry.Name())
		if err != nil {
			continue
		}
		result = append(result, *db)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Update applies fn to the stored document and writes it back.
func (s *MetadataStore) Update(_ context.Context, id string, fn func(db *domain.Database) error) (*domain.Database, error) {
	if err := validateID(id); err != nil {
		return nil, domain.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if err := fn(db); err != nil {
		return nil, err
	}
	db.ID = id
	if err := s.write(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Delete removes the database directory.
func (s *MetadataStore) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.dir(id)); err != nil {
		return fmt.Errorf("removing database directory: %w", err)
	}
	return nil
}

func (s *MetadataStore) dir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *MetadataStore) path(id string) string {
	return filepath.Join(s.dir(id), MetadataFile)
}

// read loads a document. Missing and unreadable documents are ErrNotFound.
func (s *MetadataStore) read(id string) (*domain.Database, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("reading metadata for %s: %v", id, err)
		}
		return nil, domain.ErrNotFound
	}

	var db domain.Database
	if err := json.Unmarshal(data, &db); err != nil {
		logger.Warn("corrupt metadata for %s: %v", id, err)
		return nil, domain.ErrNotFound
	}
	if db.ID == "" {
		db.ID = id
	}
	return &db, nil
}

// write replaces the document via a temp file in the same directory (caller holds mu).
func (s *MetadataStore) write(db *domain.Database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tmp, err := createTemp(s.dir(db.ID), MetadataFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp metadata: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing metadata: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(db.ID)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing metadata: %w", err)
	}
	return nil
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid database id %q", domain.ErrInvalidInput, id)
	}
	return nil
}
