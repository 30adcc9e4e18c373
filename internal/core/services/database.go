package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
	"github.com/custodia-labs/vdb/internal/core/ports/driving"
	"github.com/custodia-labs/vdb/internal/logger"
)

// Ensure DatabaseService implements the interface.
var _ driving.DatabaseService = (*DatabaseService)(nil)

// DatabaseService runs ingestion and owns the database lifecycle.
type DatabaseService struct {
	metadata   driven.MetadataStore
	vectors    driven.VectorStore
	files      driven.FileStore
	extractors driven.ExtractorRegistry
	chunkers   driven.ChunkerFactory
	embedder   driven.EmbeddingService
	keys       driven.APIKeyStore

	now   func() time.Time
	newID func() string
}

// DatabaseOption configures a DatabaseService.
type DatabaseOption func(*DatabaseService)

// WithClock sets the time source for metadata timestamps.
func WithClock(now func() time.Time) DatabaseOption {
	return func(s *DatabaseService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the database identifier source.
func WithIDGenerator(newID func() string) DatabaseOption {
	return func(s *DatabaseService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewDatabaseService creates a new database service.
// embedder may be nil, in which case Create fails with ErrEmbeddingUnavailable.
// keys may be nil, in which case Delete leaves API keys untouched.
func NewDatabaseService(
	metadata driven.MetadataStore,
	vectors driven.VectorStore,
	files driven.FileStore,
	extractors driven.ExtractorRegistry,
	chunkers driven.ChunkerFactory,
	embedder driven.EmbeddingService,
	keys driven.APIKeyStore,
	opts ...DatabaseOption,
) *DatabaseService {
	s := &DatabaseService{
		metadata:   metadata,
		vectors:    vectors,
		files:      files,
		extractors: extractors,
		chunkers:   chunkers,
		embedder:   embedder,
		keys:       keys,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==================== Create ====================

// Create ingests the request's files into a new database.
//
// Steps, each compensated in reverse on failure:
//  1. metadata record with status processing
//  2. raw uploads
//  3. inspection sidecar
//  4. vector collection
//
// followed by embedding, one batched insert and the completion update.
// Ingestion is detached from ctx cancellation once validation passes.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *DatabaseService) Create(ctx context.Context, req domain.CreateDatabaseRequest) (string, error) {
	chunker, err := s.validate(req)
	if err != nil {
		return "", err
	}

	ctx = context.WithoutCancel(ctx)
	id := s.newID()
	progress := req.Progress
	if progress == nil {
		progress = func(domain.IngestStage, int, int) {}
	}

	logger.Section("Creating database " + id)

	// Total size: read every stream once, then rewind it.
	var totalSize int64
	for _, f := range req.Files {
		n, err := measure(f.Content)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Filename, err)
		}
		totalSize += n
	}

	now := s.now().UTC()
	db := &domain.Database{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Sector:        req.Sector,
		CreatedBy:     req.Owner,
		Status:        domain.StatusProcessing,
		FileCount:     len(req.Files),
		TotalFileSize: totalSize,
		DatabaseSize:  totalSize,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx := newSaga("create " + id)
	fail := func(stage string, err error) (string, error) {
		logger.Error("Ingestion of %s failed during %s: %v", id, stage, err)
		if cerr := tx.rollback(ctx); cerr != nil {
			logger.Warn("Cleanup of %s incomplete: %v", id, cerr)
		}
		return "", fmt.Errorf("%s: %w", stage, err)
	}

	if err := s.metadata.Create(ctx, db); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	tx.onRollback("metadata", func(ctx context.Context) error {
		return s.metadata.Delete(ctx, id)
	})

	// Uploads, extraction and chunking.
	tx.onRollback("uploads", func(ctx context.Context) error {
		return s.files.DeleteUploads(ctx, id)
	})
	var chunks []domain.Chunk
	for i, f := range req.Files {
		progress(domain.StageUpload, i, len(req.Files))

		data, err := readAll(f.Content)
		if err != nil {
			return fail("read "+f.Filename, err)
		}
		if _, err := s.files.SaveUpload(ctx, id, f.Filename, bytes.NewReader(data)); err != nil {
			return fail("save "+f.Filename, err)
		}

		progress(domain.StageExtract, i, len(req.Files))
		mimeType, err := s.extractors.Resolve(f.Filename, f.ContentType)
		if err != nil {
			return fail("extract "+f.Filename, err)
		}
		text, err := s.extractors.Extract(ctx, &domain.RawFile{
			Filename: f.Filename,
			MIMEType: mimeType,
			Content:  data,
		})
		if err != nil {
			return fail("extract "+f.Filename, err)
		}

		pieces := chunker.Chunk(text)
		logger.Debug("%s: %d chars -> %d chunks (%s)", f.Filename, len(text), len(pieces), chunker.Name())
		for _, p := range pieces {
			chunks = append(chunks, domain.NewChunk(p, f.Filename, id))
		}
	}
	progress(domain.StageExtract, len(req.Files), len(req.Files))

	if len(chunks) == 0 {
		return fail("chunk", fmt.Errorf("%w: no text could be extracted", domain.ErrInvalidInput))
	}

	// Registered before the step: a failed write may still leave a file.
	tx.onRollback("sidecar", func(ctx context.Context) error {
		return s.files.DeleteSidecar(ctx, id)
	})
	if err := s.files.WriteSidecar(ctx, id, chunks); err != nil {
		return fail("write sidecar", err)
	}

	tx.onRollback("collection", func(ctx context.Context) error {
		return ignoreMissingCollection(s.vectors.DeleteCollection(ctx, id))
	})
	if err := s.vectors.CreateCollection(ctx, id); err != nil {
		return fail("create collection", err)
	}

	progress(domain.StageEmbed, 0, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts, req.Model)
	if err != nil {
		return fail("embed", err)
	}
	if len(vectors) != len(chunks) {
		return fail("embed", fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks)))
	}
	progress(domain.StageEmbed, len(chunks), len(chunks))

	progress(domain.StageIndex, 0, len(chunks))
	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.VectorRecord{
			ID:        strconv.Itoa(i),
			Embedding: vectors[i],
			Document:  c.Text,
			Metadata:  c.Metadata,
		}
	}
	if err := s.vectors.Add(ctx, id, records); err != nil {
		return fail("index", err)
	}
	progress(domain.StageIndex, len(chunks), len(chunks))

	size, err := s.vectors.Size(ctx, id)
	if err != nil {
		logger.Warn("Measuring collection %s: %v", id, err)
		size = totalSize
	}

	_, err = s.metadata.Update(ctx, id, func(db *domain.Database) error {
		count := len(chunks)
		status := domain.StatusCompleted
		domain.DatabaseUpdate{
			Status:        &status,
			DocumentCount: &count,
			DatabaseSize:  &size,
		}.Apply(db, s.now())
		return nil
	})
	if err != nil {
		return fail("complete metadata", err)
	}

	progress(domain.StageDone, len(chunks), len(chunks))
	logger.Info("Database %s completed: %d files, %d chunks", id, len(req.Files), len(chunks))
	return id, nil
}

// validate rejects a request before any side effect and returns the chunker to use.
func (s *DatabaseService) validate(req domain.CreateDatabaseRequest) (driven.Chunker, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", domain.ErrInvalidInput)
	}
	if req.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: chunk size must not be negative", domain.ErrInvalidInput)
	}
	for i, f := range req.Files {
		if f.Filename == "" {
			return nil, fmt.Errorf("%w: file %d has no name", domain.ErrInvalidInput, i)
		}
		if f.Content == nil {
			return nil, fmt.Errorf("%w: file %s has no content", domain.ErrInvalidInput, f.Filename)
		}
		if _, err := s.extractors.Resolve(f.Filename, f.ContentType); err != nil {
			return nil, fmt.Errorf("file %s: %w", f.Filename, err)
		}
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	chunker, err := s.chunkers.ForSize(req.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	return chunker, nil
}

// ==================== Reads ====================

// Status reports processing while ingestion runs, then completed if the
// collection is retrievable and error otherwise.
func (s *DatabaseService) Status(ctx context.Context, id string) domain.DatabaseStatus {
	if db, err := s.metadata.Get(ctx, id); err == nil && db.Status == domain.StatusProcessing {
		return domain.StatusProcessing
	}
	if _, err := s.vectors.GetCollection(ctx, id); err != nil {
		logger.Debug("Status of %s: collection unavailable: %v", id, err)
		return domain.StatusError
	}
	return domain.StatusCompleted
}

// Get returns the metadata record.
func (s *DatabaseService) Get(ctx context.Context, id string) (*domain.Database, error) {
	db, err := s.metadata.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get database %s: %w", id, err)
	}
	return db, nil
}

// List returns databases, optionally for one owner, reconciling every
// completed record against its collection.
func (s *DatabaseService) List(ctx context.Context, owner string) ([]domain.Database, error) {
	all, err := s.metadata.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	result := make([]domain.Database, 0, len(all))
	for i := range all {
		db := &all[i]
		if owner != "" && db.CreatedBy != owner {
			continue
		}
		if db.Status == domain.StatusCompleted {
			reconciled, err := s.reconcile(ctx, db)
			if err != nil {
				logger.Warn("Reconciling %s: %v", db.ID, err)
			} else {
				db = reconciled
			}
		}
		result = append(result, *db)
	}
	return result, nil
}

// Reconcile checks one record against the vector store.
func (s *DatabaseService) Reconcile(ctx context.Context, id string) (*domain.Database, error) {
	db, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if db.Status != domain.StatusCompleted {
		return db, nil
	}
	return s.reconcile(ctx, db)
}

// reconcile demotes a completed record whose collection is gone and
// corrects a stale document count.
func (s *DatabaseService) reconcile(ctx context.Context, db *domain.Database) (*domain.Database, error) {
	count, err := s.vectors.Count(ctx, db.ID)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		logger.Warn("Database %s is completed but its collection is missing", db.ID)
		return s.demote(ctx, db.ID, domain.MissingCollectionMessage)
	case err != nil:
		return nil, fmt.Errorf("count collection: %w", err)
	case count != db.DocumentCount:
		logger.Info("Database %s document count %d -> %d", db.ID, db.DocumentCount, count)
		return s.apply(ctx, db.ID, domain.DatabaseUpdate{DocumentCount: &count})
	default:
		return db, nil
	}
}

// ==================== Mutations ====================

// Delete removes the collection, uploads, sidecar, metadata and API keys.
// Absent parts are skipped, so deleting twice succeeds.
func (s *DatabaseService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: database id is required", domain.ErrInvalidInput)
	}

	var errs []error
	if err := ignoreMissingCollection(s.vectors.DeleteCollection(ctx, id)); err != nil {
		errs = append(errs, fmt.Errorf("delete collection: %w", err))
	}
	if err := s.files.DeleteUploads(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete uploads: %w", err))
	}
	if err := s.files.DeleteSidecar(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete sidecar: %w", err))
	}
	if err := s.metadata.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete metadata: %w", err))
	}
	if s.keys != nil {
		if err := s.keys.DeleteByDatabase(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete api keys: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("Deleted database %s", id)
	return nil
}

// UpdateMetadata merges update into the record.
func (s *DatabaseService) UpdateMetadata(ctx context.Context, id string, update domain.DatabaseUpdate) (bool, error) {
	if update.Status != nil && !update.Status.IsValid() {
		return false, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, *update.Status)
	}
	if _, err := s.apply(ctx, id, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// apply merges update, refusing status moves that CanTransition forbids.
func (s *DatabaseService) apply(ctx context.Context, id string, update domain.DatabaseUpdate) (*domain.Database, error) {
	return s.update(ctx, id, update, domain.CanTransition)
}

// demote marks a completed record whose collection is gone as error. It is
// the one move out of completed.
func (s *DatabaseService) demote(ctx context.Context, id, msg string) (*domain.Database, error) {
	status := domain.StatusError
	allow := func(from, to domain.DatabaseStatus) bool {
		return domain.CanTransition(from, to) || (from == domain.StatusCompleted && to == domain.StatusError)
	}
	return s.update(ctx, id, domain.DatabaseUpdate{Status: &status, ErrorMessage: &msg}, allow)
}

func (s *DatabaseService) update(ctx context.Context, id string, update domain.DatabaseUpdate,
	allow func(from, to domain.DatabaseStatus) bool) (*domain.Database, error) {
	db, err := s.metadata.Update(ctx, id, func(db *domain.Database) error {
		if update.Status != nil && !allow(db.Status, *update.Status) {
			return fmt.Errorf("%w: status %s -> %s", domain.ErrInvalidInput, db.Status, *update.Status)
		}
		update.Apply(db, s.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update metadata %s: %w", id, err)
	}
	return db, nil
}

// ==================== Helper Functions ====================

func ignoreMissingCollection(err error) error {
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return nil
	}
	return err
}

// measure counts the bytes in r and rewinds it.
func measure(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return n, nil
}

// readAll reads r from the start and rewinds it.
func readAll(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return data, nil
}
