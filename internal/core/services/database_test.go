package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

type databaseFixture struct {
	service  *DatabaseService
	metadata *memory.MetadataStore
	vectors  *memory.VectorStore
	files    *memory.FileStore
	keys     *memory.APIKeyStore
	embedder *fakeEmbedder
	extract  *fakeExtractors
	chunkers *fakeChunkers
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newDatabaseFixture(t *testing.T, vectors driven.VectorStore) *databaseFixture {
	t.Helper()
	f := &databaseFixture{
		metadata: memory.NewMetadataStore(),
		vectors:  memory.NewVectorStore(),
		files:    memory.NewFileStore(),
		keys:     memory.NewAPIKeyStore(),
		embedder: &fakeEmbedder{},
		extract:  &fakeExtractors{},
		chunkers: &fakeChunkers{},
	}
	if vectors == nil {
		vectors = f.vectors
	}
	n := 0
	f.service = NewDatabaseService(f.metadata, vectors, f.files, f.extract, f.chunkers, f.embedder, f.keys,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("db-%d", n)
		}),
	)
	return f
}

func upload(name, body string) domain.Upload {
	return domain.Upload{Filename: name, Content: bytes.NewReader([]byte(body))}
}

func createRequest(files ...domain.Upload) domain.CreateDatabaseRequest {
	return domain.CreateDatabaseRequest{
		Name:        "Handbook",
		Description: "staff handbook",
		Sector:      "hr",
		Files:       files,
		Owner:       "alice",
	}
}

// ==================== Create ====================

func TestDatabaseService_Create_Success(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(
		upload("a.txt", "first paragraph\n\nsecond one"),
		upload("b.txt", "third"),
	))
	require.NoError(t, err)
	assert.Equal(t, "db-1", id)

	db, err := f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, db.Status)
	assert.Equal(t, "Handbook", db.Name)
	assert.Equal(t, "alice", db.CreatedBy)
	assert.Equal(t, 2, db.FileCount)
	assert.Equal(t, 3, db.DocumentCount)
	assert.Equal(t, int64(len("first paragraph\n\nsecond one")+len("third")), db.TotalFileSize)
	assert.Equal(t, fixedNow, db.CreatedAt)

	size, err := f.vectors.Size(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, size, db.DatabaseSize)

	count, err := f.vectors.Count(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	uploads := f.files.Uploads(id)
	assert.Equal(t, []byte("third"), uploads["b.txt"])

	chunks, ok := f.files.Sidecar(id)
	require.True(t, ok)
	require.Len(t, chunks, 3)
	assert.Equal(t, "first paragraph", chunks[0].Text)
	assert.Equal(t, "a.txt", chunks[0].Metadata[domain.MetadataSource])
	assert.Equal(t, id, chunks[2].Metadata[domain.MetadataDatabaseID])
	assert.Equal(t, "b.txt", chunks[2].Metadata[domain.MetadataSource])

	assert.Equal(t, domain.StatusCompleted, f.service.Status(ctx, id))
}

func TestDatabaseService_Create_UsesModelAndChunkSize(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	req := createRequest(upload("a.txt", "hello"))
	req.Model = "custom-model"
	req.ChunkSize = 64

	_, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom-model"}, f.embedder.models)
	assert.Equal(t, []int{64}, f.chunkers.sizes)
}

func TestDatabaseService_Create_ReportsProgress(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	var stages []domain.IngestStage
	req := createRequest(upload("a.txt", "one\n\ntwo"))
	req.Progress = func(stage domain.IngestStage, _, _ int) {
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
	}

	_, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []domain.IngestStage{
		domain.StageUpload, domain.StageExtract, domain.StageEmbed, domain.StageIndex, domain.StageDone,
	}, stages)
}

func TestDatabaseService_Create_StreamsRewound(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	r := bytes.NewReader([]byte("content"))
	_, err := r.Seek(3, io.SeekStart)
	require.NoError(t, err)

	id, err := f.service.Create(context.Background(), createRequest(domain.Upload{Filename: "a.txt", Content: r}))
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), f.files.Uploads(id)["a.txt"])
}

func TestDatabaseService_Create_ValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.CreateDatabaseRequest
		wantErr error
	}{
		{"missing name", domain.CreateDatabaseRequest{Files: []domain.Upload{upload("a.txt", "x")}}, domain.ErrInvalidInput},
		{"no files", domain.CreateDatabaseRequest{Name: "n"}, domain.ErrInvalidInput},
		{"unnamed file", createRequest(domain.Upload{Content: bytes.NewReader(nil)}), domain.ErrInvalidInput},
		{"nil content", createRequest(domain.Upload{Filename: "a.txt"}), domain.ErrInvalidInput},
		{"unsupported type", createRequest(upload("a.txt", "x"), upload("image.png", "x")), domain.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDatabaseFixture(t, nil)
			_, err := f.service.Create(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)

			all, err := f.metadata.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Zero(t, f.embedder.calls)
		})
	}
}

func TestDatabaseService_Create_NoEmbedder(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	service := NewDatabaseService(f.metadata, f.vectors, f.files, f.extract, f.chunkers, nil, nil)

	_, err := service.Create(context.Background(), createRequest(upload("a.txt", "x")))
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func assertNothingRemains(t *testing.T, f *databaseFixture, id string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.metadata.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.vectors.GetCollection(ctx, id)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	assert.Empty(t, f.files.Uploads(id))
	_, ok := f.files.Sidecar(id)
	assert.False(t, ok)
}

func TestDatabaseService_Create_EmbeddingFailureRollsBack(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	f.embedder.err = errors.New("upstream 500")

	_, err := f.service.Create(context.Background(), createRequest(upload("a.txt", "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 500")

	assertNothingRemains(t, f, "db-1")
}

func TestDatabaseService_Create_ExtractionFailureRollsBack(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	f.extract.failOn = "b.txt"

	_, err := f.service.Create(context.Background(), createRequest(upload("a.txt", "ok"), upload("b.txt", "bad")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt file")

	assertNothingRemains(t, f, "db-1")
}

func TestDatabaseService_Create_IndexFailureRollsBack(t *testing.T) {
	base := memory.NewVectorStore()
	f := newDatabaseFixture(t, &failingVectors{VectorStore: base, addErr: errors.New("disk full")})
	f.vectors = base

	_, err := f.service.Create(context.Background(), createRequest(upload("a.txt", "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assertNothingRemains(t, f, "db-1")
}

func TestDatabaseService_Create_HalfCreatedCollectionRollsBack(t *testing.T) {
	base := memory.NewVectorStore()
	f := newDatabaseFixture(t, &halfCreatedVectors{VectorStore: base})
	f.vectors = base

	_, err := f.service.Create(context.Background(), createRequest(upload("a.txt", "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create collection")

	assertNothingRemains(t, f, "db-1")
	assert.Equal(t, domain.StatusError, f.service.Status(context.Background(), "db-1"))
}

func TestDatabaseService_Create_HalfWrittenSidecarRollsBack(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	f.service = NewDatabaseService(f.metadata, f.vectors, &halfWrittenSidecar{FileStore: f.files},
		f.extract, f.chunkers, f.embedder, f.keys,
		WithIDGenerator(func() string { return "db-1" }))

	_, err := f.service.Create(context.Background(), createRequest(upload("a.txt", "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write sidecar")

	assertNothingRemains(t, f, "db-1")
}

func TestDatabaseService_Create_NoTextRollsBack(t *testing.T) {
	f := newDatabaseFixture(t, nil)

	_, err := f.service.Create(context.Background(), createRequest(upload("a.txt", "  \n\n  ")))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.embedder.calls)

	assertNothingRemains(t, f, "db-1")
}

func TestDatabaseService_Create_SurvivesCancelledContext(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "text")))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, f.service.Status(context.Background(), id))
}

// ==================== Status ====================

func TestDatabaseService_Status(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	assert.Equal(t, domain.StatusError, f.service.Status(ctx, "unknown"))

	require.NoError(t, f.metadata.Create(ctx, &domain.Database{ID: "p", Status: domain.StatusProcessing}))
	assert.Equal(t, domain.StatusProcessing, f.service.Status(ctx, "p"))

	require.NoError(t, f.vectors.CreateCollection(ctx, "orphan"))
	assert.Equal(t, domain.StatusCompleted, f.service.Status(ctx, "orphan"))
}

// ==================== List / Reconcile ====================

func TestDatabaseService_List_FiltersByOwner(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Create(ctx, createRequest(upload("a.txt", "x")))
	require.NoError(t, err)
	req := createRequest(upload("b.txt", "y"))
	req.Owner = "bob"
	_, err = f.service.Create(ctx, req)
	require.NoError(t, err)

	all, err := f.service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bobs, err := f.service.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "db-2", bobs[0].ID)

	none, err := f.service.List(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDatabaseService_List_DemotesMissingCollection(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "x")))
	require.NoError(t, err)
	require.NoError(t, f.vectors.DeleteCollection(ctx, id))

	all, err := f.service.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusError, all[0].Status)
	assert.Equal(t, domain.MissingCollectionMessage, all[0].ErrorMessage)

	stored, err := f.metadata.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.Status)
}

func TestDatabaseService_Reconcile_CorrectsCount(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "one\n\ntwo")))
	require.NoError(t, err)
	require.NoError(t, f.vectors.Add(ctx, id, []domain.VectorRecord{{ID: "extra", Embedding: []float32{1, 1}}}))

	db, err := f.service.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, db.DocumentCount)
	assert.Equal(t, domain.StatusCompleted, db.Status)
}

func TestDatabaseService_Reconcile_LeavesProcessingAlone(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.metadata.Create(ctx, &domain.Database{ID: "p", Status: domain.StatusProcessing}))

	db, err := f.service.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, db.Status)
}

func TestDatabaseService_Reconcile_NotFound(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	_, err := f.service.Reconcile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Delete ====================

func TestDatabaseService_Delete(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "x")))
	require.NoError(t, err)
	require.NoError(t, f.keys.Add(ctx, &domain.APIKey{Key: "vdb-k", UserID: "alice", DatabaseID: id, Active: true}))

	require.NoError(t, f.service.Delete(ctx, id))
	assertNothingRemains(t, f, id)

	_, err = f.keys.Get(ctx, "vdb-k")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Idempotent.
	require.NoError(t, f.service.Delete(ctx, id))
}

func TestDatabaseService_Delete_RequiresID(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	assert.ErrorIs(t, f.service.Delete(context.Background(), ""), domain.ErrInvalidInput)
}

// ==================== UpdateMetadata ====================

func TestDatabaseService_UpdateMetadata(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "x")))
	require.NoError(t, err)

	name := "Renamed"
	ok, err := f.service.UpdateMetadata(ctx, id, domain.DatabaseUpdate{Name: &name})
	require.NoError(t, err)
	assert.True(t, ok)

	db, err := f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", db.Name)
	assert.Equal(t, "staff handbook", db.Description)
}

func TestDatabaseService_UpdateMetadata_Missing(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	name := "x"
	ok, err := f.service.UpdateMetadata(context.Background(), "missing", domain.DatabaseUpdate{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatabaseService_UpdateMetadata_RejectsBadStatus(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	status := domain.DatabaseStatus("bogus")
	_, err := f.service.UpdateMetadata(context.Background(), "x", domain.DatabaseUpdate{Status: &status})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDatabaseService_UpdateMetadata_RejectsReopeningCompleted(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "x")))
	require.NoError(t, err)

	status := domain.StatusProcessing
	ok, err := f.service.UpdateMetadata(ctx, id, domain.DatabaseUpdate{Status: &status})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, ok)
	assert.Equal(t, domain.StatusCompleted, f.service.Status(ctx, id))
}

func TestDatabaseService_UpdateMetadata_RejectsReviving(t *testing.T) {
	f := newDatabaseFixture(t, nil)
	ctx := context.Background()

	id, err := f.service.Create(ctx, createRequest(upload("a.txt", "x")))
	require.NoError(t, err)
	require.NoError(t, f.vectors.DeleteCollection(ctx, id))

	db, err := f.service.Reconcile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusError, db.Status)

	status := domain.StatusCompleted
	ok, err := f.service.UpdateMetadata(ctx, id, domain.DatabaseUpdate{Status: &status})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, ok)

	db, err = f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, db.Status)
}
